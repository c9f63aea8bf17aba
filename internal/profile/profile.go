package profile

import "fmt"

// #region profile
// Profile is a behavioral archetype a session owner can be assigned.
type Profile string

const (
	None      Profile = ""
	Purifier  Profile = "PURIFIER"
	Arbiter   Profile = "ARBITER"
	Ascendant Profile = "ASCENDANT"
)

// All returns the assignable profiles in their canonical order.
func All() []Profile {
	return []Profile{Purifier, Arbiter, Ascendant}
}

// Valid reports whether p is a member of the closed enumeration.
// None is not valid.
func (p Profile) Valid() bool {
	switch p {
	case Purifier, Arbiter, Ascendant:
		return true
	default:
		return false
	}
}

func (p Profile) String() string {
	if p == None {
		return "NONE"
	}
	return string(p)
}

// Parse converts a case-sensitive name into a Profile.
func Parse(s string) (Profile, error) {
	p := Profile(s)
	if !p.Valid() {
		return None, fmt.Errorf("unknown profile %q", s)
	}
	return p, nil
}

// #endregion profile
