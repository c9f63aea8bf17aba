// Package reputation tracks per-faction standing in [-1, 1].
package reputation

import (
	"errors"
	"fmt"
	"maps"
)

// ErrUnknownFaction is returned for names outside the fixed faction set.
var ErrUnknownFaction = errors.New("unknown faction")

// #region factions
type Faction string

const (
	Resistance Faction = "resistance"
	Collective Faction = "collective"
	Archivists Faction = "archivists"
)

// Factions returns the fixed faction set in declaration order.
func Factions() []Faction {
	return []Faction{Resistance, Collective, Archivists}
}

func (f Faction) Valid() bool {
	switch f {
	case Resistance, Collective, Archivists:
		return true
	}
	return false
}

// #endregion factions

// #region standing
type Standing string

const (
	Revered    Standing = "Revered"
	Honored    Standing = "Honored"
	Friendly   Standing = "Friendly"
	Neutral    Standing = "Neutral"
	Unfriendly Standing = "Unfriendly"
	Hostile    Standing = "Hostile"
	Hated      Standing = "Hated"
)

// StandingFor maps a reputation value to its label.
func StandingFor(v float64) Standing {
	switch {
	case v >= 0.8:
		return Revered
	case v >= 0.5:
		return Honored
	case v > 0.2:
		return Friendly
	case v >= -0.2:
		return Neutral
	case v >= -0.5:
		return Unfriendly
	case v >= -0.8:
		return Hostile
	default:
		return Hated
	}
}

// #endregion standing

// #region ledger
// Ledger holds one value per faction.
type Ledger map[Faction]float64

// NewLedger returns every faction at 0.0.
func NewLedger() Ledger {
	l := make(Ledger, 3)
	for _, f := range Factions() {
		l[f] = 0
	}
	return l
}

// Update adds delta to f and clamps to [-1, 1], returning the new value.
func (l Ledger) Update(f Faction, delta float64) (float64, error) {
	if !f.Valid() {
		return 0, fmt.Errorf("update %q: %w", f, ErrUnknownFaction)
	}
	v := max(-1, min(1, l[f]+delta))
	l[f] = v
	return v, nil
}

// Standing returns the label for f's current value.
func (l Ledger) Standing(f Faction) Standing {
	return StandingFor(l[f])
}

// Standings returns every faction's label.
func (l Ledger) Standings() map[Faction]Standing {
	out := make(map[Faction]Standing, len(l))
	for _, f := range Factions() {
		out[f] = l.Standing(f)
	}
	return out
}

func (l Ledger) Clone() Ledger {
	return maps.Clone(l)
}

// #endregion ledger
