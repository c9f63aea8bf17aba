package logging

import "time"

// #region kind
// Kind names the host event a journal row records.
type Kind string

const (
	KindMode          Kind = "mode"
	KindAssign        Kind = "assign"
	KindAction        Kind = "action"
	KindInstability   Kind = "instability"
	KindReputation    Kind = "reputation"
	KindOverrideStart Kind = "override_start"
	KindOverrideEnd   Kind = "override_end"
	KindTick          Kind = "tick"
	KindScratchSet    Kind = "scratch_set"
	KindScratchDelete Kind = "scratch_delete"
	KindScratchClear  Kind = "scratch_clear"
	KindSave          Kind = "save"
)

// #endregion kind

// #region journal-entry
// JournalEntry is a single row in the event_journal table.
type JournalEntry struct {
	ID          int64
	SessionID   string
	VersionID   string
	Kind        Kind
	PayloadJSON string
	Decision    string // "commit" | "reject" | "no_op"
	Reason      string
	CreatedAt   time.Time
}
// #endregion journal-entry
