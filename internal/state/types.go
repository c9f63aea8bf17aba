package state

import (
	"time"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/session"
)

// #region snapshot-record
// SnapshotRecord is one stored version of a session snapshot. Mode and
// Profile are denormalized from the snapshot for listing.
type SnapshotRecord struct {
	VersionID   string
	ParentID    string
	SessionID   string
	Mode        mode.Mode
	Profile     profile.Profile
	Snapshot    session.Snapshot
	CreatedAt   time.Time
	MetricsJSON string
}
// #endregion snapshot-record

// #region session-info
// SessionInfo summarizes one session's active version.
type SessionInfo struct {
	SessionID string
	VersionID string
	Mode      mode.Mode
	Profile   profile.Profile
	Versions  int
	UpdatedAt time.Time
}
// #endregion session-info
