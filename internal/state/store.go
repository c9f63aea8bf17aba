package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/eval"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/session"
)

// ErrInvariant is returned when a snapshot fails validation and is not stored.
var ErrInvariant = errors.New("snapshot failed invariant checks")

// ErrNotFound is returned for unknown sessions and versions.
var ErrNotFound = errors.New("not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS snapshot_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	session_id    TEXT NOT NULL,
	mode          TEXT NOT NULL,
	profile       TEXT NOT NULL,
	snapshot_json TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	metrics_json  TEXT,
	FOREIGN KEY (parent_id) REFERENCES snapshot_versions(version_id)
);

CREATE INDEX IF NOT EXISTS idx_snapshot_session ON snapshot_versions(session_id, created_at);

CREATE TABLE IF NOT EXISTS event_journal (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	version_id    TEXT,
	kind          TEXT NOT NULL,
	payload_json  TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS active_snapshot (
	session_id    TEXT PRIMARY KEY,
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES snapshot_versions(version_id)
);
`
// #endregion schema

// #region store-struct
// Store manages versioned session snapshots in SQLite.
type Store struct {
	db      *sql.DB
	harness *eval.EvalHarness
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, harness: eval.NewEvalHarness(eval.DefaultEvalConfig())}, nil
}

// NewStoreWithDB wraps an already-migrated database.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db, harness: eval.NewEvalHarness(eval.DefaultEvalConfig())}
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for the event journal.
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region create-session
// CreateSession stores snap as the first version of a new session.
func (s *Store) CreateSession(snap session.Snapshot) (SnapshotRecord, error) {
	return s.save(uuid.New().String(), "", snap)
}
// #endregion create-session

// #region save
// Save validates snap and stores it as the new active version of sessionID,
// parented on the current active version.
func (s *Store) Save(sessionID string, snap session.Snapshot) (SnapshotRecord, error) {
	var parentID string
	err := s.db.QueryRow(
		`SELECT version_id FROM active_snapshot WHERE session_id = ?`, sessionID,
	).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get active: %w", err)
	}
	return s.save(sessionID, parentID, snap)
}

func (s *Store) save(sessionID, parentID string, snap session.Snapshot) (SnapshotRecord, error) {
	result := s.harness.Run(snap)
	if !result.Passed {
		return SnapshotRecord{}, fmt.Errorf("save %s: %s: %w", sessionID, result.Reason, ErrInvariant)
	}
	metrics, err := json.Marshal(result.Metrics)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("marshal metrics: %w", err)
	}
	rec := SnapshotRecord{
		VersionID:   uuid.New().String(),
		ParentID:    parentID,
		SessionID:   sessionID,
		Mode:        snap.Current,
		Profile:     snap.Profile,
		Snapshot:    snap,
		CreatedAt:   time.Now().UTC(),
		MetricsJSON: string(metrics),
	}
	if err := s.Commit(rec); err != nil {
		return SnapshotRecord{}, err
	}
	return rec, nil
}
// #endregion save

// #region commit
// Commit inserts a version and moves the session's active pointer atomically.
func (s *Store) Commit(rec SnapshotRecord) error {
	snapJSON, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshot_versions (version_id, parent_id, session_id, mode, profile, snapshot_json, created_at, metrics_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.VersionID, nullIfEmpty(rec.ParentID), rec.SessionID, string(rec.Mode), string(rec.Profile),
		string(snapJSON), rec.CreatedAt.Format(time.RFC3339Nano), nullIfEmpty(rec.MetricsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_snapshot (session_id, version_id) VALUES (?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET version_id = excluded.version_id`,
		rec.SessionID, rec.VersionID,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
// #endregion commit

// #region get-current
// GetCurrent reads the active version of a session.
func (s *Store) GetCurrent(sessionID string) (SnapshotRecord, error) {
	var versionID string
	err := s.db.QueryRow(
		`SELECT version_id FROM active_snapshot WHERE session_id = ?`, sessionID,
	).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(versionID)
}
// #endregion get-current

// #region get-version
const versionColumns = `version_id, parent_id, session_id, mode, profile, snapshot_json, created_at, metrics_json`

type scanner interface {
	Scan(dest ...any) error
}

// GetVersion retrieves a specific version by ID.
func (s *Store) GetVersion(id string) (SnapshotRecord, error) {
	row := s.db.QueryRow(`SELECT `+versionColumns+` FROM snapshot_versions WHERE version_id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, fmt.Errorf("get version %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return rec, nil
}

func scanRecord(row scanner) (SnapshotRecord, error) {
	var rec SnapshotRecord
	var parentID, metricsJSON sql.NullString
	var modeStr, profileStr, snapJSON, createdStr string

	if err := row.Scan(&rec.VersionID, &parentID, &rec.SessionID, &modeStr, &profileStr,
		&snapJSON, &createdStr, &metricsJSON); err != nil {
		return SnapshotRecord{}, err
	}
	rec.ParentID = parentID.String
	rec.MetricsJSON = metricsJSON.String
	rec.Mode = mode.Mode(modeStr)
	rec.Profile = profile.Profile(profileStr)
	if err := json.Unmarshal([]byte(snapJSON), &rec.Snapshot); err != nil {
		return SnapshotRecord{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}
// #endregion get-version

// #region rollback
// Rollback points a session back at one of its earlier versions.
func (s *Store) Rollback(sessionID, targetVersionID string) error {
	var owner string
	err := s.db.QueryRow(
		`SELECT session_id FROM snapshot_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("version %s: %w", targetVersionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if owner != sessionID {
		return fmt.Errorf("version %s belongs to session %s, not %s", targetVersionID, owner, sessionID)
	}

	_, err = s.db.Exec(`UPDATE active_snapshot SET version_id = ? WHERE session_id = ?`, targetVersionID, sessionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
// #endregion rollback

// #region list-versions
// ListVersions returns a session's most recent versions, newest first.
func (s *Store) ListVersions(sessionID string, limit int) ([]SnapshotRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+versionColumns+` FROM snapshot_versions
		 WHERE session_id = ? ORDER BY rowid DESC LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-versions

// #region list-sessions
// ListSessions returns every session with its active version.
func (s *Store) ListSessions() ([]SessionInfo, error) {
	rows, err := s.db.Query(
		`SELECT a.session_id, a.version_id, v.mode, v.profile, v.created_at,
		        (SELECT COUNT(*) FROM snapshot_versions c WHERE c.session_id = a.session_id)
		 FROM active_snapshot a JOIN snapshot_versions v ON v.version_id = a.version_id
		 ORDER BY v.rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var modeStr, profileStr, createdStr string
		if err := rows.Scan(&info.SessionID, &info.VersionID, &modeStr, &profileStr, &createdStr, &info.Versions); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		info.Mode = mode.Mode(modeStr)
		info.Profile = profile.Profile(profileStr)
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, info)
	}
	return out, rows.Err()
}
// #endregion list-sessions

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
