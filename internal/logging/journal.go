package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// #region log-event
// LogEvent writes one entry to the event_journal table.
func LogEvent(db *sql.DB, entry JournalEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO event_journal (session_id, version_id, kind, payload_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		nullIfEmpty(entry.VersionID),
		string(entry.Kind),
		nullIfEmpty(entry.PayloadJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}
// #endregion log-event

// #region list-events
// ListEvents returns a session's journal in the order it was written.
// A non-positive limit returns everything.
func ListEvents(db *sql.DB, sessionID string, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(
		`SELECT id, session_id, version_id, kind, payload_json, decision, reason, created_at
		 FROM event_journal WHERE session_id = ? ORDER BY id ASC LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var versionID, payload, reason sql.NullString
		var kind, created string
		if err := rows.Scan(&e.ID, &e.SessionID, &versionID, &kind, &payload, &e.Decision, &reason, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.VersionID = versionID.String
		e.Kind = Kind(kind)
		e.PayloadJSON = payload.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
// #endregion list-events

// #region journal
// Journal binds the event log to one session and mirrors every row to zap.
type Journal struct {
	db        *sql.DB
	log       *zap.Logger
	sessionID string
}

// NewJournal returns a journal for sessionID. A nil logger discards output.
func NewJournal(db *sql.DB, log *zap.Logger, sessionID string) *Journal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Journal{db: db, log: log, sessionID: sessionID}
}

// SessionID returns the session the journal writes for.
func (j *Journal) SessionID() string {
	return j.sessionID
}

// Record marshals payload and appends one row. Journal failures are logged
// and returned; the session itself is never affected.
func (j *Journal) Record(kind Kind, payload any, decision, reason string) error {
	var payloadJSON string
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", kind, err)
		}
		payloadJSON = string(data)
	}

	j.log.Debug("journal",
		zap.String("session_id", j.sessionID),
		zap.String("kind", string(kind)),
		zap.String("decision", decision),
		zap.String("reason", reason),
	)

	err := LogEvent(j.db, JournalEntry{
		SessionID:   j.sessionID,
		Kind:        kind,
		PayloadJSON: payloadJSON,
		Decision:    decision,
		Reason:      reason,
	})
	if err != nil {
		j.log.Error("journal write failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	return err
}

// MarkSaved records a snapshot save against versionID.
func (j *Journal) MarkSaved(versionID string) error {
	return LogEvent(j.db, JournalEntry{
		SessionID: j.sessionID,
		VersionID: versionID,
		Kind:      KindSave,
		Decision:  "commit",
	})
}
// #endregion journal

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
