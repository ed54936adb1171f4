package storage

import (
	"time"

	"github.com/odvcencio/webgate/pkg/permission"
)

// VerdictEntry is one row of the permission decision audit trail.
type VerdictEntry struct {
	ID        int64
	SessionID string
	URI       string
	Kind      string
	Verdict   string
	DecidedAt time.Time
}

// RecordVerdict stores a permission decision for later review.
func (s *Store) RecordVerdict(sessionID string, req permission.ContentRequest, verdict permission.Verdict) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	_, err := s.db.Exec(`
		INSERT INTO permission_audit (session_id, uri, kind, verdict, decided_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, req.URI, req.Kind.String(), verdict.String(), time.Now().UTC())
	if err != nil {
		return err
	}
	s.notify(newEvent(EventVerdictRecorded, req.URI, verdict.String()))
	return nil
}

// ListVerdicts returns recent audit entries, newest first.
func (s *Store) ListVerdicts(limit int) ([]VerdictEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, session_id, uri, kind, verdict, decided_at
		FROM permission_audit
		ORDER BY decided_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []VerdictEntry
	for rows.Next() {
		var e VerdictEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.URI, &e.Kind, &e.Verdict, &e.DecidedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
