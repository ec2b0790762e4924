package db

import (
	"fmt"
	"time"
)

func (s *Store) RecordAudit(e AuditEntry) error {
	_, err := s.db.Exec(`INSERT INTO audit_logs(request_id, actor, remote_ip, action, target, status, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Actor, e.RemoteIP, e.Action, e.Target, e.Status, e.Metadata)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// ListAudit returns the newest entries first. An empty action lists every
// action.
func (s *Store) ListAudit(limit int, action string) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT id, request_id, actor, remote_ip, action, target, status, COALESCE(metadata, ''), created_at
		FROM audit_logs
		WHERE ? = '' OR action = ?
		ORDER BY id DESC
		LIMIT ?`, action, action, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()
	logs := make([]AuditEntry, 0, limit)
	for rows.Next() {
		var l AuditEntry
		var created sqlNullTime
		if err := rows.Scan(&l.ID, &l.RequestID, &l.Actor, &l.RemoteIP, &l.Action, &l.Target, &l.Status, &l.Metadata, &created); err != nil {
			return nil, err
		}
		l.CreatedAt = created.Time
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// PruneAudit deletes entries older than cutoff and reports how many went.
func (s *Store) PruneAudit(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM audit_logs WHERE created_at < ?`, cutoff.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune audit: %w", err)
	}
	return res.RowsAffected()
}
