package store

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// InsertAlert appends an alert row. siteID of 0 means system-wide.
func (s *Store) InsertAlert(siteID int64, typ AlertType, severity AlertSeverity, message string) (*AlertRecord, error) {
	var site any
	if siteID != 0 {
		site = siteID
	}
	res, err := s.db.Exec(`
		INSERT INTO alerts (site_id, alert_type, severity, message, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		site, typ, severity, message, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getAlert(id)
}

// ResolveAlert marks an alert resolved. Alert rows are never deleted here;
// retention is an external rotation concern.
func (s *Store) ResolveAlert(id int64, now time.Time) error {
	_, err := s.db.Exec(`UPDATE alerts SET is_resolved = 1, resolved_at = ? WHERE id = ? AND is_resolved = 0`,
		now, id)
	if err != nil {
		return fmt.Errorf("resolve alert %d: %w", id, err)
	}
	return nil
}

// ListAlerts returns alerts, newest first, optionally only unresolved ones.
func (s *Store) ListAlerts(unresolvedOnly bool, limit int) ([]*AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := builder.
		Select("id", "site_id", "alert_type", "severity", "message", "is_resolved", "resolved_at", "created_at").
		From("alerts").
		OrderBy("id DESC").
		Limit(uint64(limit))
	if unresolvedOnly {
		q = q.Where(sq.Eq{"is_resolved": false})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build alerts query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []*AlertRecord
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) getAlert(id int64) (*AlertRecord, error) {
	return scanAlert(s.db.QueryRow(`
		SELECT id, site_id, alert_type, severity, message, is_resolved, resolved_at, created_at
		FROM alerts WHERE id = ?`, id))
}

func scanAlert(row rowScanner) (*AlertRecord, error) {
	var a AlertRecord
	var siteID sql.NullInt64
	var resolvedAt sql.NullTime
	err := row.Scan(&a.ID, &siteID, &a.Type, &a.Severity, &a.Message, &a.Resolved, &resolvedAt, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	if siteID.Valid {
		a.SiteID = siteID.Int64
	}
	a.ResolvedAt = timePtr(resolvedAt)
	return &a, nil
}
