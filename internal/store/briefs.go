package store

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// CreateBrief records a brief for a keyword and advances the keyword to
// brief_created in the same transaction.
func (s *Store) CreateBrief(siteID, keywordID int64, title, outline string) (*BriefRecord, error) {
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		now := time.Now().UTC()
		res, err := tx.Exec(`
			INSERT INTO briefs (site_id, keyword_id, title, outline, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, 'draft', ?, ?)`,
			siteID, keywordID, title, outline, now, now)
		if err != nil {
			return fmt.Errorf("create brief for keyword %d: %w", keywordID, err)
		}
		id, _ = res.LastInsertId()
		_, err = tx.Exec(`
			UPDATE keywords SET status = 'brief_created', updated_at = ?
			WHERE id = ? AND status IN ('new','in_progress')`, now, keywordID)
		if err != nil {
			return fmt.Errorf("advance keyword %d: %w", keywordID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBrief(id)
}

// GetBrief fetches a brief by ID.
func (s *Store) GetBrief(id int64) (*BriefRecord, error) {
	return scanBrief(s.db.QueryRow(`
		SELECT id, site_id, keyword_id, title, outline, status, created_at, updated_at
		FROM briefs WHERE id = ?`, id))
}

// SetBriefStatus transitions a brief only from the expected current status.
func (s *Store) SetBriefStatus(id int64, from, to BriefStatus) (bool, error) {
	res, err := s.db.Exec(`UPDATE briefs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("brief %d %s->%s: %w", id, from, to, err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ListBriefs returns briefs for a site, optionally filtered by status.
func (s *Store) ListBriefs(siteID int64, status BriefStatus) ([]*BriefRecord, error) {
	q := builder.
		Select("id", "site_id", "keyword_id", "title", "outline", "status", "created_at", "updated_at").
		From("briefs").
		Where(sq.Eq{"site_id": siteID}).
		OrderBy("created_at DESC")
	if status != "" {
		q = q.Where(sq.Eq{"status": string(status)})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build briefs query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list briefs: %w", err)
	}
	defer rows.Close()

	var out []*BriefRecord
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBrief(row rowScanner) (*BriefRecord, error) {
	var b BriefRecord
	err := row.Scan(&b.ID, &b.SiteID, &b.KeywordID, &b.Title, &b.Outline,
		&b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("brief not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan brief: %w", err)
	}
	return &b, nil
}
