package store

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// AddKeyword registers a target keyword for a site. Duplicate
// (site, keyword) pairs are rejected by the unique constraint.
func (s *Store) AddKeyword(siteID int64, keyword string, searchVolume, difficulty, priority int) (*KeywordRecord, error) {
	if priority < 1 || priority > 5 {
		priority = 3
	}
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO keywords (site_id, keyword, search_volume, difficulty, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'new', ?, ?)`,
		siteID, keyword, searchVolume, difficulty, priority, now, now)
	if err != nil {
		return nil, fmt.Errorf("add keyword %q: %w", keyword, err)
	}
	id, _ := res.LastInsertId()
	return s.GetKeyword(id)
}

// GetKeyword fetches a keyword by ID.
func (s *Store) GetKeyword(id int64) (*KeywordRecord, error) {
	return scanKeyword(s.db.QueryRow(keywordColumns+` WHERE id = ?`, id))
}

// ClaimNextKeyword atomically picks the highest-priority 'new' keyword for a
// site and marks it in_progress. Returns nil when no keyword is available.
func (s *Store) ClaimNextKeyword(siteID int64) (*KeywordRecord, error) {
	var claimed *KeywordRecord
	err := s.withTx(func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRow(`
			SELECT id FROM keywords
			WHERE site_id = ? AND status = 'new'
			ORDER BY priority ASC, search_volume DESC
			LIMIT 1`, siteID).Scan(&id)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("pick next keyword: %w", err)
		}
		res, err := tx.Exec(`
			UPDATE keywords SET status = 'in_progress', updated_at = ?
			WHERE id = ? AND status = 'new'`, time.Now().UTC(), id)
		if err != nil {
			return fmt.Errorf("claim keyword %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Raced with another agent; caller retries next cycle.
			return nil
		}
		kw, err := scanKeyword(tx.QueryRow(keywordColumns+` WHERE id = ?`, id))
		if err != nil {
			return err
		}
		claimed = kw
		return nil
	})
	return claimed, err
}

// SetKeywordStatus transitions a keyword only when it currently holds the
// expected status. Returns false when the guard did not match.
func (s *Store) SetKeywordStatus(id int64, from, to KeywordStatus) (bool, error) {
	res, err := s.db.Exec(`UPDATE keywords SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("keyword %d %s->%s: %w", id, from, to, err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// RecordKeywordPosition stores the latest search position and keeps the best
// (lowest non-zero) position seen so far.
func (s *Store) RecordKeywordPosition(id int64, position int) error {
	_, err := s.db.Exec(`
		UPDATE keywords SET
			current_position = ?,
			best_position = CASE WHEN best_position = 0 OR ? < best_position THEN ? ELSE best_position END,
			updated_at = ?
		WHERE id = ?`,
		position, position, position, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("record position for keyword %d: %w", id, err)
	}
	return nil
}

// ListKeywords returns keywords for a site, optionally filtered by status.
func (s *Store) ListKeywords(siteID int64, status KeywordStatus) ([]*KeywordRecord, error) {
	q := builder.
		Select("id", "site_id", "keyword", "search_volume", "difficulty", "priority",
			"status", "current_position", "best_position", "created_at", "updated_at").
		From("keywords").
		Where(sq.Eq{"site_id": siteID}).
		OrderBy("priority ASC", "search_volume DESC")
	if status != "" {
		q = q.Where(sq.Eq{"status": string(status)})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keywords query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	var out []*KeywordRecord
	for rows.Next() {
		kw, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

const keywordColumns = `
	SELECT id, site_id, keyword, search_volume, difficulty, priority,
	       status, current_position, best_position, created_at, updated_at
	FROM keywords`

func scanKeyword(row rowScanner) (*KeywordRecord, error) {
	var kw KeywordRecord
	err := row.Scan(&kw.ID, &kw.SiteID, &kw.Keyword, &kw.SearchVolume, &kw.Difficulty,
		&kw.Priority, &kw.Status, &kw.CurrentPosition, &kw.BestPosition,
		&kw.CreatedAt, &kw.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("keyword not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan keyword: %w", err)
	}
	return &kw, nil
}
