package store

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// CreateDraft records new content written against a brief. The brief moves to
// in_writing and the keyword to content_created in the same transaction.
func (s *Store) CreateDraft(briefID int64, title, slug, body string) (*DraftRecord, error) {
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		var siteID, keywordID int64
		err := tx.QueryRow(`SELECT site_id, keyword_id FROM briefs WHERE id = ?`, briefID).
			Scan(&siteID, &keywordID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("brief %d not found", briefID)
		}
		if err != nil {
			return fmt.Errorf("load brief %d: %w", briefID, err)
		}

		now := time.Now().UTC()
		res, err := tx.Exec(`
			INSERT INTO drafts (draft_uid, brief_id, site_id, title, slug, body, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 'draft', ?, ?)`,
			uuid.NewString(), briefID, siteID, title, slug, body, now, now)
		if err != nil {
			return fmt.Errorf("create draft for brief %d: %w", briefID, err)
		}
		id, _ = res.LastInsertId()

		_, err = tx.Exec(`
			UPDATE briefs SET status = 'in_writing', updated_at = ?
			WHERE id = ? AND status IN ('draft','validated')`, now, briefID)
		if err != nil {
			return fmt.Errorf("advance brief %d: %w", briefID, err)
		}
		_, err = tx.Exec(`
			UPDATE keywords SET status = 'content_created', updated_at = ?
			WHERE id = ? AND status = 'brief_created'`, now, keywordID)
		if err != nil {
			return fmt.Errorf("advance keyword %d: %w", keywordID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetDraft(id)
}

// GetDraft fetches a draft by ID.
func (s *Store) GetDraft(id int64) (*DraftRecord, error) {
	return scanDraft(s.db.QueryRow(draftColumns+` WHERE id = ?`, id))
}

// GetDraftByUID fetches a draft by its public identifier.
func (s *Store) GetDraftByUID(uid string) (*DraftRecord, error) {
	return scanDraft(s.db.QueryRow(draftColumns+` WHERE draft_uid = ?`, uid))
}

// TransitionDraft moves a draft from one status to another. The update is
// conditioned on the current status so concurrent callers get exactly one
// winner; it reports false when the draft was not in the expected state.
func (s *Store) TransitionDraft(id int64, from, to DraftStatus) (bool, error) {
	res, err := s.db.Exec(`UPDATE drafts SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("draft %d %s->%s: %w", id, from, to, err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ApproveDraft transitions review->approved, recording the validator, the
// validation timestamp and the gating similarity score atomically with the
// status check. Reports false when the draft already left review.
func (s *Store) ApproveDraft(id int64, validator string, score float64, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE drafts SET
			status = 'approved',
			human_validated = 1,
			validated_by = ?,
			validated_at = ?,
			approved_at = ?,
			similarity_score = ?,
			updated_at = ?
		WHERE id = ? AND status = 'review'`,
		validator, now, now, score, now, id)
	if err != nil {
		return false, fmt.Errorf("approve draft %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// RejectDraft transitions review->rejected with the stored reason.
func (s *Store) RejectDraft(id int64, reason string, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE drafts SET status = 'rejected', rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status = 'review'`,
		reason, now, id)
	if err != nil {
		return false, fmt.Errorf("reject draft %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// IncrementPublishAttempts bumps the consecutive failed publish counter and
// returns the new value.
func (s *Store) IncrementPublishAttempts(id int64) (int, error) {
	var attempts int
	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE drafts SET publish_attempts = publish_attempts + 1, updated_at = ? WHERE id = ?`,
			time.Now().UTC(), id); err != nil {
			return fmt.Errorf("bump publish attempts for draft %d: %w", id, err)
		}
		return tx.QueryRow(`SELECT publish_attempts FROM drafts WHERE id = ?`, id).Scan(&attempts)
	})
	return attempts, err
}

// ListPublishableDrafts returns approved drafts whose approval happened at or
// before the cutoff, oldest approval first.
func (s *Store) ListPublishableDrafts(cutoff time.Time) ([]*DraftRecord, error) {
	rows, err := s.db.Query(draftColumns+`
		WHERE status = 'approved' AND approved_at IS NOT NULL AND approved_at <= ?
		ORDER BY approved_at ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list publishable drafts: %w", err)
	}
	defer rows.Close()
	return collectDrafts(rows)
}

// ListDrafts returns drafts filtered by site and/or status.
func (s *Store) ListDrafts(siteID int64, status DraftStatus) ([]*DraftRecord, error) {
	q := builder.
		Select("id", "draft_uid", "brief_id", "site_id", "title", "slug", "body",
			"similarity_score", "status", "human_validated", "validated_by",
			"validated_at", "approved_at", "rejection_reason", "publish_attempts",
			"created_at", "updated_at").
		From("drafts").
		OrderBy("created_at DESC")
	if siteID != 0 {
		q = q.Where(sq.Eq{"site_id": siteID})
	}
	if status != "" {
		q = q.Where(sq.Eq{"status": string(status)})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build drafts query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()
	return collectDrafts(rows)
}

const draftColumns = `
	SELECT id, draft_uid, brief_id, site_id, title, slug, body,
	       similarity_score, status, human_validated, validated_by,
	       validated_at, approved_at, rejection_reason, publish_attempts,
	       created_at, updated_at
	FROM drafts`

func collectDrafts(rows *sql.Rows) ([]*DraftRecord, error) {
	var out []*DraftRecord
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDraft(row rowScanner) (*DraftRecord, error) {
	var d DraftRecord
	var validatedAt, approvedAt sql.NullTime
	err := row.Scan(&d.ID, &d.DraftUID, &d.BriefID, &d.SiteID, &d.Title, &d.Slug, &d.Body,
		&d.SimilarityScore, &d.Status, &d.HumanValidated, &d.ValidatedBy,
		&validatedAt, &approvedAt, &d.RejectionReason, &d.PublishAttempts,
		&d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("draft not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan draft: %w", err)
	}
	d.ValidatedAt = timePtr(validatedAt)
	d.ApprovedAt = timePtr(approvedAt)
	return &d, nil
}
