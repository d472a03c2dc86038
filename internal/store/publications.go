package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordPublished records a successful publication for an approved draft and
// moves the draft (and its brief and keyword) forward in one transaction.
// The kill switch must be checked by the caller before the site write; this
// method only enforces the state invariants.
func (s *Store) RecordPublished(draftID int64, url string, now time.Time) (*PublicationRecord, error) {
	var pubID int64
	err := s.withTx(func(tx *sql.Tx) error {
		var siteID, briefID int64
		var humanValidated bool
		err := tx.QueryRow(`SELECT site_id, brief_id, human_validated FROM drafts WHERE id = ? AND status = 'approved'`,
			draftID).Scan(&siteID, &briefID, &humanValidated)
		if err == sql.ErrNoRows {
			return fmt.Errorf("draft %d is not approved", draftID)
		}
		if err != nil {
			return fmt.Errorf("load draft %d: %w", draftID, err)
		}
		if !humanValidated {
			return fmt.Errorf("draft %d was never human-validated", draftID)
		}

		res, err := tx.Exec(`
			INSERT INTO publications (publication_uid, draft_id, site_id, url, status, published_at, created_at)
			VALUES (?, ?, ?, ?, 'published', ?, ?)`,
			uuid.NewString(), draftID, siteID, url, now, now)
		if err != nil {
			return fmt.Errorf("insert publication for draft %d: %w", draftID, err)
		}
		pubID, _ = res.LastInsertId()

		upd, err := tx.Exec(`UPDATE drafts SET status = 'published', publish_attempts = 0, updated_at = ? WHERE id = ? AND status = 'approved'`,
			now, draftID)
		if err != nil {
			return fmt.Errorf("mark draft %d published: %w", draftID, err)
		}
		if n, _ := upd.RowsAffected(); n == 0 {
			return fmt.Errorf("draft %d left approved during publication", draftID)
		}
		if _, err := tx.Exec(`UPDATE briefs SET status = 'complete', updated_at = ? WHERE id = ? AND status != 'complete'`,
			now, briefID); err != nil {
			return fmt.Errorf("complete brief %d: %w", briefID, err)
		}
		if _, err := tx.Exec(`
			UPDATE keywords SET status = 'published', updated_at = ?
			WHERE id = (SELECT keyword_id FROM briefs WHERE id = ?) AND status != 'published'`,
			now, briefID); err != nil {
			return fmt.Errorf("advance keyword for brief %d: %w", briefID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPublication(pubID)
}

// RecordPublicationFailure appends a failed publication row. The draft keeps
// its approved status and stays eligible for the next cycle.
func (s *Store) RecordPublicationFailure(draftID int64, errText string, now time.Time) (*PublicationRecord, error) {
	var siteID int64
	err := s.db.QueryRow(`SELECT site_id FROM drafts WHERE id = ?`, draftID).Scan(&siteID)
	if err != nil {
		return nil, fmt.Errorf("load draft %d: %w", draftID, err)
	}
	res, err := s.db.Exec(`
		INSERT INTO publications (publication_uid, draft_id, site_id, status, error_text, created_at)
		VALUES (?, ?, ?, 'failed', ?, ?)`,
		uuid.NewString(), draftID, siteID, errText, now)
	if err != nil {
		return nil, fmt.Errorf("insert failed publication for draft %d: %w", draftID, err)
	}
	id, _ := res.LastInsertId()
	return s.GetPublication(id)
}

// GetPublication fetches a publication by ID.
func (s *Store) GetPublication(id int64) (*PublicationRecord, error) {
	return scanPublication(s.db.QueryRow(publicationColumns+` WHERE id = ?`, id))
}

// PublishedPublicationForDraft returns the published record for a draft, or
// nil when none exists. Used to make publish idempotent.
func (s *Store) PublishedPublicationForDraft(draftID int64) (*PublicationRecord, error) {
	pub, err := scanPublication(s.db.QueryRow(publicationColumns+`
		WHERE draft_id = ? AND status = 'published'
		ORDER BY id DESC LIMIT 1`, draftID))
	if err == errPublicationNotFound {
		return nil, nil
	}
	return pub, err
}

// CountPublishedBetween counts publications for a site inside [from, to).
// Callers compute the window from a single wall-clock read.
func (s *Store) CountPublishedBetween(siteID int64, from, to time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM publications
		WHERE site_id = ? AND status = 'published' AND published_at >= ? AND published_at < ?`,
		siteID, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count publications for site %d: %w", siteID, err)
	}
	return n, nil
}

// CountPublishedAllSites counts publications across every site inside
// [from, to). The automatic kill-switch publication-rate rule uses it.
func (s *Store) CountPublishedAllSites(from, to time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM publications
		WHERE status = 'published' AND published_at >= ? AND published_at < ?`,
		from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count publications: %w", err)
	}
	return n, nil
}

// AverageSimilaritySince averages similarity scores recorded after the
// cutoff. Returns 0 when no records exist in the window.
func (s *Store) AverageSimilaritySince(cutoff time.Time) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT AVG(score) FROM similarity_records WHERE created_at > ?`, cutoff).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average similarity: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// PublishedCorpus returns the body text of every published item for a site,
// keyed by publication ID. The similarity guard compares candidates against it.
func (s *Store) PublishedCorpus(siteID int64) (map[int64]string, error) {
	rows, err := s.db.Query(`
		SELECT p.id, d.body
		FROM publications p
		JOIN drafts d ON d.id = p.draft_id
		WHERE p.site_id = ? AND p.status = 'published'`, siteID)
	if err != nil {
		return nil, fmt.Errorf("load published corpus for site %d: %w", siteID, err)
	}
	defer rows.Close()

	corpus := make(map[int64]string)
	for rows.Next() {
		var id int64
		var body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan corpus row: %w", err)
		}
		corpus[id] = body
	}
	return corpus, rows.Err()
}

// InsertSimilarityRecords persists one audit row per comparison. Rows are
// never updated afterwards.
func (s *Store) InsertSimilarityRecords(draftID int64, scores map[int64]float64) error {
	return s.withTx(func(tx *sql.Tx) error {
		now := time.Now().UTC()
		for pubID, score := range scores {
			if _, err := tx.Exec(`
				INSERT INTO similarity_records (draft_id, publication_id, score, created_at)
				VALUES (?, ?, ?, ?)`, draftID, pubID, score, now); err != nil {
				return fmt.Errorf("insert similarity record draft=%d pub=%d: %w", draftID, pubID, err)
			}
		}
		return nil
	})
}

// SimilarityRecordsForDraft returns the audit trail of comparisons for a draft.
func (s *Store) SimilarityRecordsForDraft(draftID int64) ([]*SimilarityRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, draft_id, publication_id, score, created_at
		FROM similarity_records WHERE draft_id = ? ORDER BY id`, draftID)
	if err != nil {
		return nil, fmt.Errorf("list similarity records for draft %d: %w", draftID, err)
	}
	defer rows.Close()

	var out []*SimilarityRecord
	for rows.Next() {
		var r SimilarityRecord
		if err := rows.Scan(&r.ID, &r.DraftID, &r.PublicationID, &r.Score, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan similarity record: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

var errPublicationNotFound = fmt.Errorf("publication not found")

const publicationColumns = `
	SELECT id, publication_uid, draft_id, site_id, url, status, error_text, published_at, created_at
	FROM publications`

func scanPublication(row rowScanner) (*PublicationRecord, error) {
	var p PublicationRecord
	var publishedAt sql.NullTime
	err := row.Scan(&p.ID, &p.PublicationUID, &p.DraftID, &p.SiteID, &p.URL,
		&p.Status, &p.ErrorText, &publishedAt, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errPublicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan publication: %w", err)
	}
	p.PublishedAt = timePtr(publishedAt)
	return &p, nil
}
