package store

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// CreateSite registers a managed site.
func (s *Store) CreateSite(name, domain, rootPath, niche string) (*SiteRecord, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO sites (name, domain, root_path, niche, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)`,
		name, domain, rootPath, niche, now, now)
	if err != nil {
		return nil, fmt.Errorf("create site %s: %w", domain, err)
	}
	id, _ := res.LastInsertId()
	return s.GetSite(id)
}

// GetSite fetches a site by ID.
func (s *Store) GetSite(id int64) (*SiteRecord, error) {
	return s.scanSite(s.db.QueryRow(`
		SELECT id, name, domain, root_path, niche, is_active, created_at, updated_at
		FROM sites WHERE id = ?`, id))
}

// GetSiteByDomain fetches a site by its domain.
func (s *Store) GetSiteByDomain(domain string) (*SiteRecord, error) {
	return s.scanSite(s.db.QueryRow(`
		SELECT id, name, domain, root_path, niche, is_active, created_at, updated_at
		FROM sites WHERE domain = ?`, domain))
}

// ListSites returns sites, optionally only active ones.
func (s *Store) ListSites(activeOnly bool) ([]*SiteRecord, error) {
	q := builder.
		Select("id", "name", "domain", "root_path", "niche", "is_active", "created_at", "updated_at").
		From("sites").
		OrderBy("domain")
	if activeOnly {
		q = q.Where(sq.Eq{"is_active": true})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sites query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []*SiteRecord
	for rows.Next() {
		site, err := s.scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// SetSiteActive toggles the active flag on a site.
func (s *Store) SetSiteActive(id int64, active bool) error {
	_, err := s.db.Exec(`UPDATE sites SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set site %d active=%v: %w", id, active, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSite(row rowScanner) (*SiteRecord, error) {
	var site SiteRecord
	err := row.Scan(&site.ID, &site.Name, &site.Domain, &site.RootPath, &site.Niche,
		&site.Active, &site.CreatedAt, &site.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("site not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan site: %w", err)
	}
	return &site, nil
}
