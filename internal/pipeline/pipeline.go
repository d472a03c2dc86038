// Package pipeline covers the upstream half of the content flow: keyword
// intake, claiming work by priority, briefs, and drafting against a brief.
package pipeline

import (
	"log/slog"
	"strings"

	"github.com/seoforge/seoforge/internal/lifecycle"
	"github.com/seoforge/seoforge/internal/publish"
	"github.com/seoforge/seoforge/internal/store"
)

// Pipeline wraps keyword/brief/draft creation with input validation.
type Pipeline struct {
	store *store.Store
}

// New wires the pipeline over the store.
func New(st *store.Store) *Pipeline {
	return &Pipeline{store: st}
}

// AddKeyword registers a keyword target for a site.
func (p *Pipeline) AddKeyword(siteID int64, keyword string, searchVolume, difficulty, priority int) (*store.KeywordRecord, error) {
	keyword = strings.TrimSpace(strings.ToLower(keyword))
	if keyword == "" {
		return nil, lifecycle.Validation("keyword text is required")
	}
	kw, err := p.store.AddKeyword(siteID, keyword, searchVolume, difficulty, priority)
	if err != nil {
		return nil, err
	}
	slog.Info("Keyword added", "site", siteID, "keyword", keyword, "priority", kw.Priority)
	return kw, nil
}

// ClaimNextKeyword hands the highest-priority unworked keyword to a content
// agent, or nil when the backlog is empty.
func (p *Pipeline) ClaimNextKeyword(siteID int64) (*store.KeywordRecord, error) {
	return p.store.ClaimNextKeyword(siteID)
}

// AbandonKeyword retires a keyword that will not be pursued.
func (p *Pipeline) AbandonKeyword(keywordID int64) error {
	kw, err := p.store.GetKeyword(keywordID)
	if err != nil {
		return lifecycle.Validation("keyword %d: %v", keywordID, err)
	}
	ok, err := p.store.SetKeywordStatus(keywordID, kw.Status, store.KeywordAbandoned)
	if err != nil {
		return err
	}
	if !ok {
		return lifecycle.State("keyword %d changed status concurrently", keywordID)
	}
	return nil
}

// CreateBrief writes a brief for a claimed keyword.
func (p *Pipeline) CreateBrief(keywordID int64, title, outline string) (*store.BriefRecord, error) {
	if strings.TrimSpace(title) == "" {
		return nil, lifecycle.Validation("brief title is required")
	}
	kw, err := p.store.GetKeyword(keywordID)
	if err != nil {
		return nil, lifecycle.Validation("keyword %d: %v", keywordID, err)
	}
	brief, err := p.store.CreateBrief(kw.SiteID, keywordID, title, outline)
	if err != nil {
		return nil, err
	}
	slog.Info("Brief created", "brief", brief.ID, "keyword", kw.Keyword, "site", kw.SiteID)
	return brief, nil
}

// ValidateBrief accepts a drafted brief for writing.
func (p *Pipeline) ValidateBrief(briefID int64) error {
	ok, err := p.store.SetBriefStatus(briefID, store.BriefDraft, store.BriefValidated)
	if err != nil {
		return err
	}
	if !ok {
		return lifecycle.State("brief %d is not in draft", briefID)
	}
	return nil
}

// RejectBrief terminates a drafted brief.
func (p *Pipeline) RejectBrief(briefID int64) error {
	ok, err := p.store.SetBriefStatus(briefID, store.BriefDraft, store.BriefRejected)
	if err != nil {
		return err
	}
	if !ok {
		return lifecycle.State("brief %d is not in draft", briefID)
	}
	return nil
}

// CreateDraft writes content against a brief. The slug derives from the
// title unless one is supplied.
func (p *Pipeline) CreateDraft(briefID int64, title, slug, body string) (*store.DraftRecord, error) {
	if strings.TrimSpace(title) == "" {
		return nil, lifecycle.Validation("draft title is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, lifecycle.Validation("draft body is required")
	}
	if slug == "" {
		slug = publish.Slugify(title)
	}
	draft, err := p.store.CreateDraft(briefID, title, slug, body)
	if err != nil {
		return nil, err
	}
	slog.Info("Draft created", "draft", draft.DraftUID, "brief", briefID, "slug", slug)
	return draft, nil
}
