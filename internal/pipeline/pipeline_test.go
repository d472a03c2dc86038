package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/seoforge/seoforge/internal/lifecycle"
	"github.com/seoforge/seoforge/internal/store"
)

func newTestPipeline(t *testing.T) (*Pipeline, *store.Store, *store.SiteRecord) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "seoforge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	site, err := st.CreateSite("pipeline", "pipeline.example", "/var/www/html", "artisan")
	if err != nil {
		t.Fatalf("create site: %v", err)
	}
	return New(st), st, site
}

func TestAddKeywordNormalizesInput(t *testing.T) {
	p, _, site := newTestPipeline(t)

	kw, err := p.AddKeyword(site.ID, "  Isolation Toiture  ", 600, 35, 2)
	if err != nil {
		t.Fatalf("add keyword: %v", err)
	}
	if kw.Keyword != "isolation toiture" {
		t.Fatalf("expected normalized keyword, got %q", kw.Keyword)
	}

	if _, err := p.AddKeyword(site.ID, "   ", 0, 0, 3); !lifecycle.IsKind(err, lifecycle.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddKeywordClampsPriority(t *testing.T) {
	p, _, site := newTestPipeline(t)

	kw, err := p.AddKeyword(site.ID, "priorite farfelue", 0, 0, 42)
	if err != nil {
		t.Fatalf("add keyword: %v", err)
	}
	if kw.Priority != 3 {
		t.Fatalf("expected clamped priority 3, got %d", kw.Priority)
	}
}

func TestBriefLifecycle(t *testing.T) {
	p, st, site := newTestPipeline(t)
	kw, _ := p.AddKeyword(site.ID, "ravalement facade", 400, 30, 1)

	if _, err := p.CreateBrief(kw.ID, "", "outline"); !lifecycle.IsKind(err, lifecycle.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	brief, err := p.CreateBrief(kw.ID, "Ravalement de facade", "h2: diagnostic")
	if err != nil {
		t.Fatalf("create brief: %v", err)
	}
	if brief.SiteID != site.ID {
		t.Fatalf("brief site mismatch: %d", brief.SiteID)
	}

	if err := p.ValidateBrief(brief.ID); err != nil {
		t.Fatalf("validate: %v", err)
	}
	// A validated brief cannot be validated or rejected again.
	if err := p.ValidateBrief(brief.ID); !lifecycle.IsKind(err, lifecycle.KindState) {
		t.Fatalf("expected state error, got %v", err)
	}
	if err := p.RejectBrief(brief.ID); !lifecycle.IsKind(err, lifecycle.KindState) {
		t.Fatalf("expected state error, got %v", err)
	}

	got, _ := st.GetBrief(brief.ID)
	if got.Status != store.BriefValidated {
		t.Fatalf("expected validated, got %s", got.Status)
	}
}

func TestCreateDraftDerivesSlug(t *testing.T) {
	p, _, site := newTestPipeline(t)
	kw, _ := p.AddKeyword(site.ID, "velux pose", 200, 20, 2)
	brief, _ := p.CreateBrief(kw.ID, "Pose de Velux : guide complet", "")

	draft, err := p.CreateDraft(brief.ID, "Pose de Velux : guide complet", "", "<p>contenu</p>")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if draft.Slug != "pose-de-velux-guide-complet" {
		t.Fatalf("unexpected slug %q", draft.Slug)
	}

	if _, err := p.CreateDraft(brief.ID, "Titre", "slug", " "); !lifecycle.IsKind(err, lifecycle.KindValidation) {
		t.Fatalf("expected validation error for empty body, got %v", err)
	}
}

func TestAbandonKeyword(t *testing.T) {
	p, st, site := newTestPipeline(t)
	kw, _ := p.AddKeyword(site.ID, "mot abandonne", 0, 0, 5)

	if err := p.AbandonKeyword(kw.ID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	got, _ := st.GetKeyword(kw.ID)
	if got.Status != store.KeywordAbandoned {
		t.Fatalf("expected abandoned, got %s", got.Status)
	}

	// Abandoned keywords are skipped by the claim query.
	if claimed, _ := p.ClaimNextKeyword(site.ID); claimed != nil {
		t.Fatalf("expected empty backlog, got %+v", claimed)
	}
}
