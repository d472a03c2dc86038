package similarity

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/seoforge/seoforge/internal/store"
)

func newGuardFixture(t *testing.T) (*Guard, *store.Store, *store.DraftRecord) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "seoforge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	site, err := st.CreateSite("guard", "guard.example", "/var/www/html", "")
	if err != nil {
		t.Fatalf("create site: %v", err)
	}
	kw, _ := st.AddKeyword(site.ID, "terrasse bois", 200, 25, 2)
	brief, _ := st.CreateBrief(site.ID, kw.ID, "Terrasse bois", "")
	draft, err := st.CreateDraft(brief.ID, "Terrasse bois", "terrasse-bois",
		"pose terrasse bois composite lames fixation")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	return NewGuard(st, nil), st, draft
}

func publishArticle(t *testing.T, st *store.Store, siteID int64, keyword, slug, body string) {
	t.Helper()
	kw, err := st.AddKeyword(siteID, keyword, 100, 10, 3)
	if err != nil {
		t.Fatalf("add keyword: %v", err)
	}
	brief, _ := st.CreateBrief(siteID, kw.ID, keyword, "")
	draft, err := st.CreateDraft(brief.ID, keyword, slug, body)
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	now := time.Now().UTC()
	_, _ = st.TransitionDraft(draft.ID, store.DraftStatusDraft, store.DraftStatusReview)
	_, _ = st.ApproveDraft(draft.ID, "marie", 0, now)
	if _, err := st.RecordPublished(draft.ID, "https://guard.example/blog/"+slug, now); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestEvaluateEmptyCorpusScoresZero(t *testing.T) {
	g, st, draft := newGuardFixture(t)

	score, err := g.Evaluate(draft)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if score != 0 {
		t.Fatalf("expected 0 for empty corpus, got %f", score)
	}
	records, _ := st.SimilarityRecordsForDraft(draft.ID)
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestEvaluateReturnsMaxAndPersistsAll(t *testing.T) {
	g, st, draft := newGuardFixture(t)
	publishArticle(t, st, draft.SiteID, "terrasse composite", "terrasse-composite",
		"pose terrasse bois composite lames fixation")
	publishArticle(t, st, draft.SiteID, "cloture jardin", "cloture-jardin",
		"installation cloture grillage rigide portail")

	score, err := g.Evaluate(draft)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if score < 0.9 {
		t.Fatalf("expected near-duplicate to dominate, got %f", score)
	}

	records, err := st.SimilarityRecordsForDraft(draft.ID)
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected one record per publication, got %d", len(records))
	}
}
