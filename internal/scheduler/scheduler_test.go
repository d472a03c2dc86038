package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/seoforge/seoforge/internal/alert"
	"github.com/seoforge/seoforge/internal/config"
	"github.com/seoforge/seoforge/internal/lifecycle"
	"github.com/seoforge/seoforge/internal/safety"
	"github.com/seoforge/seoforge/internal/store"
)

// fakePublisher satisfies publish.SitePublisher without touching a network.
type fakePublisher struct {
	calls int
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, site *store.SiteRecord, draft *store.DraftRecord) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "https://" + site.Domain + "/blog/" + draft.Slug, nil
}

type fixture struct {
	sched  *Scheduler
	store  *store.Store
	pub    *fakePublisher
	safety *safety.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "seoforge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	loader, err := config.NewLoader(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	alerts := alert.NewService(st)
	sf := safety.NewManager(st, loader, alerts)
	pub := &fakePublisher{}
	return &fixture{
		sched:  New(st, sf, pub, loader, alerts),
		store:  st,
		pub:    pub,
		safety: sf,
	}
}

// noon is a fixed decision instant so day-boundary math stays deterministic.
var noon = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

// approvedDraft seeds a draft approved at the given instant.
func approvedDraft(f *fixture, t *testing.T, siteID int64, slug string, approvedAt time.Time) *store.DraftRecord {
	t.Helper()
	kw, err := f.store.AddKeyword(siteID, "kw "+slug, 100, 10, 3)
	if err != nil {
		t.Fatalf("add keyword: %v", err)
	}
	brief, _ := f.store.CreateBrief(siteID, kw.ID, "Titre "+slug, "")
	draft, err := f.store.CreateDraft(brief.ID, "Titre "+slug, slug, "<p>contenu "+slug+"</p>")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := f.store.TransitionDraft(draft.ID, store.DraftStatusDraft, store.DraftStatusReview); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := f.store.ApproveDraft(draft.ID, "marie", 0.1, approvedAt); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, _ := f.store.GetDraft(draft.ID)
	return got
}

func newSite(f *fixture, t *testing.T, domain string) *store.SiteRecord {
	t.Helper()
	site, err := f.store.CreateSite(domain, domain, "/var/www/html", "")
	if err != nil {
		t.Fatalf("create site: %v", err)
	}
	return site
}

func TestRunCycleRespectsMinimumDelay(t *testing.T) {
	f := newFixture(t)
	site := newSite(f, t, "delay.example")
	aged := approvedDraft(f, t, site.ID, "article-age", noon.Add(-25*time.Hour))
	fresh := approvedDraft(f, t, site.ID, "article-frais", noon.Add(-time.Hour))

	report, err := f.sched.RunCycle(context.Background(), noon)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if len(report.Published) != 1 || report.Published[0].DraftID != aged.ID {
		t.Fatalf("expected only the aged draft, got %+v", report.Published)
	}
	if f.pub.calls != 1 {
		t.Fatalf("expected one site write, got %d", f.pub.calls)
	}

	got, _ := f.store.GetDraft(fresh.ID)
	if got.Status != store.DraftStatusApproved {
		t.Fatalf("fresh draft must stay approved, got %s", got.Status)
	}
}

func TestRunCycleAppliesDailyCapPerSite(t *testing.T) {
	f := newFixture(t)
	site := newSite(f, t, "cap.example")
	_ = f.store.SetState(store.StateMaxPublicationsDay, "1")
	first := approvedDraft(f, t, site.ID, "premier", noon.Add(-26*time.Hour))
	second := approvedDraft(f, t, site.ID, "second", noon.Add(-25*time.Hour))

	report, err := f.sched.RunCycle(context.Background(), noon)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if len(report.Published) != 1 {
		t.Fatalf("expected one publication, got %d", len(report.Published))
	}
	if _, skipped := report.Skipped[second.DraftUID]; !skipped {
		t.Fatalf("expected %s to be deferred, skipped=%v", second.DraftUID, report.Skipped)
	}

	got, _ := f.store.GetDraft(first.ID)
	if got.Status != store.DraftStatusPublished {
		t.Fatalf("expected first draft published, got %s", got.Status)
	}
	got, _ = f.store.GetDraft(second.ID)
	if got.Status != store.DraftStatusApproved {
		t.Fatalf("deferred draft must stay approved, got %s", got.Status)
	}
}

func TestRunCycleStopsWhenKillSwitchActive(t *testing.T) {
	f := newFixture(t)
	site := newSite(f, t, "stop.example")
	approvedDraft(f, t, site.ID, "bloque", noon.Add(-25*time.Hour))

	if _, err := f.safety.ActivateManual(context.Background(), "incident", nil, noon.Add(-time.Hour)); err != nil {
		t.Fatalf("activate: %v", err)
	}

	report, err := f.sched.RunCycle(context.Background(), noon)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.KillSwitch == nil {
		t.Fatal("expected kill switch in report")
	}
	if len(report.Published) != 0 || f.pub.calls != 0 {
		t.Fatalf("expected no writes, got %d published %d calls", len(report.Published), f.pub.calls)
	}
}

func TestDeactivatedSiteIsSkipped(t *testing.T) {
	f := newFixture(t)
	site := newSite(f, t, "ferme.example")
	draft := approvedDraft(f, t, site.ID, "en-attente", noon.Add(-25*time.Hour))
	if err := f.store.SetSiteActive(site.ID, false); err != nil {
		t.Fatalf("deactivate site: %v", err)
	}

	report, err := f.sched.RunCycle(context.Background(), noon)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if len(report.Published) != 0 || f.pub.calls != 0 {
		t.Fatalf("expected no writes for a deactivated site, got %d published %d calls",
			len(report.Published), f.pub.calls)
	}
	if _, skipped := report.Skipped[draft.DraftUID]; !skipped {
		t.Fatalf("expected %s to be deferred, skipped=%v", draft.DraftUID, report.Skipped)
	}

	// Direct publish is refused the same way, and the draft stays queued.
	if _, err := f.sched.Publish(context.Background(), draft.ID, noon); !lifecycle.IsKind(err, lifecycle.KindState) {
		t.Fatalf("expected state error, got %v", err)
	}
	got, _ := f.store.GetDraft(draft.ID)
	if got.Status != store.DraftStatusApproved {
		t.Fatalf("draft must stay approved, got %s", got.Status)
	}

	// Re-activating the site releases the draft on the next pass.
	if err := f.store.SetSiteActive(site.ID, true); err != nil {
		t.Fatalf("reactivate site: %v", err)
	}
	report, err = f.sched.RunCycle(context.Background(), noon.Add(time.Minute))
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if len(report.Published) != 1 {
		t.Fatalf("expected publication after reactivation, got %+v", report)
	}
}

func TestPublishIsIdempotent(t *testing.T) {
	f := newFixture(t)
	site := newSite(f, t, "idem.example")
	draft := approvedDraft(f, t, site.ID, "unique", noon.Add(-25*time.Hour))

	first, err := f.sched.Publish(context.Background(), draft.ID, noon)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	second, err := f.sched.Publish(context.Background(), draft.ID, noon.Add(time.Minute))
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected existing publication %d, got %d", first.ID, second.ID)
	}
	if f.pub.calls != 1 {
		t.Fatalf("expected one site write, got %d", f.pub.calls)
	}
}

func TestPublishRejectsUnapprovedDraft(t *testing.T) {
	f := newFixture(t)
	site := newSite(f, t, "raw.example")
	kw, _ := f.store.AddKeyword(site.ID, "kw", 0, 0, 3)
	brief, _ := f.store.CreateBrief(site.ID, kw.ID, "Titre", "")
	draft, err := f.store.CreateDraft(brief.ID, "Titre", "titre", "<p>x</p>")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	_, err = f.sched.Publish(context.Background(), draft.ID, noon)
	if !lifecycle.IsKind(err, lifecycle.KindState) {
		t.Fatalf("expected state error, got %v", err)
	}
}

func TestPublishBeforeDelayIsStateError(t *testing.T) {
	f := newFixture(t)
	site := newSite(f, t, "tot.example")
	draft := approvedDraft(f, t, site.ID, "trop-tot", noon.Add(-time.Hour))

	_, err := f.sched.Publish(context.Background(), draft.ID, noon)
	if !lifecycle.IsKind(err, lifecycle.KindState) {
		t.Fatalf("expected state error, got %v", err)
	}
}

func TestPublishQuotaExceededOnCapReached(t *testing.T) {
	f := newFixture(t)
	site := newSite(f, t, "quota.example")
	_ = f.store.SetState(store.StateMaxPublicationsDay, "1")
	first := approvedDraft(f, t, site.ID, "premier", noon.Add(-26*time.Hour))
	second := approvedDraft(f, t, site.ID, "second", noon.Add(-25*time.Hour))

	if _, err := f.sched.Publish(context.Background(), first.ID, noon); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	_, err := f.sched.Publish(context.Background(), second.ID, noon.Add(time.Minute))
	if !lifecycle.IsKind(err, lifecycle.KindQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestWriteFailureRecordsAttemptAndEscalates(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("ssh: connection refused")
	site := newSite(f, t, "panne.example")
	draft := approvedDraft(f, t, site.ID, "fragile", noon.Add(-25*time.Hour))

	// Default tolerance is three attempts before the failure escalates.
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := f.sched.Publish(context.Background(), draft.ID, noon.Add(time.Duration(attempt)*time.Minute))
		if !lifecycle.IsKind(err, lifecycle.KindPublicationFailure) {
			t.Fatalf("attempt %d: expected publication failure, got %v", attempt, err)
		}
	}

	got, _ := f.store.GetDraft(draft.ID)
	if got.Status != store.DraftStatusApproved {
		t.Fatalf("failed draft must stay approved, got %s", got.Status)
	}
	if got.PublishAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", got.PublishAttempts)
	}

	alerts, _ := f.store.ListAlerts(true, 10)
	if len(alerts) != 1 || alerts[0].Severity != store.SeverityCritical {
		t.Fatalf("expected one critical alert, got %+v", alerts)
	}

	for _, a := range alerts {
		if a.Type != store.AlertErrorRate {
			t.Fatalf("expected error_rate alert, got %s", a.Type)
		}
	}

	pubs := publicationCount(t, f.store, draft.ID)
	if pubs != 3 {
		t.Fatalf("expected 3 failure rows, got %d", pubs)
	}
}

func publicationCount(t *testing.T, st *store.Store, draftID int64) int {
	t.Helper()
	n := 0
	for id := int64(1); ; id++ {
		pub, err := st.GetPublication(id)
		if err != nil {
			break
		}
		if pub.DraftID == draftID {
			n++
		}
	}
	return n
}

func TestRunCycleReportIsJSONFriendly(t *testing.T) {
	f := newFixture(t)
	report, err := f.sched.RunCycle(context.Background(), noon)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if report.Skipped == nil || report.Failed == nil {
		t.Fatal("report maps must be allocated")
	}
	if got := fmt.Sprintf("%d", len(report.Published)); got != "0" {
		t.Fatalf("expected empty cycle, got %s published", got)
	}
}
