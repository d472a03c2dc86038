// Package scheduler releases approved drafts to their sites. It runs as a
// periodic decision pass, not a resident server: every cycle reads the clock
// once, re-checks the kill switch, and applies the minimum-delay and
// daily-cap rules before each site write.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seoforge/seoforge/internal/alert"
	"github.com/seoforge/seoforge/internal/config"
	"github.com/seoforge/seoforge/internal/lifecycle"
	"github.com/seoforge/seoforge/internal/publish"
	"github.com/seoforge/seoforge/internal/safety"
	"github.com/seoforge/seoforge/internal/store"
)

// Scheduler drives the publication side of the pipeline.
type Scheduler struct {
	store     *store.Store
	safety    *safety.Manager
	publisher publish.SitePublisher
	loader    *config.Loader
	alerts    *alert.Service
}

// New wires the publication scheduler.
func New(st *store.Store, sf *safety.Manager, pub publish.SitePublisher, loader *config.Loader, alerts *alert.Service) *Scheduler {
	return &Scheduler{store: st, safety: sf, publisher: pub, loader: loader, alerts: alerts}
}

// CycleReport summarizes one scheduling pass.
type CycleReport struct {
	StartedAt  time.Time                  `json:"started_at"`
	KillSwitch *store.KillSwitchRecord    `json:"kill_switch,omitempty"`
	Published  []*store.PublicationRecord `json:"published"`
	Skipped    map[string]string          `json:"skipped"` // draft uid -> reason
	Failed     map[string]string          `json:"failed"`  // draft uid -> error
}

// RunCycle performs one scheduling pass at the given instant. The kill-switch
// rules are evaluated first; an active (or newly triggered) switch stops the
// whole pass.
func (s *Scheduler) RunCycle(ctx context.Context, now time.Time) (*CycleReport, error) {
	report := &CycleReport{
		StartedAt: now,
		Skipped:   make(map[string]string),
		Failed:    make(map[string]string),
	}

	ks, err := s.safety.RunChecks(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("kill-switch checks: %w", err)
	}
	if ks != nil {
		report.KillSwitch = ks
		slog.Info("Scheduling cycle skipped: kill switch active",
			"rule", ks.TriggerRule, "pause_until", ks.PauseUntil)
		return report, nil
	}

	cfg := s.loader.Current()
	cutoff := now.Add(-cfg.MinPublishDelay())
	drafts, err := s.store.ListPublishableDrafts(cutoff)
	if err != nil {
		return nil, fmt.Errorf("list publishable drafts: %w", err)
	}
	if len(drafts) == 0 {
		return report, nil
	}

	for _, draft := range drafts {
		pub, err := s.publishOne(ctx, draft, now)
		switch {
		case err == nil:
			report.Published = append(report.Published, pub)
		case lifecycle.IsKind(err, lifecycle.KindKillSwitchActive):
			// The switch tripped mid-cycle; everything after it stays queued.
			report.Skipped[draft.DraftUID] = err.Error()
			slog.Info("Cycle stopped by kill switch", "draft", draft.DraftUID)
			return report, nil
		case lifecycle.IsKind(err, lifecycle.KindQuotaExceeded):
			report.Skipped[draft.DraftUID] = err.Error()
			slog.Info("Draft deferred", "draft", draft.DraftUID, "reason", "daily quota")
		case lifecycle.IsKind(err, lifecycle.KindState):
			report.Skipped[draft.DraftUID] = err.Error()
			slog.Info("Draft deferred", "draft", draft.DraftUID, "reason", err.Error())
		case lifecycle.IsKind(err, lifecycle.KindPublicationFailure):
			report.Failed[draft.DraftUID] = err.Error()
		default:
			report.Failed[draft.DraftUID] = err.Error()
		}
	}

	slog.Info("Scheduling cycle complete",
		"published", len(report.Published), "skipped", len(report.Skipped), "failed", len(report.Failed))
	return report, nil
}

// Publish releases one approved draft immediately, applying the same gates a
// scheduling cycle would. Re-publishing an already-published draft is a no-op
// returning the existing publication.
func (s *Scheduler) Publish(ctx context.Context, draftID int64, now time.Time) (*store.PublicationRecord, error) {
	draft, err := s.store.GetDraft(draftID)
	if err != nil {
		return nil, lifecycle.Validation("draft %d: %v", draftID, err)
	}
	if draft.Status == store.DraftStatusPublished {
		existing, err := s.store.PublishedPublicationForDraft(draftID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	if draft.Status != store.DraftStatusApproved {
		return nil, lifecycle.State("cannot publish draft %s: status is %s", draft.DraftUID, draft.Status)
	}
	if draft.ApprovedAt == nil || now.Sub(*draft.ApprovedAt) < s.loader.Current().MinPublishDelay() {
		return nil, lifecycle.State("draft %s has not aged past the minimum publish delay", draft.DraftUID)
	}
	return s.publishOne(ctx, draft, now)
}

// publishOne applies the kill-switch, quota and site-active gates, then
// performs the bounded site write and the atomic publication commit.
func (s *Scheduler) publishOne(ctx context.Context, draft *store.DraftRecord, now time.Time) (*store.PublicationRecord, error) {
	active, ks, err := s.safety.Active(now)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, lifecycle.KillSwitchActive(ks.Reason)
	}

	cfg := s.loader.Current()
	maxPerDay, err := s.store.IntState(store.StateMaxPublicationsDay, cfg.Limits.MaxPublicationsPerDay)
	if err != nil {
		return nil, err
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := s.store.CountPublishedBetween(draft.SiteID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	if count >= maxPerDay {
		return nil, lifecycle.QuotaExceeded(draft.SiteID, count, maxPerDay)
	}

	site, err := s.store.GetSite(draft.SiteID)
	if err != nil {
		return nil, err
	}
	if !site.Active {
		return nil, lifecycle.State("site %s is deactivated, draft %s stays queued", site.Domain, draft.DraftUID)
	}

	writeCtx, cancel := context.WithTimeout(ctx, cfg.PublishTimeout())
	url, writeErr := s.publisher.Publish(writeCtx, site, draft)
	cancel()
	if writeErr != nil {
		return nil, s.handleWriteFailure(ctx, draft, writeErr, now)
	}

	pub, err := s.store.RecordPublished(draft.ID, url, now)
	if err != nil {
		return nil, err
	}
	slog.Info("Draft published", "draft", draft.DraftUID, "site", site.Domain, "url", url)
	return pub, nil
}

// handleWriteFailure records the failed attempt. The draft stays approved and
// retries next cycle; after max attempts the failure escalates to a critical
// alert.
func (s *Scheduler) handleWriteFailure(ctx context.Context, draft *store.DraftRecord, writeErr error, now time.Time) error {
	if _, err := s.store.RecordPublicationFailure(draft.ID, writeErr.Error(), now); err != nil {
		slog.Error("Failed to record publication failure", "draft", draft.DraftUID, "error", err)
	}
	attempts, err := s.store.IncrementPublishAttempts(draft.ID)
	if err != nil {
		slog.Error("Failed to bump publish attempts", "draft", draft.DraftUID, "error", err)
	}

	maxAttempts := s.loader.Current().Limits.MaxPublishAttempts
	if attempts >= maxAttempts {
		_, _ = s.alerts.Raise(ctx, draft.SiteID, store.AlertErrorRate, store.SeverityCritical,
			fmt.Sprintf("draft %s failed to publish %d times: %v", draft.DraftUID, attempts, writeErr))
	} else {
		slog.Warn("Publication failed, will retry next cycle",
			"draft", draft.DraftUID, "attempt", attempts, "error", writeErr)
	}
	return lifecycle.PublicationFailure(writeErr)
}
