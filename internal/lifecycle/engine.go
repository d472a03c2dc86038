// Package lifecycle drives drafts through the approval state machine:
// draft -> review -> approved -> published, with rejected and archived as
// terminal exits. Every transition is a conditional update on the draft's
// current status, so concurrent callers get exactly one winner.
package lifecycle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/seoforge/seoforge/internal/alert"
	"github.com/seoforge/seoforge/internal/config"
	"github.com/seoforge/seoforge/internal/similarity"
	"github.com/seoforge/seoforge/internal/store"
)

// Engine applies draft transitions and the similarity gate.
type Engine struct {
	store  *store.Store
	guard  *similarity.Guard
	loader *config.Loader
	alerts *alert.Service
}

// NewEngine wires the state machine.
func NewEngine(st *store.Store, guard *similarity.Guard, loader *config.Loader, alerts *alert.Service) *Engine {
	return &Engine{store: st, guard: guard, loader: loader, alerts: alerts}
}

// Submit moves a draft into review. Title and body must be non-empty.
func (e *Engine) Submit(ctx context.Context, draftID int64) (*store.DraftRecord, error) {
	draft, err := e.store.GetDraft(draftID)
	if err != nil {
		return nil, Validation("draft %d: %v", draftID, err)
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, Validation("draft %d has an empty title", draftID)
	}
	if strings.TrimSpace(draft.Body) == "" {
		return nil, Validation("draft %d has an empty body", draftID)
	}

	ok, err := e.store.TransitionDraft(draftID, store.DraftStatusDraft, store.DraftStatusReview)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.stateError(ctx, draft, "submit", store.DraftStatusReview)
	}
	slog.Info("Draft submitted for review", "draft", draft.DraftUID, "site", draft.SiteID)
	return e.store.GetDraft(draftID)
}

// Approve runs the similarity gate and, when it passes, moves the draft from
// review to approved with the validator identity recorded. The decision uses
// one wall-clock read and one threshold read.
func (e *Engine) Approve(ctx context.Context, draftID int64, validator string) (*store.DraftRecord, error) {
	if strings.TrimSpace(validator) == "" {
		return nil, Validation("validator identity is required")
	}
	draft, err := e.store.GetDraft(draftID)
	if err != nil {
		return nil, Validation("draft %d: %v", draftID, err)
	}
	if draft.Status != store.DraftStatusReview {
		return nil, e.stateError(ctx, draft, "approve", store.DraftStatusApproved)
	}

	score, err := e.guard.Evaluate(draft)
	if err != nil {
		return nil, err
	}
	threshold, err := e.store.FloatState(store.StateSimilarityThreshold,
		e.loader.Current().Limits.MaxSimilarityThreshold)
	if err != nil {
		return nil, err
	}
	// The threshold is an exclusive upper bound: a score equal to it passes.
	if score > threshold {
		_, _ = e.alerts.Raise(ctx, draft.SiteID, store.AlertSimilarity, store.SeverityWarning,
			"draft "+draft.DraftUID+" rejected by similarity guard")
		slog.Warn("Similarity guard blocked approval",
			"draft", draft.DraftUID, "score", score, "threshold", threshold)
		return nil, SimilarityRejected(score, threshold)
	}

	now := time.Now().UTC()
	ok, err := e.store.ApproveDraft(draftID, validator, score, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.stateError(ctx, draft, "approve", store.DraftStatusApproved)
	}
	slog.Info("Draft approved", "draft", draft.DraftUID, "validator", validator, "similarity", score)
	return e.store.GetDraft(draftID)
}

// Reject terminates a draft in review with a stored reason.
func (e *Engine) Reject(ctx context.Context, draftID int64, reason string) (*store.DraftRecord, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, Validation("rejection reason is required")
	}
	draft, err := e.store.GetDraft(draftID)
	if err != nil {
		return nil, Validation("draft %d: %v", draftID, err)
	}

	ok, err := e.store.RejectDraft(draftID, reason, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.stateError(ctx, draft, "reject", store.DraftStatusRejected)
	}
	slog.Info("Draft rejected", "draft", draft.DraftUID, "reason", reason)
	return e.store.GetDraft(draftID)
}

// Archive retires an approved draft that was superseded before publication.
func (e *Engine) Archive(ctx context.Context, draftID int64) (*store.DraftRecord, error) {
	draft, err := e.store.GetDraft(draftID)
	if err != nil {
		return nil, Validation("draft %d: %v", draftID, err)
	}
	ok, err := e.store.TransitionDraft(draftID, store.DraftStatusApproved, store.DraftStatusArchived)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.stateError(ctx, draft, "archive", store.DraftStatusArchived)
	}
	slog.Info("Draft archived", "draft", draft.DraftUID)
	return e.store.GetDraft(draftID)
}

// stateError logs and alerts an illegal transition, then returns the typed
// error. Illegal transitions usually mean two callers raced; the loser's
// update was a no-op.
func (e *Engine) stateError(ctx context.Context, draft *store.DraftRecord, op string, want store.DraftStatus) error {
	current, err := e.store.GetDraft(draft.ID)
	status := draft.Status
	if err == nil {
		status = current.Status
	}
	_, _ = e.alerts.Raise(ctx, draft.SiteID, store.AlertErrorRate, store.SeverityWarning,
		"illegal "+op+" on draft "+draft.DraftUID+" in status "+string(status))
	return State("cannot %s draft %s: status is %s, not eligible for %s", op, draft.DraftUID, status, want)
}
