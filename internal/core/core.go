// Package core assembles the pipeline and exposes the trigger surface that
// external automation agents call. Every operation returns a structured
// Result; nothing escapes as a panic or an untyped error.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/seoforge/seoforge/internal/alert"
	"github.com/seoforge/seoforge/internal/config"
	"github.com/seoforge/seoforge/internal/lifecycle"
	"github.com/seoforge/seoforge/internal/pipeline"
	"github.com/seoforge/seoforge/internal/publish"
	"github.com/seoforge/seoforge/internal/safety"
	"github.com/seoforge/seoforge/internal/scheduler"
	"github.com/seoforge/seoforge/internal/similarity"
	"github.com/seoforge/seoforge/internal/store"
)

// Core owns the assembled subsystems.
type Core struct {
	Store    *store.Store
	Loader   *config.Loader
	Alerts   *alert.Service
	Safety   *safety.Manager
	Engine   *lifecycle.Engine
	Sched    *scheduler.Scheduler
	Pipeline *pipeline.Pipeline
}

// Option overrides a default collaborator, mainly for tests.
type Option func(*options)

type options struct {
	publisher publish.SitePublisher
	scorer    similarity.Scorer
}

// WithPublisher swaps the site-publishing collaborator.
func WithPublisher(p publish.SitePublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithScorer swaps the similarity scorer.
func WithScorer(s similarity.Scorer) Option {
	return func(o *options) { o.scorer = s }
}

// New opens the store, seeds system state from configuration, and wires
// every subsystem.
func New(loader *config.Loader, opts ...Option) (*Core, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := loader.Current()
	st, err := store.Open(cfg.Paths.DBPath)
	if err != nil {
		return nil, err
	}
	if err := st.SeedDefaults(map[string]string{
		store.StateKillSwitchActive:    "false",
		store.StateMaxPublicationsDay:  strconv.Itoa(cfg.Limits.MaxPublicationsPerDay),
		store.StateSimilarityThreshold: strconv.FormatFloat(cfg.Limits.MaxSimilarityThreshold, 'f', -1, 64),
		store.StateMaxErrors:           strconv.Itoa(cfg.Limits.MaxErrorsBeforePause),
		store.StatePauseDurationHours:  strconv.Itoa(cfg.Limits.PauseDurationHours),
	}); err != nil {
		st.Close()
		return nil, err
	}

	var sinks []alert.Notifier
	if s := alert.NewSlackSink(cfg.Alerts.SlackWebhookURL, cfg.Alerts.SlackChannel); s != nil {
		sinks = append(sinks, s)
	}
	if k := alert.NewKafkaSink(cfg.Alerts.KafkaBrokers, cfg.Alerts.KafkaTopic); k != nil {
		sinks = append(sinks, k)
	}
	alerts := alert.NewService(st, sinks...)

	guard := similarity.NewGuard(st, o.scorer)
	sf := safety.NewManager(st, loader, alerts)
	engine := lifecycle.NewEngine(st, guard, loader, alerts)

	publisher := o.publisher
	if publisher == nil {
		publisher = publish.NewHTTPPublisher(cfg.Publish.EndpointURL, cfg.Publish.AuthToken, cfg.PublishTimeout())
	}
	sched := scheduler.New(st, sf, publisher, loader, alerts)

	return &Core{
		Store:    st,
		Loader:   loader,
		Alerts:   alerts,
		Safety:   sf,
		Engine:   engine,
		Sched:    sched,
		Pipeline: pipeline.New(st),
	}, nil
}

// Close releases the store.
func (c *Core) Close() error {
	return c.Store.Close()
}

// Result is the uniform envelope returned to callers of the trigger surface.
type Result struct {
	OK        bool   `json:"ok"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func result(data any, err error) Result {
	if err != nil {
		kind := lifecycle.KindOf(err)
		if kind == "" {
			kind = "internal_error"
		}
		return Result{OK: false, ErrorKind: string(kind), Error: err.Error()}
	}
	return Result{OK: true, Data: data}
}

// SubmitDraft moves a draft into review.
func (c *Core) SubmitDraft(ctx context.Context, draftID int64) Result {
	draft, err := c.Engine.Submit(ctx, draftID)
	return result(draft, err)
}

// Approve runs the similarity gate and approves a draft.
func (c *Core) Approve(ctx context.Context, draftID int64, validator string) Result {
	draft, err := c.Engine.Approve(ctx, draftID, validator)
	return result(draft, err)
}

// Reject turns a draft down with a reason.
func (c *Core) Reject(ctx context.Context, draftID int64, reason string) Result {
	draft, err := c.Engine.Reject(ctx, draftID, reason)
	return result(draft, err)
}

// RunSchedulingCycle performs one publication pass against the current clock.
func (c *Core) RunSchedulingCycle(ctx context.Context) Result {
	report, err := c.Sched.RunCycle(ctx, time.Now().UTC())
	return result(report, err)
}

// PublishDraft releases one draft immediately, subject to every gate.
func (c *Core) PublishDraft(ctx context.Context, draftID int64) Result {
	pub, err := c.Sched.Publish(ctx, draftID, time.Now().UTC())
	return result(pub, err)
}

// ActivateKillSwitch pauses all publication activity.
func (c *Core) ActivateKillSwitch(ctx context.Context, reason string, until *time.Time) Result {
	ks, err := c.Safety.ActivateManual(ctx, reason, until, time.Now().UTC())
	return result(ks, err)
}

// DeactivateKillSwitch resumes publication activity.
func (c *Core) DeactivateKillSwitch(ctx context.Context) Result {
	err := c.Safety.Deactivate(ctx, time.Now().UTC())
	return result("deactivated", err)
}

// SystemStatus is the operator-facing health snapshot.
type SystemStatus struct {
	KillSwitchActive bool                    `json:"kill_switch_active"`
	KillSwitch       *store.KillSwitchRecord `json:"kill_switch,omitempty"`
	PendingReview    int                     `json:"pending_review"`
	Approved         int                     `json:"approved"`
	PublishedToday   int                     `json:"published_today"`
	OpenAlerts       int                     `json:"open_alerts"`
}

// Status reports kill-switch state and pipeline counts.
func (c *Core) Status(ctx context.Context) Result {
	now := time.Now().UTC()
	active, ks, err := c.Safety.Active(now)
	if err != nil {
		return result(nil, err)
	}

	status := SystemStatus{KillSwitchActive: active, KillSwitch: ks}
	if drafts, err := c.Store.ListDrafts(0, store.DraftStatusReview); err == nil {
		status.PendingReview = len(drafts)
	}
	if drafts, err := c.Store.ListDrafts(0, store.DraftStatusApproved); err == nil {
		status.Approved = len(drafts)
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if n, err := c.Store.CountPublishedAllSites(dayStart, dayStart.Add(24*time.Hour)); err == nil {
		status.PublishedToday = n
	}
	if alerts, err := c.Store.ListAlerts(true, 1000); err == nil {
		status.OpenAlerts = len(alerts)
	}
	return result(status, nil)
}

// RunAgent records an agent run around fn, feeding the kill-switch error
// window on failure.
func (c *Core) RunAgent(ctx context.Context, agentName, taskType string, siteID int64, fn func(ctx context.Context) error) Result {
	runID, err := c.Store.StartAgentRun(agentName, taskType, siteID)
	if err != nil {
		return result(nil, err)
	}
	if err := fn(ctx); err != nil {
		_ = c.Store.CompleteAgentRun(runID, store.RunFailed, err.Error())
		slog.Warn("Agent run failed", "agent", agentName, "run", runID, "error", err)
		return result(nil, fmt.Errorf("agent %s run %d: %w", agentName, runID, err))
	}
	if err := c.Store.CompleteAgentRun(runID, store.RunSuccess, ""); err != nil {
		return result(nil, err)
	}
	return result(runID, nil)
}
