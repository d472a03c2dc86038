// Package safety owns the kill switch: the global publication pause that can
// be thrown manually by an operator or automatically when a safety rule trips.
package safety

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seoforge/seoforge/internal/alert"
	"github.com/seoforge/seoforge/internal/config"
	"github.com/seoforge/seoforge/internal/store"
)

// Manager evaluates and mutates the kill-switch state. All reads go to the
// single authoritative store row; nothing is cached across scheduling cycles.
type Manager struct {
	store  *store.Store
	loader *config.Loader
	alerts *alert.Service
}

// NewManager wires the safety governor.
func NewManager(st *store.Store, loader *config.Loader, alerts *alert.Service) *Manager {
	return &Manager{store: st, loader: loader, alerts: alerts}
}

// Active reports whether the kill switch blocks publication at the given
// instant. An activation whose pause window has elapsed is deactivated here,
// on read, so a restarted process resumes exactly like a long-running one.
func (m *Manager) Active(now time.Time) (bool, *store.KillSwitchRecord, error) {
	ks, err := m.store.ActiveKillSwitch()
	if err != nil {
		return false, nil, err
	}
	if ks == nil {
		return false, nil, nil
	}
	if ks.PauseUntil != nil && now.After(*ks.PauseUntil) {
		if err := m.store.DeactivateKillSwitch(ks.ID, now); err != nil {
			return true, ks, fmt.Errorf("expire kill switch %d: %w", ks.ID, err)
		}
		slog.Info("Kill switch pause expired", "id", ks.ID, "rule", ks.TriggerRule, "pause_until", ks.PauseUntil)
		return false, nil, nil
	}
	return true, ks, nil
}

// ActivateManual throws the switch on operator request. until is optional;
// without it the pause holds until an explicit resume.
func (m *Manager) ActivateManual(ctx context.Context, reason string, until *time.Time, now time.Time) (*store.KillSwitchRecord, error) {
	if active, ks, err := m.Active(now); err != nil {
		return nil, err
	} else if active {
		return ks, nil
	}
	ks, err := m.store.ActivateKillSwitch(store.TriggerManual, "", reason, until, now)
	if err != nil {
		// A concurrent caller won the unique-index race; their activation stands.
		if existing, readErr := m.store.ActiveKillSwitch(); readErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	slog.Warn("Kill switch activated manually", "reason", reason, "until", until)
	_, _ = m.alerts.Raise(ctx, 0, store.AlertKillSwitch, store.SeverityWarning,
		"kill switch activated manually: "+reason)
	return ks, nil
}

// Deactivate resumes publication. Safe to call when already inactive.
func (m *Manager) Deactivate(ctx context.Context, now time.Time) error {
	ks, err := m.store.ActiveKillSwitch()
	if err != nil {
		return err
	}
	if ks == nil {
		return nil
	}
	if err := m.store.DeactivateKillSwitch(ks.ID, now); err != nil {
		return err
	}
	slog.Info("Kill switch deactivated", "id", ks.ID)
	_, _ = m.alerts.Raise(ctx, 0, store.AlertKillSwitch, store.SeverityInfo, "kill switch deactivated")
	return nil
}

// RunChecks evaluates the automatic rules against a single wall-clock read
// and activates the switch on the first violation. Returns the activation,
// or nil when every rule passed. Already-active switches short-circuit.
func (m *Manager) RunChecks(ctx context.Context, now time.Time) (*store.KillSwitchRecord, error) {
	if active, ks, err := m.Active(now); err != nil {
		return nil, err
	} else if active {
		return ks, nil
	}

	limits := m.loader.Current().Limits
	dayAgo := now.Add(-24 * time.Hour)

	maxPub, err := m.store.IntState(store.StateMaxPublicationsDay, limits.MaxPublicationsPerDay)
	if err != nil {
		return nil, err
	}
	pubCount, err := m.store.CountPublishedAllSites(dayAgo, now.Add(time.Nanosecond))
	if err != nil {
		return nil, err
	}
	if pubCount >= maxPub {
		return m.activateAuto(ctx, store.RuleMaxPublications,
			fmt.Sprintf("publication cap reached: %d/%d in 24h", pubCount, maxPub), now)
	}

	threshold, err := m.store.FloatState(store.StateSimilarityThreshold, limits.MaxSimilarityThreshold)
	if err != nil {
		return nil, err
	}
	avgSim, err := m.store.AverageSimilaritySince(dayAgo)
	if err != nil {
		return nil, err
	}
	if avgSim > threshold {
		return m.activateAuto(ctx, store.RuleSimilarity,
			fmt.Sprintf("average similarity too high: %.2f > %.2f", avgSim, threshold), now)
	}

	maxErrors, err := m.store.IntState(store.StateMaxErrors, limits.MaxErrorsBeforePause)
	if err != nil {
		return nil, err
	}
	failedRuns, err := m.store.FailedRunCountSince(dayAgo)
	if err != nil {
		return nil, err
	}
	if failedRuns > maxErrors {
		return m.activateAuto(ctx, store.RuleMaxErrors,
			fmt.Sprintf("too many failed agent runs: %d/%d in 24h", failedRuns, maxErrors), now)
	}

	return nil, nil
}

func (m *Manager) activateAuto(ctx context.Context, rule, reason string, now time.Time) (*store.KillSwitchRecord, error) {
	limits := m.loader.Current().Limits
	pauseHours, err := m.store.IntState(store.StatePauseDurationHours, limits.PauseDurationHours)
	if err != nil {
		return nil, err
	}
	pauseUntil := now.Add(time.Duration(pauseHours) * time.Hour)

	ks, err := m.store.ActivateKillSwitch(store.TriggerAuto, rule, reason, &pauseUntil, now)
	if err != nil {
		if existing, readErr := m.store.ActiveKillSwitch(); readErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("auto-activate kill switch (%s): %w", rule, err)
	}
	slog.Error("Kill switch activated automatically", "rule", rule, "reason", reason, "pause_until", pauseUntil)
	_, _ = m.alerts.Raise(ctx, 0, store.AlertKillSwitch, store.SeverityCritical,
		fmt.Sprintf("kill switch activated (%s): %s", rule, reason))
	return ks, nil
}
