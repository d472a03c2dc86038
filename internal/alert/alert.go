// Package alert appends audit alerts to the store and fans them out to
// external notification sinks. The table is append-only; retention is an
// external log-rotation concern.
package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/seoforge/seoforge/internal/store"
)

// Notifier delivers one alert to an external collaborator. Delivery is
// best-effort: the store row is the source of truth.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a *store.AlertRecord) error
}

// Service is the alert/audit log facade.
type Service struct {
	store *store.Store
	sinks []Notifier
}

// NewService wires the alert log with zero or more outbound sinks.
func NewService(st *store.Store, sinks ...Notifier) *Service {
	return &Service{store: st, sinks: sinks}
}

// Raise appends an alert and notifies every sink. Sink failures are logged,
// never returned; the alert row is already durable at that point.
func (s *Service) Raise(ctx context.Context, siteID int64, typ store.AlertType, severity store.AlertSeverity, message string) (*store.AlertRecord, error) {
	rec, err := s.store.InsertAlert(siteID, typ, severity, message)
	if err != nil {
		return nil, err
	}
	slog.Info("Alert raised", "type", typ, "severity", severity, "site", siteID, "message", message)

	for _, sink := range s.sinks {
		if err := sink.Notify(ctx, rec); err != nil {
			slog.Warn("Alert sink delivery failed", "sink", sink.Name(), "alert", rec.ID, "error", err)
		}
	}
	return rec, nil
}

// Resolve marks an alert handled.
func (s *Service) Resolve(id int64, now time.Time) error {
	return s.store.ResolveAlert(id, now)
}

// List returns recent alerts, newest first.
func (s *Service) List(unresolvedOnly bool, limit int) ([]*store.AlertRecord, error) {
	return s.store.ListAlerts(unresolvedOnly, limit)
}
