package lifecycle

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so callers can react without string
// matching: retry, surface to the validator, or treat as expected flow control.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindState              Kind = "state_error"
	KindSimilarityRejected Kind = "similarity_rejected"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindKillSwitchActive   Kind = "kill_switch_active"
	KindPublicationFailure Kind = "publication_failure"
)

// Error is a typed pipeline failure.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// KindOf returns the failure kind, or "" for untyped errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Validation builds a ValidationError: malformed input the caller can fix.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// State builds a StateError: an illegal transition, usually a caller race.
func State(format string, args ...any) error {
	return &Error{Kind: KindState, msg: fmt.Sprintf(format, args...)}
}

// SimilarityRejected builds the business-rule failure raised when a draft is
// too close to prior publications.
func SimilarityRejected(score, threshold float64) error {
	return &Error{
		Kind: KindSimilarityRejected,
		msg:  fmt.Sprintf("similarity %.4f exceeds threshold %.4f", score, threshold),
	}
}

// QuotaExceeded builds the temporary failure raised at the daily cap.
func QuotaExceeded(siteID int64, count, limit int) error {
	return &Error{
		Kind: KindQuotaExceeded,
		msg:  fmt.Sprintf("site %d already published %d/%d today", siteID, count, limit),
	}
}

// KillSwitchActive builds the expected flow-control failure raised while the
// global pause is on.
func KillSwitchActive(reason string) error {
	return &Error{Kind: KindKillSwitchActive, msg: "kill switch active: " + reason}
}

// PublicationFailure wraps an external site-write failure eligible for retry.
func PublicationFailure(err error) error {
	return &Error{Kind: KindPublicationFailure, msg: "site write failed", err: err}
}
