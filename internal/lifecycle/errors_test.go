package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOfTypedErrors(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{Validation("missing title"), KindValidation},
		{State("wrong status"), KindState},
		{SimilarityRejected(0.82, 0.70), KindSimilarityRejected},
		{QuotaExceeded(3, 5, 5), KindQuotaExceeded},
		{KillSwitchActive("maintenance"), KindKillSwitchActive},
		{PublicationFailure(errors.New("ssh timeout")), KindPublicationFailure},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.kind {
			t.Errorf("KindOf(%v) = %s, want %s", c.err, got, c.kind)
		}
		if !IsKind(c.err, c.kind) {
			t.Errorf("IsKind(%v, %s) = false", c.err, c.kind)
		}
	}
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("cycle aborted: %w", KillSwitchActive("incident"))
	if !IsKind(err, KindKillSwitchActive) {
		t.Fatalf("wrapped kind lost: %v", err)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("untyped error must have empty kind")
	}
}

func TestPublicationFailureUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := PublicationFailure(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable via errors.Is: %v", err)
	}
}

func TestErrorMessagesCarryContext(t *testing.T) {
	err := SimilarityRejected(0.82, 0.70)
	for _, want := range []string{"0.82", "0.70"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("message %q missing %q", err.Error(), want)
		}
	}
	err = QuotaExceeded(3, 5, 5)
	if !strings.Contains(err.Error(), "5") {
		t.Errorf("message %q missing limit", err.Error())
	}
}
