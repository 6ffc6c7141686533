package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfSurvivesWrapping(t *testing.T) {
	base := New(KindNetwork, "server unreachable")
	wrapped := fmt.Errorf("sync cycle: %w", base)

	if KindOf(wrapped) != KindNetwork {
		t.Errorf("Expected NETWORK_FAILURE through the chain, got %s", KindOf(wrapped))
	}
	if !IsKind(wrapped, KindNetwork) {
		t.Error("IsKind should match through wrapping")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Errorf("Plain errors classify as UNKNOWN_FAILURE, got %s", KindOf(errors.New("plain")))
	}
}

func TestClassifyTransport(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{errors.New("dial tcp 10.0.0.1:443: connect: connection refused"), KindNetwork},
		{errors.New("context deadline exceeded (Client.Timeout exceeded)"), KindNetwork},
		{errors.New("read tcp: connection reset by peer"), KindNetwork},
		{errors.New("something else entirely"), KindUnknown},
	}
	for _, tc := range cases {
		got := ClassifyTransport(tc.err)
		if got.Kind != tc.want {
			t.Errorf("ClassifyTransport(%q) = %s, want %s", tc.err, got.Kind, tc.want)
		}
	}

	// Already-classified errors pass through untouched.
	pre := New(KindServer, "rejected")
	if got := ClassifyTransport(fmt.Errorf("outer: %w", pre)); got.Kind != KindServer {
		t.Errorf("Expected pre-classified kind to survive, got %s", got.Kind)
	}
}

func TestInvalidTransitionDetection(t *testing.T) {
	err := InvalidTransition("send_to_supplier", 2)
	if !IsInvalidTransition(err) {
		t.Error("Expected transition error to be detected")
	}
	if KindOf(err) != KindValidation {
		t.Errorf("Transition errors are VALIDATION_FAILURE, got %s", KindOf(err))
	}
	if IsInvalidTransition(New(KindValidation, "role salesman may not send_to_supplier")) {
		t.Error("Role rejections are not transition errors")
	}
}
