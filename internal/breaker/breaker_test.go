// Copyright 2025 James Ross
package breaker

import (
	"testing"
	"time"
)

func TestGeneratorBreakerTransitions(t *testing.T) {
	b := NewGeneratorBreaker(2*time.Second, 200*time.Millisecond, 0.5, 2)
	if b.State() != Closed {
		t.Fatal("expected closed")
	}

	b.RecordResult(false)
	b.RecordResult(false)
	if b.State() != Open {
		t.Fatal("expected open after failure rate crosses threshold")
	}
	if b.AllowGenerate() {
		t.Fatal("should not allow a render until cooldown elapses")
	}

	time.Sleep(250 * time.Millisecond)
	if !b.AllowGenerate() {
		t.Fatal("should allow a probe render in half-open")
	}

	b.RecordResult(true)
	if b.State() != Closed {
		t.Fatal("expected closed after probe render succeeds")
	}
}

func TestGeneratorBreakerReopensOnFailedProbe(t *testing.T) {
	b := NewGeneratorBreaker(2*time.Second, 10*time.Millisecond, 0.5, 2)
	b.RecordResult(false)
	b.RecordResult(false)
	if b.State() != Open {
		t.Fatal("expected open")
	}

	time.Sleep(20 * time.Millisecond)
	if !b.AllowGenerate() {
		t.Fatal("expected probe render to be allowed")
	}

	b.RecordResult(false)
	if b.State() != Open {
		t.Fatal("expected reopen after failed probe render")
	}
}
