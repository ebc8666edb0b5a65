package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBreakerInitialState(t *testing.T) {
	b := NewBreaker(DefaultBreakerConfig())

	if got := b.CurrentState("api.example.com"); got != StateClosed {
		t.Errorf("initial state = %v, want closed", got)
	}
	if err := b.Allow("api.example.com"); err != nil {
		t.Errorf("Allow() in closed state returned %v", err)
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, RecoveryTimeout: 30 * time.Second})

	b.RecordFailure("api.example.com")
	b.RecordFailure("api.example.com")
	if got := b.CurrentState("api.example.com"); got != StateClosed {
		t.Errorf("state after 2 failures = %v, want closed", got)
	}

	b.RecordFailure("api.example.com")
	if got := b.CurrentState("api.example.com"); got != StateOpen {
		t.Errorf("state after 3 failures = %v, want open", got)
	}
	if err := b.Allow("api.example.com"); !errors.Is(err, ErrOpen) {
		t.Errorf("Allow() on open circuit = %v, want ErrOpen", err)
	}
}

func TestBreakerHostsAreIndependent(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 30 * time.Second})

	b.RecordFailure("api.example.com")
	if err := b.Allow("other.example.com"); err != nil {
		t.Errorf("unrelated host blocked: %v", err)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	b := NewBreaker(BreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  20 * time.Millisecond,
		HalfOpenProbes:   1,
	})

	b.RecordFailure("api.example.com")
	b.RecordFailure("api.example.com")
	if got := b.CurrentState("api.example.com"); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	time.Sleep(30 * time.Millisecond)
	if got := b.CurrentState("api.example.com"); got != StateHalfOpen {
		t.Fatalf("state after recovery timeout = %v, want half-open", got)
	}

	// First probe is allowed, a second is not.
	if err := b.Allow("api.example.com"); err != nil {
		t.Fatalf("probe rejected: %v", err)
	}
	if err := b.Allow("api.example.com"); !errors.Is(err, ErrOpen) {
		t.Errorf("second probe = %v, want ErrOpen", err)
	}

	b.RecordSuccess("api.example.com")
	if got := b.CurrentState("api.example.com"); got != StateClosed {
		t.Errorf("state after successful probe = %v, want closed", got)
	}
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  20 * time.Millisecond,
	})

	b.RecordFailure("api.example.com")
	time.Sleep(30 * time.Millisecond)

	if err := b.Allow("api.example.com"); err != nil {
		t.Fatalf("probe rejected: %v", err)
	}
	b.RecordFailure("api.example.com")

	if err := b.Allow("api.example.com"); !errors.Is(err, ErrOpen) {
		t.Errorf("Allow() after failed probe = %v, want ErrOpen", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, RecoveryTimeout: 30 * time.Second})

	b.RecordFailure("api.example.com")
	b.RecordSuccess("api.example.com")
	b.RecordFailure("api.example.com")

	if got := b.CurrentState("api.example.com"); got != StateClosed {
		t.Errorf("state = %v, want closed after interleaved success", got)
	}
}

func TestBreakerReset(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 30 * time.Second})

	b.RecordFailure("api.example.com")
	b.Reset("api.example.com")

	if err := b.Allow("api.example.com"); err != nil {
		t.Errorf("Allow() after reset = %v", err)
	}
}

func TestNilBreakerAllowsEverything(t *testing.T) {
	var b *Breaker

	if err := b.Allow("api.example.com"); err != nil {
		t.Errorf("nil breaker Allow() = %v", err)
	}
	b.RecordFailure("api.example.com")
	b.RecordSuccess("api.example.com")
	if got := b.CurrentState("api.example.com"); got != StateClosed {
		t.Errorf("nil breaker state = %v, want closed", got)
	}
}

func TestTransportTripsOnServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := &http.Client{Transport: &Transport{
		Breaker: NewBreaker(BreakerConfig{FailureThreshold: 2, RecoveryTimeout: 30 * time.Second}),
	}}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
	}

	_, err := client.Get(server.URL)
	if !errors.Is(err, ErrOpen) {
		t.Errorf("third request error = %v, want ErrOpen", err)
	}
}

func TestTransportIgnoresClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := &http.Client{Transport: &Transport{
		Breaker: NewBreaker(BreakerConfig{FailureThreshold: 1, RecoveryTimeout: 30 * time.Second}),
	}}

	for i := 0; i < 3; i++ {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request %d tripped the breaker: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	}
}
