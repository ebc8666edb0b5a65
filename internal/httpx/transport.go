package httpx

import (
	"fmt"
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that consults a Breaker before each
// request and feeds the outcome back. Failures are transport errors and
// responses that indicate the host itself is unhealthy (5xx, 429).
// Other 4xx responses are the caller's problem and leave the circuit
// alone.
type Transport struct {
	// Base performs the actual request. Nil means http.DefaultTransport.
	Base http.RoundTripper
	// Breaker tracks per-host health. Nil disables breaking.
	Breaker *Breaker
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Host

	if err := t.Breaker.Allow(host); err != nil {
		return nil, fmt.Errorf("%s: %w", host, err)
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		t.Breaker.RecordFailure(host)
		return nil, err
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		t.Breaker.RecordFailure(host)
	} else {
		t.Breaker.RecordSuccess(host)
	}
	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// NewClient builds an http.Client whose requests pass through a breaker
// with default configuration.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &Transport{Breaker: NewBreaker(DefaultBreakerConfig())},
	}
}
