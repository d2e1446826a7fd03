// Package breaker wraps an HTTP doer with a circuit breaker so repeated
// server failures stop hammering the remote instead of burning retries.
package breaker

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mixtli/fetchr/internal/utils"
)

type Config struct {
	Name                string
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	MinRequests         uint32
	FailureRatio        float64
	ConsecutiveFailures uint32
}

func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		MaxRequests:         2,
		Interval:            30 * time.Second,
		Timeout:             15 * time.Second,
		MinRequests:         5,
		FailureRatio:        0.5,
		ConsecutiveFailures: 5,
	}
}

// Client is an HTTPDoer guarded by a circuit breaker. Responses with 5xx
// status count as failures so the breaker sees them.
type Client struct {
	cb     *gobreaker.CircuitBreaker
	client utils.HTTPDoer
}

func New(client utils.HTTPDoer, cfg Config) *Client {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests >= cfg.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio {
				return true
			}
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
	}
	return &Client{
		cb:     gobreaker.NewCircuitBreaker(settings),
		client: client,
	}
}

func (b *Client) Do(req *http.Request) (*http.Response, error) {
	result, err := b.cb.Execute(func() (any, error) {
		resp, err := b.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("server error: %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from breaker")
	}
	return resp, nil
}

func (b *Client) State() gobreaker.State {
	return b.cb.State()
}

var _ utils.HTTPDoer = (*Client)(nil)
