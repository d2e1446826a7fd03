package breaker

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDoer struct {
	status int
	calls  int
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.calls++
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func testRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest("GET", "https://example.com/data.bin", nil)
	require.NoError(t, err)
	return req
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	stub := &stubDoer{status: http.StatusOK}
	client := New(stub, DefaultConfig("test"))

	resp, err := client.Do(testRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, client.State())
}

func TestBreakerCountsServerErrorsAsFailures(t *testing.T) {
	stub := &stubDoer{status: http.StatusInternalServerError}
	client := New(stub, DefaultConfig("test"))

	_, err := client.Do(testRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.ConsecutiveFailures = 3
	cfg.MinRequests = 100 // keep the ratio rule out of the way
	stub := &stubDoer{status: http.StatusBadGateway}
	client := New(stub, cfg)

	for range 3 {
		_, err := client.Do(testRequest(t))
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, client.State())

	// While open, requests are rejected without touching the remote.
	before := stub.calls
	_, err := client.Do(testRequest(t))
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, stub.calls)
}

func TestBreakerRecoversAfterTimeout(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.ConsecutiveFailures = 1
	cfg.MinRequests = 100
	cfg.Timeout = 50 * time.Millisecond
	stub := &stubDoer{status: http.StatusServiceUnavailable}
	client := New(stub, cfg)

	_, err := client.Do(testRequest(t))
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, client.State())

	time.Sleep(80 * time.Millisecond)
	stub.status = http.StatusOK
	resp, err := client.Do(testRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
