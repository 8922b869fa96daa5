package netutil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"reset", &url.Error{Op: "Post", URL: "http://x", Err: syscall.ECONNRESET}, true},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("no route")}, true},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := ShouldRetry(tc.err); got != tc.want {
			t.Fatalf("%s: ShouldRetry = %v, want %v", tc.name, got, tc.want)
		}
	}
}

type flakyTransport struct {
	calls atomic.Int32
	fails int32
	next  http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.calls.Add(1) <= f.fails {
		return nil, &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
	}
	return f.next.RoundTrip(req)
}

func TestRetryTransportRecovers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	flaky := &flakyTransport{fails: 2, next: http.DefaultTransport}
	client := &http.Client{Transport: &retryTransport{base: flaky, maxRetries: 2, backoff: time.Millisecond}}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if got := flaky.calls.Load(); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
}

func TestNewClientWithoutRetriesIsSingleAttempt(t *testing.T) {
	c := NewClient(ClientOptions{Timeout: time.Second})
	if _, ok := c.Transport.(*retryTransport); ok {
		t.Fatal("expected plain transport for zero retries")
	}
	if c.Timeout != time.Second {
		t.Fatalf("timeout = %v", c.Timeout)
	}
}
