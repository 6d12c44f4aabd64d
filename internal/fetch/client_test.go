package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns status, headers, and body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "scuttle/") {
				t.Errorf("User-Agent = %q", got)
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("<html>ok</html>"))
		}))
		defer srv.Close()

		resp, err := NewClient().Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if resp.Status != http.StatusOK {
			t.Errorf("status = %d", resp.Status)
		}
		if resp.Body != "<html>ok</html>" {
			t.Errorf("body = %q", resp.Body)
		}
		if ct := resp.ContentType(); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("content type = %q", ct)
		}
	})

	t.Run("error status is a response, not an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		resp, err := NewClient().Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if resp.Status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.Status)
		}
	})

	t.Run("connection failure is a TransportError", func(t *testing.T) {
		t.Parallel()

		// A server that is already closed refuses connections.
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewClient().Fetch(context.Background(), url)
		var transport *TransportError
		if !errors.As(err, &transport) {
			t.Fatalf("error = %v, want TransportError", err)
		}
		if transport.URL != url {
			t.Errorf("TransportError.URL = %q, want %q", transport.URL, url)
		}
	})

	t.Run("slow server times out as TransportError", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		client := NewClient(WithTimeout(50 * time.Millisecond))
		_, err := client.Fetch(context.Background(), srv.URL)
		var transport *TransportError
		if !errors.As(err, &transport) {
			t.Fatalf("error = %v, want TransportError", err)
		}
	})

	t.Run("body is capped", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
		}))
		defer srv.Close()

		client := NewClient(WithMaxBodySize(100))
		resp, err := client.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(resp.Body) != 100 {
			t.Errorf("body length = %d, want 100", len(resp.Body))
		}
	})
}

func TestRetryPolicy(t *testing.T) {
	t.Parallel()

	t.Run("retries transport errors within budget", func(t *testing.T) {
		t.Parallel()

		policy := NewRetryPolicy(2, time.Millisecond, 10*time.Millisecond)
		err := &TransportError{URL: "http://x.test/", Err: errors.New("refused")}

		if !policy.ShouldRetry(err, 1) || !policy.ShouldRetry(err, 2) {
			t.Error("attempts within budget should retry")
		}
		if policy.ShouldRetry(err, 3) {
			t.Error("attempt beyond budget should not retry")
		}
	})

	t.Run("never retries cancellation or non-transport errors", func(t *testing.T) {
		t.Parallel()

		policy := NewRetryPolicy(5, time.Millisecond, 10*time.Millisecond)
		if policy.ShouldRetry(context.Canceled, 1) {
			t.Error("cancellation must not be retried")
		}
		if policy.ShouldRetry(errors.New("some rule error"), 1) {
			t.Error("non-transport errors must not be retried")
		}
		if policy.ShouldRetry(nil, 1) {
			t.Error("nil error must not be retried")
		}
	})

	t.Run("backoff grows and stays bounded", func(t *testing.T) {
		t.Parallel()

		policy := NewRetryPolicy(10, 100*time.Millisecond, time.Second)
		for attempt := 1; attempt <= 10; attempt++ {
			d := policy.Backoff(attempt)
			if d < 0 || d > time.Second {
				t.Errorf("Backoff(%d) = %v, out of bounds", attempt, d)
			}
		}
	})
}

func TestFetchWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts < 3 {
				// Close the connection without a response.
				hj, ok := w.(http.Hijacker)
				if !ok {
					t.Fatal("server does not support hijacking")
				}
				conn, _, err := hj.Hijack()
				if err != nil {
					t.Fatal(err)
				}
				_ = conn.Close()
				return
			}
			_, _ = w.Write([]byte("finally"))
		}))
		defer srv.Close()

		policy := NewRetryPolicy(2, time.Millisecond, 5*time.Millisecond)
		resp, err := NewClient().FetchWithRetry(context.Background(), srv.URL, policy)
		if err != nil {
			t.Fatalf("fetch failed after retries: %v", err)
		}
		if resp.Body != "finally" {
			t.Errorf("body = %q", resp.Body)
		}
		if attempts != 3 {
			t.Errorf("server saw %d attempts, want 3", attempts)
		}
	})

	t.Run("exhausted budget returns the transport error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		policy := NewRetryPolicy(2, time.Millisecond, 5*time.Millisecond)
		_, err := NewClient().FetchWithRetry(context.Background(), url, policy)
		var transport *TransportError
		if !errors.As(err, &transport) {
			t.Fatalf("error = %v, want TransportError", err)
		}
	})
}
