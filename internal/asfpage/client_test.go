package asfpage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(url string, mutate func(*Options)) *Client {
	opts := Options{
		URL:        url,
		Timeout:    2 * time.Second,
		RatePerSec: 1000,
		Burst:      1000,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts)
}

func TestClientFetch(t *testing.T) {
	const page = "<html><body>July 1939<br>Trends (Isaac Asimov)</body></html>"
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	c := testClient(srv.URL, nil)
	body, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != page {
		t.Errorf("body = %q, want page content", body)
	}
	if !strings.HasPrefix(gotUA, "asfstats/") {
		t.Errorf("User-Agent = %q, want asfstats default", gotUA)
	}
}

func TestClientFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL, nil)
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("error = %v, want ErrStatus", err)
	}
	var pageErr *PageError
	if !errors.As(err, &pageErr) || pageErr.Status != http.StatusNotFound {
		t.Errorf("PageError.Status = %v, want 404", err)
	}
}

func TestClientFetchTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	c := testClient(srv.URL, func(o *Options) { o.MaxBytes = 1024 })
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("error = %v, want ErrTooLarge", err)
	}
}

func TestClientFetchUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := testClient(srv.URL, nil)
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestClientFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	c := testClient(srv.URL, func(o *Options) { o.Timeout = 50 * time.Millisecond })
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestClientProbe(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"method not allowed is still reachable", http.StatusMethodNotAllowed, false},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodHead {
					t.Errorf("method = %s, want HEAD", r.Method)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := testClient(srv.URL, nil).Probe(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Probe() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
