package preload

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

func TestHTTPPreloader_Preload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/image.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
	})
	mux.HandleFunc("/untyped", func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	})
	mux.HandleFunc("/missing.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/image.jpg", http.StatusFound)
	})
	mux.HandleFunc("/get-only.png", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "image/png")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewHTTP(Options{AllowPrivate: true, Timeout: time.Second})

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"image", "/image.jpg", nil},
		{"no content type", "/untyped", nil},
		{"redirect to image", "/redirect", nil},
		{"head not allowed falls back to get", "/get-only.png", nil},
		{"html page", "/page", ErrNotImage},
		{"not found", "/missing.jpg", ErrStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Preload(context.Background(), srv.URL+tt.path)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Preload() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Preload() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPPreloader_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewHTTP(Options{AllowPrivate: true, Timeout: 50 * time.Millisecond})

	start := time.Now()
	err := p.Preload(context.Background(), srv.URL+"/slow.jpg")
	if err == nil {
		t.Fatal("Preload() error = nil, want timeout")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Preload() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Preload() took %v, want about 50ms", elapsed)
	}
}

func TestHTTPPreloader_Blocked(t *testing.T) {
	p := NewHTTP(Options{})

	tests := []string{
		"http://127.0.0.1/a.jpg",
		"http://169.254.169.254/latest/meta-data/",
		"data:image/png;base64,AAAA",
		"",
	}

	for _, url := range tests {
		t.Run(url, func(t *testing.T) {
			if err := p.Preload(context.Background(), url); !errors.Is(err, ErrBlockedURL) {
				t.Errorf("Preload(%q) error = %v, want ErrBlockedURL", url, err)
			}
		})
	}
}

func TestHTTPPreloader_Mocked(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodHead, "https://images.example.com/lake.jpg",
		httpmock.NewStringResponder(http.StatusOK, "").HeaderSet(http.Header{
			"Content-Type":   {"image/jpeg"},
			"Content-Length": {"2048"},
			"Last-Modified":  {"Wed, 21 Oct 2015 07:28:00 GMT"},
		}))
	mt.RegisterResponder(http.MethodHead, "https://images.example.com/down.jpg",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, ""))

	p := NewHTTP(Options{AllowPrivate: true, Client: &http.Client{Transport: mt}})
	ctx := context.Background()

	if !p.Exists(ctx, "https://images.example.com/lake.jpg") {
		t.Error("Exists(lake) = false, want true")
	}
	if p.Exists(ctx, "https://images.example.com/down.jpg") {
		t.Error("Exists(down) = true, want false")
	}

	md, err := p.Metadata(ctx, "https://images.example.com/lake.jpg")
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if md.Size != 2048 || md.ContentType != "image/jpeg" {
		t.Errorf("Metadata() = %+v", md)
	}
	if md.LastModified.Year() != 2015 {
		t.Errorf("LastModified = %v, want 2015", md.LastModified)
	}

	if got := mt.GetCallCountInfo()["HEAD https://images.example.com/down.jpg"]; got != 1 {
		t.Errorf("down.jpg calls = %d, want 1", got)
	}
}

func TestHTTPPreloader_CircuitOpens(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodHead, "https://flaky.example.com/a.jpg",
		httpmock.NewStringResponder(http.StatusBadGateway, ""))

	p := NewHTTP(Options{AllowPrivate: true, Client: &http.Client{Transport: mt}})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := p.Preload(ctx, "https://flaky.example.com/a.jpg"); !errors.Is(err, ErrStatus) {
			t.Fatalf("Preload() #%d error = %v, want ErrStatus", i, err)
		}
	}

	err := p.Preload(ctx, "https://flaky.example.com/a.jpg")
	if !isOpenCircuit(err) {
		t.Errorf("Preload() after failures error = %v, want open circuit", err)
	}
	if got := mt.GetTotalCallCount(); got != 5 {
		t.Errorf("provider calls = %d, want 5", got)
	}
}

func TestStatic(t *testing.T) {
	s := Static{"https://ok.example.com/a.jpg": true}
	if err := s.Preload(context.Background(), "https://ok.example.com/a.jpg"); err != nil {
		t.Errorf("Preload(ok) error = %v", err)
	}
	if err := s.Preload(context.Background(), "https://other.example.com/a.jpg"); !errors.Is(err, ErrStatus) {
		t.Errorf("Preload(other) error = %v, want ErrStatus", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Preload(ctx, "https://ok.example.com/a.jpg"); !errors.Is(err, context.Canceled) {
		t.Errorf("Preload(cancelled) error = %v, want context.Canceled", err)
	}
}
