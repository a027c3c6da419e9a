package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"placeimages/internal/config"
	"placeimages/internal/display"
	"placeimages/internal/fallback"
	"placeimages/internal/imagepath"
	"placeimages/internal/preload"
	"placeimages/internal/testutil"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	p := preload.Func(func(context.Context, string) error { return nil })
	resolver := imagepath.New("http://localhost:8000", "")
	gen := fallback.NewGenerator(p, fallback.Options{})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	s := New(&config.Config{ServerAddr: ":0"})
	s.RegisterRoutes(Deps{
		Entities:  testutil.NewMemoryEntities(testutil.PhewaLake(), testutil.HotelEverestView()),
		DB:        okPinger{},
		Resolver:  resolver,
		Generator: gen,
		Display:   display.New(resolver, gen, p, display.Options{}),
		Gatherer:  reg,
	})
	return s
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method   string
		target   string
		code     int
		contains string
	}{
		{http.MethodGet, "/healthz", http.StatusOK, `"ok"`},
		{http.MethodGet, "/readyz", http.StatusOK, `"ok"`},
		{http.MethodGet, "/metrics", http.StatusOK, "go_goroutines"},
		{http.MethodGet, "/api/images/hotel/7", http.StatusOK, "hotel_images/main.jpg"},
		{http.MethodGet, "/api/images/hotel/7/all", http.StatusOK, `"urls"`},
		{http.MethodGet, "/api/images/cache", http.StatusOK, `"cache_size"`},
		{http.MethodDelete, "/api/images/cache", http.StatusOK, `"cleared":true`},
		{http.MethodGet, "/cards/place/1", http.StatusOK, "<figure"},
		{http.MethodGet, "/cards/spaceship/1", http.StatusBadRequest, "unknown entity kind"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tt.target, nil)
			resp, err := s.App.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.code {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.code, body)
			}
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body missing %q: %s", tt.contains, body)
			}
		})
	}
}

func TestErrorHandler_APIUsesEnvelope(t *testing.T) {
	s := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/nothing/here/at/all", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	var env struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if env.Status != "error" || env.Error == "" {
		t.Errorf("envelope = %+v", env)
	}
}
