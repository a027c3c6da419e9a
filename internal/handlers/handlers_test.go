package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/template/html/v3"

	"placeimages/internal/display"
	"placeimages/internal/fallback"
	"placeimages/internal/imagepath"
	"placeimages/internal/preload"
	"placeimages/internal/testutil"
	"placeimages/views"
)

func cardApp(p preload.Preloader) *fiber.App {
	resolver := imagepath.New("http://localhost:8000", "")
	gen := fallback.NewGenerator(p, fallback.Options{})
	orch := display.New(resolver, gen, p, display.Options{})
	h := NewCardHandler(testutil.NewMemoryEntities(testutil.PhewaLake(), testutil.HotelEverestView()), orch)

	app := fiber.New(fiber.Config{Views: html.NewFileSystem(http.FS(views.FS), ".html")})
	app.Get("/cards/:kind/:id", h.Show)
	return app
}

func get(t *testing.T, app *fiber.App, target string) (int, string) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", target, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestCardHandler_Show(t *testing.T) {
	accept := preload.Func(func(context.Context, string) error { return nil })
	reject := preload.Func(func(context.Context, string) error { return preload.ErrStatus })

	tests := []struct {
		name     string
		p        preload.Preloader
		target   string
		contains []string
		excludes []string
	}{
		{
			name:     "stored image",
			p:        accept,
			target:   "/cards/hotel/7",
			contains: []string{`src="http://localhost:8000/datasets/hotel_images/main.jpg?size=600x400"`, `data-state="loaded"`},
			excludes: []string{">AI<"},
		},
		{
			name:     "generated image carries badge",
			p:        accept,
			target:   "/cards/place/1?size=small",
			contains: []string{"source.unsplash.com", "sig=jgug45", ">AI<"},
		},
		{
			name:     "icon when nothing loads",
			p:        reject,
			target:   "/cards/place/1",
			contains: []string{`data-state="failed_final"`, "icon-mountain", "from-emerald-500"},
			excludes: []string{"<img"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := get(t, cardApp(tt.p), tt.target)
			if code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", code, body)
			}
			for _, s := range tt.contains {
				if !strings.Contains(body, s) {
					t.Errorf("body missing %q:\n%s", s, body)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(body, s) {
					t.Errorf("body contains %q:\n%s", s, body)
				}
			}
		})
	}
}

func TestCardHandler_NotFound(t *testing.T) {
	code, _ := get(t, cardApp(preload.Static{}), "/cards/place/404")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestProbeHandler(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		ready int
	}{
		{"database up", nil, http.StatusOK},
		{"database down", errors.New("dial tcp: refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProbeHandler(pinger{tt.err})
			app := fiber.New()
			app.Get("/healthz", h.Liveness)
			app.Get("/readyz", h.Readiness)

			if code, _ := get(t, app, "/healthz"); code != http.StatusOK {
				t.Errorf("healthz = %d, want 200", code)
			}
			if code, _ := get(t, app, "/readyz"); code != tt.ready {
				t.Errorf("readyz = %d, want %d", code, tt.ready)
			}
		})
	}
}
