// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"placeimages/internal/db"
	"placeimages/internal/imagepath"
	"placeimages/internal/models"
)

// TestDB creates a test database connection and returns a cleanup function.
// Uses TEST_DATABASE_URL environment variable and skips the test when it is unset.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanup := func() {
		// Clean up test data
		cleanupTestData(ctx, database.Pool)
		database.Close()
	}

	return database, cleanup
}

// cleanupTestData removes all test data from the database.
func cleanupTestData(ctx context.Context, pool *pgxpool.Pool) {
	// Delete in order to respect foreign keys
	pool.Exec(ctx, "DELETE FROM restaurants")
	pool.Exec(ctx, "DELETE FROM hotels")
	pool.Exec(ctx, "DELETE FROM places")
}

// PhewaLake returns a place with no stored images.
func PhewaLake() *models.Entity {
	return &models.Entity{
		ID:       "1",
		Kind:     models.KindPlace,
		Name:     "Phewa Lake",
		Type:     "Place",
		Location: "Pokhara",
	}
}

// HotelEverestView returns a hotel whose only image is a Windows-style relative path.
func HotelEverestView() *models.Entity {
	return &models.Entity{
		ID:        "7",
		Kind:      models.KindHotel,
		Name:      "Hotel Everest View",
		Type:      "Hotel",
		Location:  "Syangboche",
		AllImages: models.ImageList{`hotel_images\main.jpg`},
	}
}

// MemoryEntities is an in-memory entity source keyed by kind and id.
type MemoryEntities struct {
	mu   sync.Mutex
	byID map[models.Kind]map[models.ID]*models.Entity
	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryEntities creates a source holding the given entities.
func NewMemoryEntities(entities ...*models.Entity) *MemoryEntities {
	m := &MemoryEntities{byID: make(map[models.Kind]map[models.ID]*models.Entity)}
	for _, e := range entities {
		m.Add(e)
	}
	return m
}

// Add stores e under its kind and id.
func (m *MemoryEntities) Add(e *models.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byID[e.Kind] == nil {
		m.byID[e.Kind] = make(map[models.ID]*models.Entity)
	}
	m.byID[e.Kind][e.ID] = e
}

// GetEntity returns a copy of the stored entity or db.ErrEntityNotFound.
func (m *MemoryEntities) GetEntity(_ context.Context, kind models.Kind, id string) (*models.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	e, ok := m.byID[kind][models.ID(id)]
	if !ok {
		return nil, db.ErrEntityNotFound
	}
	cp := *e
	return &cp, nil
}

// ListEntitiesWithoutImages returns entities of kind with no stored image, ordered by id.
func (m *MemoryEntities) ListEntitiesWithoutImages(_ context.Context, kind models.Kind, limit int) ([]*models.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var out []*models.Entity
	for _, e := range m.byID[kind] {
		if !imagepath.HasStoredImage(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
