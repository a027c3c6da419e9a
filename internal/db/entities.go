package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"placeimages/internal/imagepath"
	"placeimages/internal/models"
)

// table describes how one entity kind is stored.
type table struct {
	name       string
	typeExpr   string
	activities string
}

var tables = map[models.Kind]table{
	models.KindPlace:      {name: "places", typeExpr: "COALESCE(type, '')", activities: "COALESCE(activities, '')"},
	models.KindHotel:      {name: "hotels", typeExpr: "''", activities: "''"},
	models.KindRestaurant: {name: "restaurants", typeExpr: "''", activities: "''"},
}

func tableFor(kind models.Kind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return t, nil
}

// columns is the select list shared by every entity query.
func (t table) columns() string {
	return `id, name, ` + t.typeExpr + `, COALESCE(location, ''), COALESCE(description, ''),
		COALESCE(tags, ''), ` + t.activities + `, COALESCE(image_url, ''), COALESCE(all_images, '')`
}

// scanEntity scans a row into an Entity of the given kind.
func scanEntity(row pgx.Row, kind models.Kind) (*models.Entity, error) {
	var id int64
	var tags, allImages string
	e := models.Entity{Kind: kind}
	err := row.Scan(&id, &e.Name, &e.Type, &e.Location, &e.Description, &tags, &e.Activities, &e.ImageURL, &allImages)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntityNotFound
	}
	if err != nil {
		return nil, err
	}

	e.ID = models.ID(strconv.FormatInt(id, 10))
	e.Tags = models.SplitTags(tags)
	e.AllImages = models.ParseImageList(allImages)
	e.Normalize()
	return &e, nil
}

// GetEntity returns one entity by kind and numeric id.
func (d *DB) GetEntity(ctx context.Context, kind models.Kind, id string) (*models.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, ErrEntityNotFound
	}

	query := `SELECT ` + t.columns() + ` FROM ` + t.name + ` WHERE id = $1`
	return scanEntity(d.Pool.QueryRow(ctx, query, n), kind)
}

// ListEntitiesWithoutImages returns up to limit entities of kind that carry no
// usable stored image, oldest first. Image columns hold free-form JSON, so rows
// are read in id order and filtered with the resolver's own predicate.
func (d *DB) ListEntitiesWithoutImages(ctx context.Context, kind models.Kind, limit int) ([]*models.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + t.columns() + ` FROM ` + t.name + `
		WHERE id > $1
		ORDER BY id
		LIMIT $2`

	var entities []*models.Entity
	var after int64
	for len(entities) < limit {
		page, last, err := d.scanPage(ctx, query, kind, after, limit)
		if err != nil {
			return nil, fmt.Errorf("list %s without images: %w", t.name, err)
		}
		for _, e := range page {
			if !imagepath.HasStoredImage(e) && len(entities) < limit {
				entities = append(entities, e)
			}
		}
		if len(page) < limit {
			break
		}
		after = last
	}
	return entities, nil
}

// scanPage reads one page of entities with id > after and returns the last id seen.
func (d *DB) scanPage(ctx context.Context, query string, kind models.Kind, after int64, size int) ([]*models.Entity, int64, error) {
	rows, err := d.Pool.Query(ctx, query, after, size)
	if err != nil {
		return nil, after, err
	}
	defer rows.Close()

	var page []*models.Entity
	last := after
	for rows.Next() {
		e, err := scanEntity(rows, kind)
		if err != nil {
			return nil, after, err
		}
		if n, err := strconv.ParseInt(string(e.ID), 10, 64); err == nil {
			last = n
		}
		page = append(page, e)
	}
	return page, last, rows.Err()
}

// CreateEntity inserts an entity and returns its new id.
func (d *DB) CreateEntity(ctx context.Context, e *models.Entity) (models.ID, error) {
	t, err := tableFor(e.Kind)
	if err != nil {
		return "", err
	}

	allImages, err := encodeImages(e.AllImages)
	if err != nil {
		return "", err
	}

	var query string
	args := []any{e.Name, nullable(e.Location), nullable(e.Description), nullable(e.Tags.String()), nullable(e.ImageURL), allImages}
	if e.Kind == models.KindPlace {
		query = `INSERT INTO places (name, location, description, tags, image_url, all_images, type, activities)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
		args = append(args, nullable(e.Type), nullable(e.Activities))
	} else {
		query = `INSERT INTO ` + t.name + ` (name, location, description, tags, image_url, all_images)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	}

	var id int64
	if err := d.Pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert into %s: %w", t.name, err)
	}
	return models.ID(strconv.FormatInt(id, 10)), nil
}

// SeedDevEntities inserts entities for development. Entities whose name already
// exists in their table are skipped. Returns the number inserted.
func (d *DB) SeedDevEntities(ctx context.Context, entities []models.Entity) (int, error) {
	if len(entities) == 0 {
		entities = devEntities
	}

	inserted := 0
	for i := range entities {
		e := &entities[i]
		t, err := tableFor(e.Kind)
		if err != nil {
			return inserted, err
		}

		var exists bool
		if err := d.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+t.name+` WHERE name = $1)`, e.Name).Scan(&exists); err != nil {
			return inserted, fmt.Errorf("failed to check seed %s: %w", e.Name, err)
		}
		if exists {
			continue
		}
		if _, err := d.CreateEntity(ctx, e); err != nil {
			return inserted, fmt.Errorf("failed to seed %s: %w", e.Name, err)
		}
		inserted++
	}
	return inserted, nil
}

var devEntities = []models.Entity{
	{Kind: models.KindPlace, Name: "Phewa Lake", Type: "Place", Location: "Pokhara", Description: "Freshwater lake below the Annapurna range", Tags: models.TagList{"lake", "boating"}},
	{Kind: models.KindPlace, Name: "Boudhanath Stupa", Type: "cultural_religious_sites", Location: "Kathmandu", Tags: models.TagList{"stupa", "buddhist", "heritage"}},
	{Kind: models.KindPlace, Name: "Everest Base Camp", Type: "trekking_routes", Location: "Solukhumbu", Activities: "trekking, hiking"},
	{Kind: models.KindHotel, Name: "Hotel Everest View", Location: "Syangboche", AllImages: models.ImageList{`hotel_images\main.jpg`}},
	{Kind: models.KindRestaurant, Name: "Thakali Kitchen", Location: "Pokhara", Tags: models.TagList{"nepali", "dal bhat"}},
}

func encodeImages(list models.ImageList) (*string, error) {
	refs := models.CleanImageRefs(list)
	if len(refs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}
	s := string(b)
	return &s, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
