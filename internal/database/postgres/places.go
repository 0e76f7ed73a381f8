package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/id-verifier/internal/database"
)

// PlaceRepository provides PostgreSQL-backed control point storage.
type PlaceRepository struct {
	pool *Pool
}

// NewPlaceRepository creates a new PostgreSQL place repository.
func NewPlaceRepository(pool *Pool) *PlaceRepository {
	return &PlaceRepository{pool: pool}
}

// List returns all places ordered by id.
func (r *PlaceRepository) List(ctx context.Context) ([]database.Place, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, nom, longitude, latitude, site_id FROM lieux ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query places: %w", err)
	}
	defer rows.Close()

	var places []database.Place
	for rows.Next() {
		var p database.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Longitude, &p.Latitude, &p.SiteID); err != nil {
			return nil, fmt.Errorf("scan place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate places: %w", err)
	}
	return places, nil
}

// Get retrieves a place by id. Returns nil when the place does not exist.
func (r *PlaceRepository) Get(ctx context.Context, id int64) (*database.Place, error) {
	var p database.Place
	err := r.pool.QueryRow(
		ctx, "SELECT id, nom, longitude, latitude, site_id FROM lieux WHERE id = $1", id,
	).Scan(&p.ID, &p.Name, &p.Longitude, &p.Latitude, &p.SiteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get place: %w", err)
	}
	return &p, nil
}

// Create inserts a place and returns its id.
func (r *PlaceRepository) Create(ctx context.Context, place *database.Place) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lieux (nom, longitude, latitude, site_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, place.Name, place.Longitude, place.Latitude, place.SiteID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert place: %w", err)
	}
	return id, nil
}

// Update replaces the fields of an existing place.
func (r *PlaceRepository) Update(ctx context.Context, place *database.Place) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE lieux SET nom = $1, longitude = $2, latitude = $3, site_id = $4
		WHERE id = $5
	`, place.Name, place.Longitude, place.Latitude, place.SiteID, place.ID)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update place: id %d not found", place.ID)
	}
	return nil
}

// Delete removes a place.
func (r *PlaceRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM lieux WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ database.PlaceReader = (*PlaceRepository)(nil)
var _ database.PlaceWriter = (*PlaceRepository)(nil)
