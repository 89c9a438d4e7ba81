package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/jackc/pgx/v5"
)

const venueColumns = `id, name, cuisine, description, latitude, longitude,
	price_level, ambience, signature_dishes, is_open`

// ListCandidates returns up to limit venues ordered by id. limit <= 0 means
// no limit.
func (r *Repository) ListCandidates(ctx context.Context, limit int) ([]domain.Candidate, error) {
	query := `SELECT ` + venueColumns + ` FROM venues ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query venues: %w", err)
	}
	defer rows.Close()

	var items []domain.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate venues: %w", err)
	}
	return items, nil
}

// Get single venue
func (r *Repository) GetCandidate(ctx context.Context, id string) (domain.Candidate, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE id = $1`, id,
	)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Candidate{}, domain.ErrCandidateNotFound
		}
		return domain.Candidate{}, fmt.Errorf("query venue id=%s: %w", id, err)
	}
	return c, nil
}

// Count total venues
func (r *Repository) CountCandidates(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM venues`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count venues: %w", err)
	}
	return total, nil
}

func scanCandidate(row pgx.Row) (domain.Candidate, error) {
	var (
		c        domain.Candidate
		lat, lon *float64
	)
	err := row.Scan(&c.ID, &c.Name, &c.Cuisine, &c.Description, &lat, &lon,
		&c.PriceLevel, &c.Ambience, &c.SignatureDishes, &c.IsOpen)
	if err != nil {
		return domain.Candidate{}, err
	}
	c.Coordinates = coordinatesOf(lat, lon)
	return c, nil
}

// coordinatesOf returns nil unless both columns are set and form a valid
// point.
func coordinatesOf(lat, lon *float64) *domain.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	c := domain.Coordinates{Latitude: *lat, Longitude: *lon}
	if !c.Valid() {
		return nil
	}
	return &c
}
