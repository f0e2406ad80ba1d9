package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

// AddressRepository manages shared geocoded addresses and the spatial
// teacher search.
type AddressRepository struct {
	db *sqlx.DB
}

// NewAddressRepository constructs an AddressRepository.
func NewAddressRepository(db *sqlx.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

const addressColumns = "id, formatted, raw_payload, postal_code, latitude, longitude, created_at, updated_at"

// FindByID fetches an address by id.
func (r *AddressRepository) FindByID(ctx context.Context, id string) (*models.Address, error) {
	query := fmt.Sprintf("SELECT %s FROM addresses WHERE id = $1", addressColumns)
	var address models.Address
	if err := r.db.GetContext(ctx, &address, query, id); err != nil {
		return nil, err
	}
	return &address, nil
}

// FindByFormatted fetches an address by its normalized formatted string.
// Addresses are deduplicated on this column.
func (r *AddressRepository) FindByFormatted(ctx context.Context, formatted string) (*models.Address, error) {
	query := fmt.Sprintf("SELECT %s FROM addresses WHERE formatted = $1", addressColumns)
	var address models.Address
	if err := r.db.GetContext(ctx, &address, query, formatted); err != nil {
		return nil, err
	}
	return &address, nil
}

// ListByUser returns addresses linked to a user.
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	const query = `SELECT a.id, a.formatted, a.raw_payload, a.postal_code, a.latitude, a.longitude, a.created_at, a.updated_at
		FROM addresses a JOIN user_addresses ua ON ua.address_id = a.id WHERE ua.user_id = $1 ORDER BY a.created_at ASC`
	var addresses []models.Address
	if err := r.db.SelectContext(ctx, &addresses, query, userID); err != nil {
		return nil, fmt.Errorf("list addresses by user: %w", err)
	}
	return addresses, nil
}

// Create inserts a new address row. The geog point is derived from the
// coordinate when present.
func (r *AddressRepository) Create(ctx context.Context, address *models.Address) error {
	if address.ID == "" {
		address.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if address.CreatedAt.IsZero() {
		address.CreatedAt = now
	}
	address.UpdatedAt = now

	const query = `INSERT INTO addresses (id, formatted, raw_payload, postal_code, latitude, longitude, geog, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $5::float8 IS NOT NULL THEN ST_SetSRID(ST_MakePoint($6, $5), 4326)::geography END, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query, address.ID, address.Formatted, address.RawPayload, address.PostalCode, address.Latitude, address.Longitude, address.CreatedAt, address.UpdatedAt); err != nil {
		return fmt.Errorf("create address: %w", err)
	}
	return nil
}

// SetCoordinate persists a lazily geocoded coordinate for future reuse.
func (r *AddressRepository) SetCoordinate(ctx context.Context, id string, coord models.Coordinate) error {
	const query = `UPDATE addresses SET latitude = $2, longitude = $3, geog = ST_SetSRID(ST_MakePoint($3, $2), 4326)::geography, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, coord.Latitude, coord.Longitude, time.Now().UTC()); err != nil {
		return fmt.Errorf("set address coordinate: %w", err)
	}
	return nil
}

// Link attaches an address to a user, ignoring duplicates.
func (r *AddressRepository) Link(ctx context.Context, userID, addressID string) error {
	const query = `INSERT INTO user_addresses (user_id, address_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, addressID); err != nil {
		return fmt.Errorf("link address: %w", err)
	}
	return nil
}

// Unlink detaches an address from a user; the address row stays for other
// users sharing it.
func (r *AddressRepository) Unlink(ctx context.Context, userID, addressID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_addresses WHERE user_id = $1 AND address_id = $2`, userID, addressID)
	if err != nil {
		return false, fmt.Errorf("unlink address: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unlink address rows: %w", err)
	}
	return affected == 1, nil
}

// OwnedBy reports whether the address is linked to the user.
func (r *AddressRepository) OwnedBy(ctx context.Context, userID, addressID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM user_addresses WHERE user_id = $1 AND address_id = $2 LIMIT 1`, userID, addressID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check address ownership: %w", err)
	}
	return true, nil
}

// FindTeachersNear runs the PostGIS radius query over teacher addresses and
// returns hits ordered by distance ascending. radiusMeters bounds ST_DWithin;
// distance_km is derived from ST_Distance on the geography column.
func (r *AddressRepository) FindTeachersNear(ctx context.Context, coord models.Coordinate, radiusMeters float64) ([]models.TeacherSearchResult, error) {
	const query = `SELECT user_id, slug, full_name, avatar_url, timezone, format, age_preference, accepting_students, distance_km FROM (
			SELECT DISTINCT ON (tp.user_id) tp.user_id, tp.slug, u.full_name, u.avatar_url, u.timezone, tp.format, tp.age_preference, tp.accepting_students,
				ST_Distance(a.geog, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) / 1000.0 AS distance_km
			FROM teacher_profiles tp
			JOIN users u ON u.id = tp.user_id
			JOIN user_addresses ua ON ua.user_id = tp.user_id
			JOIN addresses a ON a.id = ua.address_id
			WHERE a.geog IS NOT NULL
			  AND ST_DWithin(a.geog, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
			ORDER BY tp.user_id, distance_km ASC
		) hits ORDER BY distance_km ASC`
	var results []models.TeacherSearchResult
	if err := r.db.SelectContext(ctx, &results, query, coord.Latitude, coord.Longitude, radiusMeters); err != nil {
		return nil, fmt.Errorf("find teachers near point: %w", err)
	}
	return results, nil
}
