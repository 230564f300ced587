package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	dbtypes "github.com/nitesh/cafe_service/internal/db"
	"github.com/nitesh/cafe_service/pkg/models"
)

// ErrNotFound is returned when no cafe matches the requested id.
var ErrNotFound = errors.New("CAFE_NOT_FOUND")

const (
	defaultLimit = 50
	maxLimit     = 200
)

// cafeColumns is the select list shared by every read. place_id is nullable
// so that fallback records without one do not collide on the unique index.
const cafeColumns = `id, COALESCE(place_id, '') AS place_id, source, name, description,
  address, city, state, zip_code, latitude, longitude, phone, website, price_range, hours,
  wifi, seating, work_friendly, bathrooms, pet_friendly, wheelchair_accessible, parking,
  alternative_milks, coffee_types, dietary_options, tags,
  avg_rating, reviews_count, avg_coffee_rating, avg_taste_rating, current_status,
  claimed, claim_status, verified, created_at`

type PgStore struct {
	db *sqlx.DB
}

func NewPgStore(db *sql.DB) *PgStore {
	return &PgStore{db: sqlx.NewDb(db, "postgres")}
}

func RunMigrations(db *sql.DB) error {
	initSQL := `
CREATE TABLE IF NOT EXISTS cafes(
  id UUID PRIMARY KEY,
  place_id TEXT UNIQUE,
  source TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  address TEXT,
  city TEXT,
  state TEXT,
  zip_code TEXT,
  latitude DOUBLE PRECISION,
  longitude DOUBLE PRECISION,
  phone TEXT,
  website TEXT,
  price_range TEXT,
  hours JSONB NOT NULL DEFAULT '{}',
  wifi BOOLEAN,
  seating BOOLEAN,
  work_friendly BOOLEAN,
  bathrooms BOOLEAN,
  pet_friendly BOOLEAN,
  wheelchair_accessible BOOLEAN,
  parking TEXT,
  alternative_milks JSONB NOT NULL DEFAULT '[]',
  coffee_types JSONB NOT NULL DEFAULT '[]',
  dietary_options JSONB NOT NULL DEFAULT '[]',
  tags JSONB NOT NULL DEFAULT '[]',
  avg_rating DOUBLE PRECISION DEFAULT 0,
  reviews_count INTEGER DEFAULT 0,
  avg_coffee_rating DOUBLE PRECISION DEFAULT 0,
  avg_taste_rating DOUBLE PRECISION DEFAULT 0,
  current_status TEXT,
  claimed BOOLEAN DEFAULT FALSE,
  claim_status TEXT,
  verified BOOLEAN DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_cafes_created ON cafes(created_at);
CREATE INDEX IF NOT EXISTS idx_cafes_rating ON cafes(avg_rating);
CREATE INDEX IF NOT EXISTS idx_cafes_city ON cafes(city);
-- GIN index for jsonb containment on tags
CREATE INDEX IF NOT EXISTS idx_cafes_tags ON cafes USING GIN (tags);
`
	_, err := db.Exec(initSQL)
	return err
}

// SaveMany inserts cafes in one transaction and returns how many new rows
// were written. A cafe whose place_id is already stored is left untouched
// and takes the stored id and created_at, so every returned record can be
// fetched by id. Missing ids are generated.
func (p *PgStore) SaveMany(ctx context.Context, cafes []*models.Cafe) (int, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}

	stmt := `
INSERT INTO cafes (id, place_id, source, name, description, address, city, state, zip_code,
  latitude, longitude, phone, website, price_range, hours,
  wifi, seating, work_friendly, bathrooms, pet_friendly, wheelchair_accessible, parking,
  alternative_milks, coffee_types, dietary_options, tags,
  avg_rating, reviews_count, avg_coffee_rating, avg_taste_rating, current_status,
  claimed, claim_status, verified, created_at)
VALUES ($1,NULLIF($2,''),$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15::jsonb,
  $16,$17,$18,$19,$20,$21,$22,$23::jsonb,$24::jsonb,$25::jsonb,$26::jsonb,
  $27,$28,$29,$30,$31,$32,$33,$34,$35)
ON CONFLICT (place_id) DO UPDATE SET place_id = EXCLUDED.place_id
RETURNING id, created_at, (xmax = 0) AS inserted;
`

	saved := 0
	for _, c := range cafes {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		// xmax is 0 only for a freshly inserted tuple
		var stored struct {
			ID        string    `db:"id"`
			CreatedAt time.Time `db:"created_at"`
			Inserted  bool      `db:"inserted"`
		}
		err := tx.QueryRowxContext(ctx, stmt,
			id, c.PlaceID, c.Source, c.Name, c.Description,
			c.Address, c.City, c.State, c.ZipCode,
			c.Latitude, c.Longitude, c.Phone, c.Website, c.PriceRange,
			c.Hours, // dbtypes.Hours -> jsonb object
			c.Wifi, c.Seating, c.WorkFriendly, c.Bathrooms, c.PetFriendly, c.WheelchairAccessible, c.Parking,
			c.AlternativeMilks, c.CoffeeTypes, c.DietaryOptions, c.Tags,
			c.AvgRating, c.ReviewsCount, c.AvgCoffeeRating, c.AvgTasteRating, c.CurrentStatus,
			c.Claimed, c.ClaimStatus, c.Verified, createdAt,
		).StructScan(&stored)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert cafe id=%s: %w", id, err)
		}

		c.ID = stored.ID
		c.CreatedAt = stored.CreatedAt
		if stored.Inserted {
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return saved, nil
}

func (p *PgStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM cafes`)
	return n, err
}

// GetByID returns ErrNotFound for unknown ids, including ones that are not
// valid UUIDs.
func (p *PgStore) GetByID(ctx context.Context, id string) (*models.Cafe, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	var c models.Cafe
	query := `SELECT ` + cafeColumns + ` FROM cafes WHERE id = $1`
	err := p.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *PgStore) GetByIDs(ctx context.Context, ids []string) ([]*models.Cafe, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []*models.Cafe{}, nil
	}

	rows := []*models.Cafe{}
	query := `SELECT ` + cafeColumns + ` FROM cafes WHERE id = ANY($1::uuid[]) ORDER BY name`
	err := p.db.SelectContext(ctx, &rows, query, pq.Array(valid))
	return rows, err
}

func (p *PgStore) List(ctx context.Context, limit int) ([]*models.Cafe, error) {
	limit = clampLimit(limit)
	rows := []*models.Cafe{}
	query := `SELECT ` + cafeColumns + `
FROM cafes
ORDER BY avg_rating DESC, name ASC
LIMIT $1`
	err := p.db.SelectContext(ctx, &rows, query, limit)
	return rows, err
}

// All returns every stored cafe. Used by maintenance jobs, not the API.
func (p *PgStore) All(ctx context.Context) ([]*models.Cafe, error) {
	rows := []*models.Cafe{}
	err := p.db.SelectContext(ctx, &rows, `SELECT `+cafeColumns+` FROM cafes ORDER BY created_at`)
	return rows, err
}

func (p *PgStore) UpdateHours(ctx context.Context, id string, hours dbtypes.Hours) error {
	res, err := p.db.ExecContext(ctx, `UPDATE cafes SET hours = $1::jsonb WHERE id = $2`, hours, id)
	if err != nil {
		return fmt.Errorf("update hours id=%s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PgStore) Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.Cafe, error) {
	limit = clampLimit(limit)

	// Haversine computed in a subquery so the distance is evaluated once.
	// LEAST clamps float drift that would push acos out of its domain.
	query := `
SELECT * FROM (
  SELECT ` + cafeColumns + `,
    (6371 * acos(LEAST(1.0,
        cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude) - radians($2)) +
        sin(radians($1)) * sin(radians(latitude))
    ))) AS distance_km
  FROM cafes
  WHERE latitude IS NOT NULL AND longitude IS NOT NULL
) AS t
WHERE distance_km <= $3
ORDER BY distance_km ASC
LIMIT $4;
`

	rows := []*models.Cafe{}
	err := p.db.SelectContext(ctx, &rows, query, lat, lon, radiusKm, limit)
	return rows, err
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxLimit {
		return defaultLimit
	}
	return limit
}
