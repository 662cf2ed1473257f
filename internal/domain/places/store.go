package places

import (
	"context"
	"errors"
	"fmt"

	"accessimaps/internal/db"
	"accessimaps/internal/params"
	"accessimaps/internal/search"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, place *Place) error
	GetByID(ctx context.Context, placeID int64) (*Place, error)
	Search(ctx context.Context, q search.Query) ([]Place, error)
	Update(ctx context.Context, place *Place) error
	Delete(ctx context.Context, placeID int64) (*DeleteResult, error)
	ListAdmin(ctx context.Context, text string, p params.Pagination) ([]Place, int, error)
	Recent(ctx context.Context, n int) ([]Place, error)
	Count(ctx context.Context) (int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const placeColumns = `
	p.id, p.name, p.address, p.city, p.postal_code, p.type,
	p.description, p.website, p.phone, p.image_url,
	p.latitude, p.longitude, p.created_by, p.created_at, p.updated_at,
	p.average_mobility_rating, p.average_visual_rating, p.average_hearing_rating,
	p.average_toilet_rating, p.average_parking_rating, p.average_guide_dog_rating,
	p.ratings_count,
	(SELECT COUNT(*) FROM comments c WHERE c.place_id = p.id) AS comments_count
`

func scanPlace(row pgx.Row, p *Place) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Address, &p.City, &p.PostalCode, &p.Type,
		&p.Description, &p.Website, &p.Phone, &p.ImageURL,
		&p.Latitude, &p.Longitude, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		&p.Averages.Mobility, &p.Averages.Visual, &p.Averages.Hearing,
		&p.Averages.Toilet, &p.Averages.Parking, &p.Averages.GuideDog,
		&p.Averages.Count,
		&p.CommentsCount,
	)
}

func (r *Repository) collect(ctx context.Context, query string, args ...any) ([]Place, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	places := []Place{}
	for rows.Next() {
		var p Place
		if err := scanPlace(rows, &p); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// Create inserts a place. Averages start at zero.
func (r *Repository) Create(ctx context.Context, place *Place) error {
	const query = `
		INSERT INTO places (
			name, address, city, postal_code, type,
			description, website, phone, image_url,
			latitude, longitude, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		place.Name, place.Address, place.City, place.PostalCode, place.Type,
		place.Description, place.Website, place.Phone, place.ImageURL,
		place.Latitude, place.Longitude, place.CreatedBy,
	).Scan(&place.ID, &place.CreatedAt, &place.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert place: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, placeID int64) (*Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places p WHERE p.id = $1`

	var p Place
	if err := scanPlace(r.db.QueryRow(ctx, query, placeID), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Search returns every place satisfying the query's filter predicates in
// default ranking order. Geolocation and pagination are left to search.Run
// so that Total reflects the radius filter.
func (r *Repository) Search(ctx context.Context, q search.Query) ([]Place, error) {
	where, args := q.Where(1)
	if q.Geo != nil {
		where += " AND p.latitude IS NOT NULL AND p.longitude IS NOT NULL"
	}

	query := `
		SELECT ` + placeColumns + `
		FROM places p
		WHERE ` + where + `
		ORDER BY p.average_mobility_rating DESC, p.created_at DESC
	`
	return r.collect(ctx, query, args...)
}

// Update replaces the descriptive fields of a place.
func (r *Repository) Update(ctx context.Context, place *Place) error {
	const query = `
		UPDATE places SET
			name = $1, address = $2, city = $3, postal_code = $4, type = $5,
			description = $6, website = $7, phone = $8, image_url = $9,
			latitude = $10, longitude = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		place.Name, place.Address, place.City, place.PostalCode, place.Type,
		place.Description, place.Website, place.Phone, place.ImageURL,
		place.Latitude, place.Longitude, place.ID,
	).Scan(&place.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update place %d: %w", place.ID, err)
	}
	return nil
}

// Delete removes a place. Ratings and comments go with it through the
// foreign key cascade; their counts are taken first under the same lock.
func (r *Repository) Delete(ctx context.Context, placeID int64) (*DeleteResult, error) {
	res := &DeleteResult{}

	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM places WHERE id = $1 FOR UPDATE`, placeID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		err = tx.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM ratings WHERE place_id = $1),
				(SELECT COUNT(*) FROM comments WHERE place_id = $1)
		`, placeID).Scan(&res.DeletedRatings, &res.DeletedComments)
		if err != nil {
			return fmt.Errorf("count place dependents: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM places WHERE id = $1`, placeID); err != nil {
			return fmt.Errorf("delete place %d: %w", placeID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListAdmin pages through places newest first, optionally narrowed by a
// name/address/city substring.
func (r *Repository) ListAdmin(ctx context.Context, text string, p params.Pagination) ([]Place, int, error) {
	where, args := "TRUE", []any{}
	if text != "" {
		where = "(p.name ILIKE $1 OR p.address ILIKE $1 OR p.city ILIKE $1)"
		args = append(args, "%"+text+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM places p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM places p
		WHERE %s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, placeColumns, where, len(args)+1, len(args)+2)

	places, err := r.collect(ctx, query, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return places, total, nil
}

func (r *Repository) Recent(ctx context.Context, n int) ([]Place, error) {
	query := `SELECT ` + placeColumns + ` FROM places p ORDER BY p.created_at DESC LIMIT $1`
	return r.collect(ctx, query, n)
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM places`).Scan(&n)
	return n, err
}
