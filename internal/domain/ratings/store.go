package ratings

import (
	"context"
	"errors"
	"fmt"

	"accessimaps/internal/db"
	"accessimaps/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Upsert(ctx context.Context, rating *Rating) (*WriteResult, error)
	DeleteByUser(ctx context.Context, placeID, userID int64) (*WriteResult, error)
	Delete(ctx context.Context, ratingID int64) (*WriteResult, error)
	ListByPlace(ctx context.Context, placeID int64) ([]Rating, error)
	ListAll(ctx context.Context, p params.Pagination) ([]Rating, int, error)
	Recent(ctx context.Context, n int) ([]Rating, error)
	Count(ctx context.Context) (int, error)
	Reconcile(ctx context.Context) (int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// Upsert writes the user's rating for a place, replacing any previous one,
// then recomputes the place averages in the same transaction. The place row
// is locked first so concurrent writers for the same place serialize.
func (r *Repository) Upsert(ctx context.Context, rating *Rating) (*WriteResult, error) {
	if err := rating.Scores.Validate(); err != nil {
		return nil, err
	}

	res := &WriteResult{Rating: rating}

	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockPlace(ctx, tx, rating.PlaceID); err != nil {
			return err
		}

		const query = `
			INSERT INTO ratings (
				place_id, user_id,
				mobility_rating, visual_rating, hearing_rating,
				toilet_rating, parking_rating, guide_dog_rating
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (user_id, place_id) DO UPDATE SET
				mobility_rating  = EXCLUDED.mobility_rating,
				visual_rating    = EXCLUDED.visual_rating,
				hearing_rating   = EXCLUDED.hearing_rating,
				toilet_rating    = EXCLUDED.toilet_rating,
				parking_rating   = EXCLUDED.parking_rating,
				guide_dog_rating = EXCLUDED.guide_dog_rating,
				updated_at       = NOW()
			RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
		`
		s := rating.Scores
		err := tx.QueryRow(ctx, query,
			rating.PlaceID, rating.UserID,
			s.Mobility, s.Visual, s.Hearing, s.Toilet, s.Parking, s.GuideDog,
		).Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt, &res.Created)
		if err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		avg, err := Recompute(ctx, tx, rating.PlaceID)
		if err != nil {
			return err
		}
		res.Averages = avg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteByUser removes the rating a user left on a place.
func (r *Repository) DeleteByUser(ctx context.Context, placeID, userID int64) (*WriteResult, error) {
	res := &WriteResult{}

	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockPlace(ctx, tx, placeID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM ratings WHERE place_id = $1 AND user_id = $2`, placeID, userID)
		if err != nil {
			return fmt.Errorf("delete rating: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		res.Averages, err = Recompute(ctx, tx, placeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Delete removes any rating by id (moderation).
func (r *Repository) Delete(ctx context.Context, ratingID int64) (*WriteResult, error) {
	res := &WriteResult{}

	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var placeID int64
		err := tx.QueryRow(ctx, `SELECT place_id FROM ratings WHERE id = $1`, ratingID).Scan(&placeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if err := lockPlace(ctx, tx, placeID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM ratings WHERE id = $1`, ratingID)
		if err != nil {
			return fmt.Errorf("delete rating: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		res.Averages, err = Recompute(ctx, tx, placeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func lockPlace(ctx context.Context, tx pgx.Tx, placeID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM places WHERE id = $1 FOR UPDATE`, placeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPlaceNotFound
		}
		return fmt.Errorf("lock place %d: %w", placeID, err)
	}
	return nil
}

// Recompute refetches every rating of a place, aggregates them and writes the
// averages and count back onto the place row. Callers that may race with
// other writers should hold the place row lock.
func Recompute(ctx context.Context, q db.DBTX, placeID int64) (Averages, error) {
	rows, err := q.Query(ctx, `
		SELECT mobility_rating, visual_rating, hearing_rating,
		       toilet_rating, parking_rating, guide_dog_rating
		FROM ratings
		WHERE place_id = $1
	`, placeID)
	if err != nil {
		return Averages{}, err
	}
	defer rows.Close()

	var scores []Scores
	for rows.Next() {
		var s Scores
		if err := rows.Scan(&s.Mobility, &s.Visual, &s.Hearing, &s.Toilet, &s.Parking, &s.GuideDog); err != nil {
			return Averages{}, err
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return Averages{}, err
	}

	avg := Aggregate(scores)

	_, err = q.Exec(ctx, `
		UPDATE places SET
			average_mobility_rating  = $1,
			average_visual_rating    = $2,
			average_hearing_rating   = $3,
			average_toilet_rating    = $4,
			average_parking_rating   = $5,
			average_guide_dog_rating = $6,
			ratings_count            = $7,
			updated_at               = NOW()
		WHERE id = $8
	`, avg.Mobility, avg.Visual, avg.Hearing, avg.Toilet, avg.Parking, avg.GuideDog, avg.Count, placeID)
	if err != nil {
		return Averages{}, fmt.Errorf("write averages for place %d: %w", placeID, err)
	}

	return avg, nil
}

const ratingColumns = `
	r.id, r.place_id, r.user_id,
	r.mobility_rating, r.visual_rating, r.hearing_rating,
	r.toilet_rating, r.parking_rating, r.guide_dog_rating,
	r.created_at, r.updated_at, u.name, u.email, p.name, p.city
`

func scanRating(row pgx.Row, rt *Rating) error {
	return row.Scan(
		&rt.ID, &rt.PlaceID, &rt.UserID,
		&rt.Mobility, &rt.Visual, &rt.Hearing,
		&rt.Toilet, &rt.Parking, &rt.GuideDog,
		&rt.CreatedAt, &rt.UpdatedAt,
		&rt.UserName, &rt.UserEmail, &rt.PlaceName, &rt.PlaceCity,
	)
}

func (r *Repository) collect(ctx context.Context, query string, args ...any) ([]Rating, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := []Rating{}
	for rows.Next() {
		var rt Rating
		if err := scanRating(rows, &rt); err != nil {
			return nil, err
		}
		ratings = append(ratings, rt)
	}
	return ratings, rows.Err()
}

func (r *Repository) ListByPlace(ctx context.Context, placeID int64) ([]Rating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		JOIN places p ON p.id = r.place_id
		WHERE r.place_id = $1
		ORDER BY r.created_at DESC
	`
	return r.collect(ctx, query, placeID)
}

func (r *Repository) ListAll(ctx context.Context, p params.Pagination) ([]Rating, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + ratingColumns + `
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		JOIN places p ON p.id = r.place_id
		ORDER BY r.created_at DESC
		LIMIT $1 OFFSET $2
	`
	ratings, err := r.collect(ctx, query, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	return ratings, total, nil
}

func (r *Repository) Recent(ctx context.Context, n int) ([]Rating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		JOIN places p ON p.id = r.place_id
		ORDER BY r.created_at DESC
		LIMIT $1
	`
	return r.collect(ctx, query, n)
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&n)
	return n, err
}

// Reconcile recomputes the averages of every place whose stored values no
// longer match its ratings, and returns how many places were fixed.
func (r *Repository) Reconcile(ctx context.Context) (int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id
		FROM places p
		LEFT JOIN (
			SELECT place_id, COUNT(*) AS n,
				AVG(mobility_rating) AS mobility, AVG(visual_rating) AS visual,
				AVG(hearing_rating) AS hearing, AVG(toilet_rating) AS toilet,
				AVG(parking_rating) AS parking, AVG(guide_dog_rating) AS guide_dog
			FROM ratings
			GROUP BY place_id
		) a ON a.place_id = p.id
		WHERE p.ratings_count <> COALESCE(a.n, 0)
			OR ABS(p.average_mobility_rating - COALESCE(a.mobility, 0)) > 1e-9
			OR ABS(p.average_visual_rating - COALESCE(a.visual, 0)) > 1e-9
			OR ABS(p.average_hearing_rating - COALESCE(a.hearing, 0)) > 1e-9
			OR ABS(p.average_toilet_rating - COALESCE(a.toilet, 0)) > 1e-9
			OR ABS(p.average_parking_rating - COALESCE(a.parking, 0)) > 1e-9
			OR ABS(p.average_guide_dog_rating - COALESCE(a.guide_dog, 0)) > 1e-9
		ORDER BY p.id
	`)
	if err != nil {
		return 0, err
	}
	placeIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, placeID := range placeIDs {
		err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
			if err := lockPlace(ctx, tx, placeID); err != nil {
				return err
			}
			_, err := Recompute(ctx, tx, placeID)
			return err
		})
		if errors.Is(err, ErrPlaceNotFound) {
			// deleted since the scan
			continue
		}
		if err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}
