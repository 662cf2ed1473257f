package admindashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) GetOverview(ctx context.Context) (*Overview, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_admin),
			(SELECT COUNT(*) FROM users WHERE is_banned),
			(SELECT COUNT(*) FROM places),
			(SELECT COUNT(*) FROM ratings),
			(SELECT COUNT(*) FROM comments)
	`

	var o Overview
	err := r.db.QueryRow(ctx, q).Scan(
		&o.TotalUsers,
		&o.TotalAdmins,
		&o.TotalBanned,
		&o.TotalPlaces,
		&o.TotalRatings,
		&o.TotalComments,
	)
	if err != nil {
		return nil, fmt.Errorf("get admin overview: %w", err)
	}

	users, err := r.feed(ctx, ActivityUser, `
		SELECT id, 'New user: ' || COALESCE(NULLIF(name, ''), email), created_at
		FROM users ORDER BY created_at DESC LIMIT $1
	`, RecentUsers)
	if err != nil {
		return nil, err
	}

	places, err := r.feed(ctx, ActivityPlace, `
		SELECT id, 'New place: ' || name || ' in ' || city, created_at
		FROM places ORDER BY created_at DESC LIMIT $1
	`, RecentPlaces)
	if err != nil {
		return nil, err
	}

	ratings, err := r.feed(ctx, ActivityRating, `
		SELECT r.id, COALESCE(NULLIF(u.name, ''), u.email) || ' rated ' || p.name, r.created_at
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		JOIN places p ON p.id = r.place_id
		ORDER BY r.created_at DESC LIMIT $1
	`, RecentRatings)
	if err != nil {
		return nil, err
	}

	o.RecentActivity = MergeActivity(users, places, ratings)
	return &o, nil
}

func (r *Repository) feed(ctx context.Context, typ ActivityType, query string, n int) ([]Activity, error) {
	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("recent %s activity: %w", typ, err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Activity, error) {
		a := Activity{Type: typ}
		err := row.Scan(&a.ID, &a.Description, &a.Timestamp)
		return a, err
	})
}
