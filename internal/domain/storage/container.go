package storage

import (
	"accessimaps/internal/domain/admindashboard"
	"accessimaps/internal/domain/comments"
	"accessimaps/internal/domain/places"
	"accessimaps/internal/domain/ratings"
	"accessimaps/internal/domain/users"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	Users     users.Store
	Places    places.Store
	Ratings   ratings.Store
	Comments  comments.Store
	Dashboard admindashboard.Store
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		Users:     users.NewRepository(db),
		Places:    places.NewRepository(db),
		Ratings:   ratings.NewRepository(db),
		Comments:  comments.NewRepository(db),
		Dashboard: admindashboard.NewRepository(db),
	}
}
