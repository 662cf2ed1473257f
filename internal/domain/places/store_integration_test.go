//go:build integration

package places_test

import (
	"context"
	"errors"
	"testing"

	"accessimaps/internal/db/dbtest"
	"accessimaps/internal/domain/comments"
	"accessimaps/internal/domain/places"
	"accessimaps/internal/domain/ratings"
	"accessimaps/internal/domain/users"
	"accessimaps/internal/params"
)

func TestDeleteCascades(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	store := places.NewRepository(pool)

	u := &users.User{Name: "alice", Email: "alice@example.com"}
	if err := u.Password.Set("password1"); err != nil {
		t.Fatal(err)
	}
	if err := users.NewRepository(pool).Create(ctx, u); err != nil {
		t.Fatal(err)
	}

	p := &places.Place{Name: "Louvre", Address: "Rue de Rivoli", City: "Paris", PostalCode: "75001", Type: places.Musee}
	if err := store.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	s := ratings.Scores{Mobility: 3, Visual: 3, Hearing: 3, Toilet: 3, Parking: 3, GuideDog: 3}
	if _, err := ratings.NewRepository(pool).Upsert(ctx, &ratings.Rating{PlaceID: p.ID, UserID: u.ID, Scores: s}); err != nil {
		t.Fatal(err)
	}
	cs := comments.NewRepository(pool)
	root := &comments.Comment{PlaceID: p.ID, UserID: u.ID, Content: "Ramp"}
	if err := cs.Create(ctx, root); err != nil {
		t.Fatal(err)
	}
	if err := cs.Create(ctx, &comments.Comment{PlaceID: p.ID, UserID: u.ID, ParentID: &root.ID, Content: "Thanks"}); err != nil {
		t.Fatal(err)
	}

	list, total, err := store.ListAdmin(ctx, "louv", params.Pagination{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(list) != 1 || list[0].CommentsCount != 2 {
		t.Fatalf("unexpected admin list %d %+v", total, list)
	}

	res, err := store.Delete(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.DeletedRatings != 1 || res.DeletedComments != 2 {
		t.Fatalf("unexpected delete result %+v", res)
	}

	if _, err := store.GetByID(ctx, p.ID); !errors.Is(err, places.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n, err := cs.Count(ctx); err != nil || n != 0 {
		t.Fatalf("expected comments cascaded, have %d (%v)", n, err)
	}
}
