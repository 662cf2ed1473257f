//go:build integration

package comments_test

import (
	"context"
	"errors"
	"testing"

	"accessimaps/internal/db/dbtest"
	"accessimaps/internal/domain/comments"
	"accessimaps/internal/domain/places"
	"accessimaps/internal/domain/users"
)

func TestDeleteRemovesThread(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	store := comments.NewRepository(pool)

	u := &users.User{Name: "alice", Email: "alice@example.com"}
	if err := u.Password.Set("password1"); err != nil {
		t.Fatal(err)
	}
	if err := users.NewRepository(pool).Create(ctx, u); err != nil {
		t.Fatal(err)
	}

	newPlace := func(name string) int64 {
		p := &places.Place{Name: name, Address: "Quai", City: "Paris", PostalCode: "75007", Type: places.Musee}
		if err := places.NewRepository(pool).Create(ctx, p); err != nil {
			t.Fatal(err)
		}
		return p.ID
	}
	louvre, orsay := newPlace("Louvre"), newPlace("Orsay")

	post := func(placeID int64, parent *int64, content string) *comments.Comment {
		c := &comments.Comment{PlaceID: placeID, UserID: u.ID, ParentID: parent, Content: content}
		if err := store.Create(ctx, c); err != nil {
			t.Fatal(err)
		}
		return c
	}

	root := post(louvre, nil, "Step-free entrance")
	reply := post(louvre, &root.ID, "Agreed")
	post(louvre, &reply.ID, "Lift at the back")
	other := post(louvre, nil, "Loud hall")

	err := store.Create(ctx, &comments.Comment{PlaceID: orsay, UserID: u.ID, ParentID: &root.ID, Content: "wrong place"})
	if !errors.Is(err, comments.ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent, got %v", err)
	}

	got, err := store.GetByID(ctx, root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.RepliesCount != 1 || got.PlaceName != "Louvre" {
		t.Fatalf("unexpected comment %+v", got)
	}

	n, err := store.Delete(ctx, root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected the whole thread of 3 removed, got %d", n)
	}

	if _, err := store.GetByID(ctx, reply.ID); !errors.Is(err, comments.ErrNotFound) {
		t.Fatalf("expected reply gone, got %v", err)
	}
	if _, err := store.GetByID(ctx, other.ID); err != nil {
		t.Fatalf("unrelated comment should survive: %v", err)
	}
}
