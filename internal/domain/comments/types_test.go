package comments

import (
	"testing"
	"time"
)

func TestBuildTree(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	id := func(n int64) *int64 { return &n }

	flat := []Comment{
		{ID: 1, Content: "first root", CreatedAt: base},
		{ID: 2, Content: "second root", CreatedAt: base.Add(time.Hour)},
		{ID: 3, ParentID: id(1), Content: "late reply", CreatedAt: base.Add(3 * time.Hour)},
		{ID: 4, ParentID: id(1), Content: "early reply", CreatedAt: base.Add(2 * time.Hour)},
		{ID: 5, ParentID: id(4), Content: "nested", CreatedAt: base.Add(4 * time.Hour)},
		{ID: 6, ParentID: id(99), Content: "orphan", CreatedAt: base.Add(-time.Hour)},
	}

	roots := BuildTree(flat)

	if len(roots) != 3 {
		t.Fatalf("expected 3 roots got %d", len(roots))
	}
	if roots[0].ID != 2 || roots[1].ID != 1 || roots[2].ID != 6 {
		t.Fatalf("expected roots newest first, got %d %d %d", roots[0].ID, roots[1].ID, roots[2].ID)
	}

	first := roots[1]
	if first.RepliesCount != 2 || first.Replies[0].ID != 4 || first.Replies[1].ID != 3 {
		t.Fatalf("expected replies oldest first, got %+v", first.Replies)
	}

	nested := first.Replies[0].Replies
	if len(nested) != 1 || nested[0].ID != 5 {
		t.Fatalf("expected nested reply under 4, got %+v", nested)
	}

	if flat[0].Replies != nil {
		t.Fatal("input slice must not be mutated")
	}
}

func TestBuildTreeEmpty(t *testing.T) {
	roots := BuildTree(nil)
	if roots == nil || len(roots) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", roots)
	}
}
