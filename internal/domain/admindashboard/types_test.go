package admindashboard

import (
	"testing"
	"time"
)

func TestMergeActivity(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	users := []Activity{
		{ID: 1, Type: ActivityUser, Timestamp: at(5)},
		{ID: 2, Type: ActivityUser, Timestamp: at(1)},
	}
	places := []Activity{{ID: 7, Type: ActivityPlace, Timestamp: at(3)}}
	ratings := []Activity{{ID: 9, Type: ActivityRating, Timestamp: at(4)}}

	got := MergeActivity(users, places, ratings)
	want := []int64{1, 9, 7, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected id %d got %d", i, id, got[i].ID)
		}
	}
}

func TestMergeActivityCaps(t *testing.T) {
	var feed []Activity
	for i := 0; i < 15; i++ {
		feed = append(feed, Activity{ID: int64(i), Timestamp: time.Unix(int64(i), 0)})
	}

	got := MergeActivity(feed)
	if len(got) != MaxActivity {
		t.Fatalf("expected %d entries got %d", MaxActivity, len(got))
	}
	if got[0].ID != 14 {
		t.Fatalf("expected newest first, got %d", got[0].ID)
	}
}

func TestMergeActivityEmpty(t *testing.T) {
	if got := MergeActivity(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}
