package ratings

import (
	"math"
	"testing"
)

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil)
	if got != (Averages{}) {
		t.Fatalf("expected zero averages, got %+v", got)
	}
}

func TestAggregateMeans(t *testing.T) {
	scores := []Scores{
		{Mobility: 5, Visual: 1, Hearing: 3, Toilet: 4, Parking: 2, GuideDog: 5},
		{Mobility: 4, Visual: 2, Hearing: 3, Toilet: 1, Parking: 2, GuideDog: 5},
		{Mobility: 3, Visual: 3, Hearing: 4, Toilet: 2, Parking: 5, GuideDog: 1},
	}

	got := Aggregate(scores)
	if got.Count != 3 {
		t.Fatalf("expected count 3 got %d", got.Count)
	}

	for _, d := range Dimensions {
		sum := 0
		for _, s := range scores {
			sum += s.Get(d)
		}
		want := float64(sum) / 3
		if math.Abs(got.Get(d)-want) > 1e-9 {
			t.Errorf("%s: expected %.4f got %.4f", d, want, got.Get(d))
		}
	}
}

func TestScoresValidate(t *testing.T) {
	ok := Scores{Mobility: 1, Visual: 2, Hearing: 3, Toilet: 4, Parking: 5, GuideDog: 1}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := ok
	bad.Parking = 6
	if err := bad.Validate(); err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange got %v", err)
	}

	bad = ok
	bad.GuideDog = 0
	if err := bad.Validate(); err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange got %v", err)
	}
}

func TestColumn(t *testing.T) {
	if got := Column(GuideDog); got != "average_guide_dog_rating" {
		t.Fatalf("unexpected column %q", got)
	}
}
