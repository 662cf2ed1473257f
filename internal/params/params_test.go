package params

import (
	"net/url"
	"testing"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", 1, DefaultLimit},
		{"explicit", "page=3&limit=20", 3, 20},
		{"limit capped", "limit=500", 1, MaxLimit},
		{"garbage", "page=abc&limit=-4", 1, DefaultLimit},
		{"zero page", "page=0", 1, DefaultLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tc.query)
			p := ParsePagination(q)
			if p.Page != tc.wantPage || p.Limit != tc.wantLimit {
				t.Fatalf("expected page=%d limit=%d got page=%d limit=%d", tc.wantPage, tc.wantLimit, p.Page, p.Limit)
			}
			if p.Offset != (p.Page-1)*p.Limit {
				t.Fatalf("unexpected offset %d", p.Offset)
			}
		})
	}
}

func TestComputeMetaAndBounds(t *testing.T) {
	q, _ := url.ParseQuery("page=2&limit=12")
	p := ParsePagination(q)
	p.ComputeMeta(25)

	if p.TotalPages != 3 {
		t.Fatalf("expected 3 pages got %d", p.TotalPages)
	}
	if !p.HasNext || !p.HasPrev {
		t.Fatalf("expected has_next and has_prev, got %+v", p)
	}

	start, end := p.Bounds(25)
	if start != 12 || end != 24 {
		t.Fatalf("expected [12,24) got [%d,%d)", start, end)
	}

	q, _ = url.ParseQuery("page=9&limit=12")
	p = ParsePagination(q)
	start, end = p.Bounds(25)
	if start != 25 || end != 25 {
		t.Fatalf("expected empty window past the end, got [%d,%d)", start, end)
	}
}

func TestHugePage(t *testing.T) {
	q, _ := url.ParseQuery("page=9223372036854775807&limit=12")
	p := ParsePagination(q)

	if p.Offset < 0 {
		t.Fatalf("offset overflowed: %d", p.Offset)
	}

	p.ComputeMeta(30)
	if p.HasNext {
		t.Fatal("a page past the end has no next page")
	}

	start, end := p.Bounds(30)
	if start != 30 || end != 30 {
		t.Fatalf("expected empty window, got [%d,%d)", start, end)
	}

	start, end = Pagination{Offset: -5, Limit: 12}.Bounds(30)
	if start != 0 || end != 12 {
		t.Fatalf("expected negative offset clamped, got [%d,%d)", start, end)
	}
}
