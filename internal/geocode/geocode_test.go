package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

const sample = `{
  "type": "FeatureCollection",
  "features": [
    {
      "geometry": {"type": "Point", "coordinates": [2.3522, 48.8566]},
      "properties": {"label": "8 Rue de Rivoli 75004 Paris", "name": "8 Rue de Rivoli", "postcode": "75004", "city": "Paris", "score": 0.93}
    },
    {
      "geometry": {"type": "Point", "coordinates": []},
      "properties": {"label": "broken"}
    }
  ]
}`

type memCache struct {
	mu   sync.Mutex
	data map[string][]Candidate
}

func (m *memCache) Get(_ context.Context, key string) ([]Candidate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, v []Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = v
	return nil
}

func TestSearch(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/search/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "8 rue de rivoli" || q.Get("limit") != "8" || q.Get("autocomplete") != "1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sample))
	}))
	defer srv.Close()

	cache := &memCache{data: map[string][]Candidate{}}
	c := NewClient(srv.Client(), srv.URL, cache)

	got, err := c.Search(context.Background(), "  8 Rue   de Rivoli ")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate got %d", len(got))
	}
	want := Candidate{Label: "8 Rue de Rivoli 75004 Paris", Name: "8 Rue de Rivoli", PostalCode: "75004", City: "Paris", Latitude: 48.8566, Longitude: 2.3522, Score: 0.93}
	if got[0] != want {
		t.Fatalf("expected %+v got %+v", want, got[0])
	}

	if _, err := c.Search(context.Background(), "8 rue de RIVOLI"); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected the second lookup to hit the cache, upstream called %d times", n)
	}
}

func TestSearchShortQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called for short queries")
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, nil)
	for _, q := range []string{"", "  ", "ab", " é "} {
		got, err := c.Search(context.Background(), q)
		if err != nil || got == nil || len(got) != 0 {
			t.Fatalf("%q: expected empty list, got %v %v", q, got, err)
		}
	}
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, nil)
	if _, err := c.Search(context.Background(), "paris"); err == nil {
		t.Fatal("expected an error")
	}
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]Candidate, bool, error) {
	return nil, false, errors.New("down")
}
func (brokenCache) Set(context.Context, string, []Candidate) error { return errors.New("down") }

func TestSearchCacheFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sample))
	}))
	defer srv.Close()

	var reported int
	c := NewClient(srv.Client(), srv.URL, brokenCache{})
	c.OnCacheError(func(error) { reported++ })

	got, err := c.Search(context.Background(), "rivoli")
	if err != nil || len(got) != 1 {
		t.Fatalf("expected result despite cache failure, got %v %v", got, err)
	}
	if reported != 2 {
		t.Fatalf("expected 2 cache errors reported, got %d", reported)
	}
}
