// Package geocode proxies address autocomplete to the French national
// address API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultBaseURL = "https://api-adresse.data.gouv.fr"
	MinQueryLength = 3
	MaxResults     = 8
)

type Candidate struct {
	Label      string  `json:"label"`
	Name       string  `json:"name"`
	PostalCode string  `json:"postal_code"`
	City       string  `json:"city"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Score      float64 `json:"score"`
}

// Cache stores candidate lists by normalized query. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]Candidate, bool, error)
	Set(ctx context.Context, key string, value []Candidate) error
}

// Client calls the address API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      Cache
	onCacheErr func(error)
}

// NewClient constructs a client. cache may be nil.
func NewClient(httpClient *http.Client, baseURL string, cache Cache) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      cache,
		onCacheErr: func(error) {},
	}
}

// OnCacheError registers a callback for cache failures, which never fail a
// lookup.
func (c *Client) OnCacheError(fn func(error)) {
	if fn != nil {
		c.onCacheErr = fn
	}
}

func normalize(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

type featureCollection struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label    string  `json:"label"`
			Name     string  `json:"name"`
			Postcode string  `json:"postcode"`
			City     string  `json:"city"`
			Score    float64 `json:"score"`
		} `json:"properties"`
	} `json:"features"`
}

// Search returns up to MaxResults candidates for q. Queries shorter than
// MinQueryLength return an empty list without calling the API.
func (c *Client) Search(ctx context.Context, q string) ([]Candidate, error) {
	key := normalize(q)
	if utf8.RuneCountInString(key) < MinQueryLength {
		return []Candidate{}, nil
	}

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.onCacheErr(err)
		} else if ok {
			return cached, nil
		}
	}

	// Per-call timeout
	ctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("q", key)
	params.Set("limit", fmt.Sprint(MaxResults))
	params.Set("autocomplete", "1")

	endpoint := fmt.Sprintf("%s/search/?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocode: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("geocode: decode: %w", err)
	}

	out := make([]Candidate, 0, len(fc.Features))
	for _, f := range fc.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		p := f.Properties
		out = append(out, Candidate{
			Label:      p.Label,
			Name:       p.Name,
			PostalCode: p.Postcode,
			City:       p.City,
			Longitude:  f.Geometry.Coordinates[0],
			Latitude:   f.Geometry.Coordinates[1],
			Score:      p.Score,
		})
		if len(out) == MaxResults {
			break
		}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, out); err != nil {
			c.onCacheErr(err)
		}
	}

	return out, nil
}
