// Package search implements the place search pipeline: query parsing,
// filtering, great-circle distance, ranking and pagination.
package search

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"accessimaps/internal/domain/ratings"
	"accessimaps/internal/params"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Fields is the view of a place the pipeline works on.
type Fields struct {
	Name        string
	Address     string
	Description string
	City        string
	Type        string
	Averages    ratings.Averages
	Latitude    *float64
	Longitude   *float64
	CreatedAt   time.Time
}

type Candidate interface {
	SearchFields() Fields
}

type Query struct {
	Text       string
	Type       string
	City       string
	Min        map[ratings.Dimension]float64
	Geo        *Point
	RadiusKm   *float64
	Pagination params.Pagination
}

// thresholdParams maps query parameters to the average they constrain.
// minRating is the historical name for the mobility threshold.
var thresholdParams = []struct {
	key string
	dim ratings.Dimension
}{
	{"minRating", ratings.Mobility},
	{"minMobilityRating", ratings.Mobility},
	{"minVisualRating", ratings.Visual},
	{"minHearingRating", ratings.Hearing},
	{"minToiletRating", ratings.Toilet},
	{"minParkingRating", ratings.Parking},
	{"minGuideDogRating", ratings.GuideDog},
}

// ParseQuery builds a Query from request parameters. Nothing is required and
// nothing fails: "all", empty and malformed values impose no constraint.
func ParseQuery(q url.Values) Query {
	query := Query{
		Text:       strings.TrimSpace(q.Get("q")),
		City:       strings.TrimSpace(q.Get("city")),
		Min:        map[ratings.Dimension]float64{},
		Pagination: params.ParsePagination(q),
	}

	if t := strings.TrimSpace(q.Get("type")); t != "" && !strings.EqualFold(t, "all") {
		query.Type = t
	}

	for _, tp := range thresholdParams {
		v, ok := parseNumber(q.Get(tp.key))
		if !ok {
			continue
		}
		// the stricter of two aliases wins
		if cur, seen := query.Min[tp.dim]; !seen || v > cur {
			query.Min[tp.dim] = v
		}
	}

	lat, latOK := parseNumber(q.Get("lat"))
	lon, lonOK := parseNumber(q.Get("lon"))
	if latOK && lonOK && lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 {
		query.Geo = &Point{Lat: lat, Lon: lon}
		if radius, ok := parseNumber(q.Get("radius")); ok && radius > 0 {
			query.RadiusKm = &radius
		}
	}

	return query
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Matches reports whether f satisfies every predicate of the query.
func (q Query) Matches(f Fields) bool {
	if q.Text != "" {
		needle := strings.ToLower(q.Text)
		if !strings.Contains(strings.ToLower(f.Name), needle) &&
			!strings.Contains(strings.ToLower(f.Address), needle) &&
			!strings.Contains(strings.ToLower(f.Description), needle) {
			return false
		}
	}

	if q.Type != "" && f.Type != q.Type {
		return false
	}

	if q.City != "" && !strings.Contains(strings.ToLower(f.City), strings.ToLower(q.City)) {
		return false
	}

	for dim, threshold := range q.Min {
		if f.Averages.Get(dim) < threshold {
			return false
		}
	}

	return true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains turns s into an ILIKE substring pattern with wildcards escaped.
func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Where renders the query predicates as a SQL condition over the places
// table, numbering placeholders from startArg. It returns "TRUE" when there
// is nothing to filter on.
func (q Query) Where(startArg int) (string, []any) {
	var (
		where []string
		args  []any
		n     = startArg
	)

	if q.Text != "" {
		where = append(where, fmt.Sprintf(
			"(name ILIKE $%d OR address ILIKE $%d OR COALESCE(description, '') ILIKE $%d)",
			n, n, n,
		))
		args = append(args, contains(q.Text))
		n++
	}

	if q.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", n))
		args = append(args, q.Type)
		n++
	}

	if q.City != "" {
		where = append(where, fmt.Sprintf("city ILIKE $%d", n))
		args = append(args, contains(q.City))
		n++
	}

	for _, dim := range ratings.Dimensions {
		threshold, ok := q.Min[dim]
		if !ok {
			continue
		}
		where = append(where, fmt.Sprintf("%s >= $%d", ratings.Column(dim), n))
		args = append(args, threshold)
		n++
	}

	if len(where) == 0 {
		return "TRUE", nil
	}
	return strings.Join(where, " AND "), args
}

// Distance is the great-circle distance between a and b in kilometres,
// rounded to two decimals.
func Distance(a, b Point) float64 {
	dLat := deg2rad(b.Lat - a.Lat)
	dLon := deg2rad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Lat))*math.Cos(deg2rad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h just past 1 for antipodal points
	h = math.Min(math.Max(h, 0), 1)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Round(EarthRadiusKm*c*100) / 100
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180
}

type Hit[T Candidate] struct {
	Item     T
	Distance *float64
}

type Result[T Candidate] struct {
	Hits       []Hit[T]
	Pagination params.Pagination
}

// Run filters, measures, ranks and paginates items.
//
// With a geolocation, places without coordinates are dropped, places beyond
// the radius are dropped, and the rest are ordered nearest first. Without
// one, order is by mobility average then newest. Total counts every hit that
// survived filtering, before the page slice.
func Run[T Candidate](items []T, q Query) Result[T] {
	hits := make([]Hit[T], 0, len(items))
	created := make([]time.Time, 0, len(items))
	mobility := make([]float64, 0, len(items))

	for _, it := range items {
		f := it.SearchFields()
		if !q.Matches(f) {
			continue
		}

		h := Hit[T]{Item: it}
		if q.Geo != nil {
			if f.Latitude == nil || f.Longitude == nil {
				continue
			}
			d := Distance(*q.Geo, Point{Lat: *f.Latitude, Lon: *f.Longitude})
			if q.RadiusKm != nil && d > *q.RadiusKm {
				continue
			}
			h.Distance = &d
		}

		hits = append(hits, h)
		created = append(created, f.CreatedAt)
		mobility = append(mobility, f.Averages.Mobility)
	}

	idx := make([]int, len(hits))
	for i := range idx {
		idx[i] = i
	}

	if q.Geo != nil {
		sort.SliceStable(idx, func(a, b int) bool {
			return *hits[idx[a]].Distance < *hits[idx[b]].Distance
		})
	} else {
		sort.SliceStable(idx, func(a, b int) bool {
			ia, ib := idx[a], idx[b]
			if mobility[ia] != mobility[ib] {
				return mobility[ia] > mobility[ib]
			}
			return created[ia].After(created[ib])
		})
	}

	p := q.Pagination
	if p.Limit <= 0 {
		p = params.ParsePagination(url.Values{})
	}
	p.ComputeMeta(len(hits))

	start, end := p.Bounds(len(hits))
	page := make([]Hit[T], 0, end-start)
	for _, i := range idx[start:end] {
		page = append(page, hits[i])
	}

	return Result[T]{Hits: page, Pagination: p}
}
