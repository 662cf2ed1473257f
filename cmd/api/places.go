package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"accessimaps/internal/domain/comments"
	"accessimaps/internal/domain/places"
	"accessimaps/internal/domain/ratings"
	"accessimaps/internal/params"
	"accessimaps/internal/search"
)

type PlacePayload struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Address     string   `json:"address" validate:"required,max=255"`
	City        string   `json:"city" validate:"required,max=100"`
	PostalCode  string   `json:"postal_code" validate:"required,max=20"`
	Type        string   `json:"type" validate:"required,placetype"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Website     *string  `json:"website" validate:"omitempty,url,max=255"`
	Phone       *string  `json:"phone" validate:"omitempty,max=30"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,max=2048"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// optional treats blank strings as absent.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

var errHalfCoordinates = errors.New("latitude and longitude must be given together")

// decodePlace reads and validates a place payload onto p.
func decodePlace(w http.ResponseWriter, r *http.Request, p *places.Place) error {
	var payload PlacePayload
	if err := readJSON(w, r, &payload); err != nil {
		return err
	}

	payload.Description = optional(payload.Description)
	payload.Website = optional(payload.Website)
	payload.Phone = optional(payload.Phone)
	payload.ImageURL = optional(payload.ImageURL)

	if err := Validate.Struct(payload); err != nil {
		return err
	}
	if (payload.Latitude == nil) != (payload.Longitude == nil) {
		return errHalfCoordinates
	}

	p.Name = strings.TrimSpace(payload.Name)
	p.Address = strings.TrimSpace(payload.Address)
	p.City = strings.TrimSpace(payload.City)
	p.PostalCode = strings.TrimSpace(payload.PostalCode)
	p.Type = places.Type(payload.Type)
	p.Description = payload.Description
	p.Website = payload.Website
	p.Phone = payload.Phone
	p.ImageURL = payload.ImageURL
	p.Latitude = payload.Latitude
	p.Longitude = payload.Longitude
	return nil
}

// PlaceHit is a search result; Distance is set only for geolocated searches.
type PlaceHit struct {
	places.Place
	Distance *float64 `json:"distance,omitempty"`
}

type PlaceListResponse struct {
	Places     []PlaceHit        `json:"places"`
	Pagination params.Pagination `json:"pagination"`
}

type PlaceDetailResponse struct {
	*places.Place
	Ratings  []ratings.Rating    `json:"ratings"`
	Comments []*comments.Comment `json:"comments"`
}

// listPlacesHandler godoc
//
//	@Summary		Search places
//	@Description	Filters, ranks and paginates places. With lat/lon results are ordered by distance and places without coordinates are left out; otherwise by mobility average then newest.
//	@Tags			places
//	@Produce		json
//	@Param			q					query		string	false	"Text in name, address or description"
//	@Param			type				query		string	false	"Category, or all"
//	@Param			city				query		string	false	"City substring"
//	@Param			minRating			query		number	false	"Minimum mobility average"
//	@Param			minMobilityRating	query		number	false	"Minimum mobility average"
//	@Param			minVisualRating		query		number	false	"Minimum visual average"
//	@Param			minHearingRating	query		number	false	"Minimum hearing average"
//	@Param			minToiletRating		query		number	false	"Minimum toilet average"
//	@Param			minParkingRating	query		number	false	"Minimum parking average"
//	@Param			minGuideDogRating	query		number	false	"Minimum guide dog average"
//	@Param			lat					query		number	false	"Latitude"
//	@Param			lon					query		number	false	"Longitude"
//	@Param			radius				query		number	false	"Radius in km"
//	@Param			page				query		int		false	"Page number"		default(1)
//	@Param			limit				query		int		false	"Items per page"	default(12)
//	@Success		200					{object}	PlaceListResponse
//	@Failure		500					{object}	ErrorResponse
//	@Router			/places [get]
func (app *application) listPlacesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := search.ParseQuery(r.URL.Query())

	candidates, err := app.store.Places.Search(ctx, q)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	res := search.Run(candidates, q)

	hits := make([]PlaceHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, PlaceHit{Place: h.Item, Distance: h.Distance})
	}

	resp := PlaceListResponse{Places: hits, Pagination: res.Pagination}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getPlaceHandler godoc
//
//	@Summary		Place detail
//	@Description	Returns a place with its ratings and its comment tree.
//	@Tags			places
//	@Produce		json
//	@Param			placeID	path		int	true	"Place ID"
//	@Success		200		{object}	PlaceDetailResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/places/{placeID} [get]
func (app *application) getPlaceHandler(w http.ResponseWriter, r *http.Request) {
	placeID, err := idParam(r, "placeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	place, err := app.store.Places.GetByID(ctx, placeID)
	if err != nil {
		switch {
		case errors.Is(err, places.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	rts, err := app.store.Ratings.ListByPlace(ctx, placeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	tree, err := app.store.Comments.ListByPlace(ctx, placeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := PlaceDetailResponse{Place: place, Ratings: rts, Comments: tree}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createPlaceHandler godoc
//
//	@Summary		Create a place
//	@Description	Adds a place to the directory. Averages start at zero.
//	@Tags			places
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		PlacePayload	true	"Place"
//	@Success		201		{object}	places.Place
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/places [post]
func (app *application) createPlaceHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	place := &places.Place{CreatedBy: &user.ID}
	if err := decodePlace(w, r, place); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Places.Create(r.Context(), place); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("place created", "place_id", place.ID, "user_id", user.ID)

	if err := app.jsonResponse(w, http.StatusCreated, place); err != nil {
		app.internalServerError(w, r, err)
	}
}
