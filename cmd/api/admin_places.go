package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"accessimaps/internal/domain/places"
	"accessimaps/internal/params"
)

type AdminPlaceListResponse struct {
	Places     []places.Place    `json:"places"`
	Pagination params.Pagination `json:"pagination"`
}

func (app *application) placeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, places.ErrNotFound):
		app.notFoundResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// @Summary		List places (admin)
// @Description	Paginated list of places, newest first, with an optional text filter on name, address and city.
// @Tags			admin-places
// @Produce		json
// @Param			q		query		string	false	"Text filter"
// @Param			page	query		int		false	"Page number"		default(1)
// @Param			limit	query		int		false	"Items per page"	default(12)
// @Success		200		{object}	AdminPlaceListResponse
// @Failure		401		{object}	ErrorResponse
// @Failure		403		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/places [get]
func (app *application) adminListPlacesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	p := params.ParsePagination(q)

	out, total, err := app.store.Places.ListAdmin(ctx, strings.TrimSpace(q.Get("q")), p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p.ComputeMeta(total)

	_ = app.jsonResponse(w, http.StatusOK, AdminPlaceListResponse{Places: out, Pagination: p})
}

// @Summary		Get a place (admin)
// @Tags			admin-places
// @Produce		json
// @Param			placeID	path		int	true	"Place ID"
// @Success		200		{object}	places.Place
// @Failure		404		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/places/{placeID} [get]
func (app *application) adminGetPlaceHandler(w http.ResponseWriter, r *http.Request) {
	placeID, err := idParam(r, "placeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	place, err := app.store.Places.GetByID(r.Context(), placeID)
	if err != nil {
		app.placeError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, place)
}

// @Summary		Update a place (admin)
// @Description	Replaces the descriptive fields of a place. Averages are untouched.
// @Tags			admin-places
// @Accept			json
// @Produce		json
// @Param			placeID	path		int				true	"Place ID"
// @Param			payload	body		PlacePayload	true	"Place"
// @Success		200		{object}	places.Place
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/places/{placeID} [put]
func (app *application) adminUpdatePlaceHandler(w http.ResponseWriter, r *http.Request) {
	placeID, err := idParam(r, "placeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	place, err := app.store.Places.GetByID(ctx, placeID)
	if err != nil {
		app.placeError(w, r, err)
		return
	}

	if err := decodePlace(w, r, place); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Places.Update(ctx, place); err != nil {
		app.placeError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, place)
}

// @Summary		Delete a place (admin)
// @Description	Deletes a place together with its ratings and comments.
// @Tags			admin-places
// @Produce		json
// @Param			placeID	path		int	true	"Place ID"
// @Success		200		{object}	places.DeleteResult
// @Failure		404		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/places/{placeID} [delete]
func (app *application) adminDeletePlaceHandler(w http.ResponseWriter, r *http.Request) {
	placeID, err := idParam(r, "placeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	res, err := app.store.Places.Delete(r.Context(), placeID)
	if err != nil {
		app.placeError(w, r, err)
		return
	}

	app.logger.Infow("place deleted", "place_id", placeID, "admin_id", getUserFromContext(r).ID,
		"ratings", res.DeletedRatings, "comments", res.DeletedComments)

	_ = app.jsonResponse(w, http.StatusOK, res)
}
