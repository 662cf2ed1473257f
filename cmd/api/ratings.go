package main

import (
	"errors"
	"net/http"

	"accessimaps/internal/domain/ratings"
)

// ratingError maps rating store errors onto responses.
func (app *application) ratingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ratings.ErrPlaceNotFound), errors.Is(err, ratings.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, ratings.ErrOutOfRange):
		app.badRequestResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// listPlaceRatingsHandler godoc
//
//	@Summary		Ratings of a place
//	@Tags			ratings
//	@Produce		json
//	@Param			placeID	path		int	true	"Place ID"
//	@Success		200		{array}		ratings.Rating
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/places/{placeID}/ratings [get]
func (app *application) listPlaceRatingsHandler(w http.ResponseWriter, r *http.Request) {
	placeID, err := idParam(r, "placeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	out, err := app.store.Ratings.ListByPlace(r.Context(), placeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// upsertRatingHandler godoc
//
//	@Summary		Rate a place
//	@Description	Creates the caller's rating for a place or replaces the previous one, then returns the place's recomputed averages. Every score is an integer from 1 to 5.
//	@Tags			ratings
//	@Accept			json
//	@Produce		json
//	@Param			placeID	path		int				true	"Place ID"
//	@Param			payload	body		ratings.Scores	true	"Scores"
//	@Success		201		{object}	ratings.WriteResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/places/{placeID}/ratings [post]
func (app *application) upsertRatingHandler(w http.ResponseWriter, r *http.Request) {
	placeID, err := idParam(r, "placeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ratings.Scores
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	res, err := app.store.Ratings.Upsert(r.Context(), &ratings.Rating{
		PlaceID: placeID,
		UserID:  user.ID,
		Scores:  payload,
	})
	if err != nil {
		app.ratingError(w, r, err)
		return
	}

	app.logger.Infow("rating saved", "place_id", placeID, "user_id", user.ID, "created", res.Created)

	if err := app.jsonResponse(w, http.StatusCreated, res); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteOwnRatingHandler godoc
//
//	@Summary		Withdraw a rating
//	@Description	Deletes the caller's rating for a place and returns the recomputed averages.
//	@Tags			ratings
//	@Produce		json
//	@Param			placeID	path		int	true	"Place ID"
//	@Success		200		{object}	ratings.WriteResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/places/{placeID}/ratings [delete]
func (app *application) deleteOwnRatingHandler(w http.ResponseWriter, r *http.Request) {
	placeID, err := idParam(r, "placeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	res, err := app.store.Ratings.DeleteByUser(r.Context(), placeID, user.ID)
	if err != nil {
		app.ratingError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, res); err != nil {
		app.internalServerError(w, r, err)
	}
}
