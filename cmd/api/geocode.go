package main

import (
	"context"
	"net/http"

	"accessimaps/internal/geocode"
)

type geocoder interface {
	Search(ctx context.Context, q string) ([]geocode.Candidate, error)
}

// geocodeHandler godoc
//
//	@Summary		Address autocomplete
//	@Description	Looks up French addresses. Queries under three characters return an empty list.
//	@Tags			geocode
//	@Produce		json
//	@Param			q	query		string	true	"Partial address"
//	@Success		200	{array}		geocode.Candidate
//	@Failure		502	{object}	ErrorResponse
//	@Router			/geocode [get]
func (app *application) geocodeHandler(w http.ResponseWriter, r *http.Request) {
	out, err := app.geocoder.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		app.badGatewayResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}
