package main

import (
	"context"
	"net/http"
	"time"
)

// adminStatsHandler godoc
//
//	@Summary		Admin overview totals
//	@Description	Returns totals for the admin dashboard and a feed of recent activity.
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	admindashboard.Overview
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/stats [get]
func (app *application) adminStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	out, err := app.store.Dashboard.GetOverview(ctx)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, out)
}

type SettingsResponse struct {
	AdminCount int    `json:"admin_count"`
	Version    string `json:"version"`
	Env        string `json:"env"`
}

// adminSettingsHandler godoc
//
//	@Summary		Admin settings
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/settings [get]
func (app *application) adminSettingsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := app.store.Users.CountAdmins(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, SettingsResponse{
		AdminCount: n,
		Version:    version,
		Env:        app.config.env,
	})
}
