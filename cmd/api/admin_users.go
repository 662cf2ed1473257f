package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"accessimaps/internal/domain/users"
	"accessimaps/internal/params"
)

type AdminUserListResponse struct {
	Users      []users.Member    `json:"users"`
	Pagination params.Pagination `json:"pagination"`
}

func (app *application) userError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, users.ErrBanSelf),
		errors.Is(err, users.ErrBanAdmin),
		errors.Is(err, users.ErrAlreadyAdmin),
		errors.Is(err, users.ErrSelfRemoval),
		errors.Is(err, users.ErrLastAdmin),
		errors.Is(err, users.ErrNotAdmin),
		errors.Is(err, users.ErrEraseAdmin):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, users.ErrDuplicateEmail):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// @Summary		List members (admin)
// @Description	Paginated list of non-admin accounts with their activity counts.
// @Tags			admin-users
// @Produce		json
// @Param			page	query		int	false	"Page number"		default(1)
// @Param			limit	query		int	false	"Items per page"	default(12)
// @Success		200		{object}	AdminUserListResponse
// @Security		ApiKeyAuth
// @Router			/admin/users [get]
func (app *application) adminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())

	out, total, err := app.store.Users.ListNonAdmins(ctx, p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p.ComputeMeta(total)

	_ = app.jsonResponse(w, http.StatusOK, AdminUserListResponse{Users: out, Pagination: p})
}

func (app *application) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	userID, err := idParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	actor := getUserFromContext(r)

	if err := app.store.Users.SetBanned(r.Context(), actor.ID, userID, banned); err != nil {
		app.userError(w, r, err)
		return
	}

	app.logger.Infow("user ban changed", "user_id", userID, "banned", banned, "admin_id", actor.ID)

	w.WriteHeader(http.StatusNoContent)
}

// @Summary		Ban a member
// @Description	Bans a member. Banned accounts cannot sign in or use their tokens.
// @Tags			admin-users
// @Param			userID	path	int	true	"User ID"
// @Success		204		"No Content"
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/users/{userID}/ban [post]
func (app *application) adminBanUserHandler(w http.ResponseWriter, r *http.Request) {
	app.setBanned(w, r, true)
}

// @Summary		Unban a member
// @Tags			admin-users
// @Param			userID	path	int	true	"User ID"
// @Success		204		"No Content"
// @Failure		404		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/users/{userID}/unban [post]
func (app *application) adminUnbanUserHandler(w http.ResponseWriter, r *http.Request) {
	app.setBanned(w, r, false)
}

// @Summary		Promote a member to admin
// @Tags			admin-users
// @Param			userID	path	int	true	"User ID"
// @Success		204		"No Content"
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/users/{userID}/promote [post]
func (app *application) adminPromoteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Users.Promote(r.Context(), userID); err != nil {
		app.userError(w, r, err)
		return
	}

	app.logger.Infow("user promoted", "user_id", userID, "admin_id", getUserFromContext(r).ID)

	w.WriteHeader(http.StatusNoContent)
}

// @Summary		Delete a member
// @Description	Deletes a member account with its ratings and comments. Averages of the places it rated are recomputed.
// @Tags			admin-users
// @Param			userID	path	int	true	"User ID"
// @Success		204		"No Content"
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/users/{userID} [delete]
func (app *application) adminDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Users.Delete(r.Context(), userID); err != nil {
		app.userError(w, r, err)
		return
	}

	app.logger.Infow("user deleted", "user_id", userID, "admin_id", getUserFromContext(r).ID)

	w.WriteHeader(http.StatusNoContent)
}
