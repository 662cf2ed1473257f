package main

import (
	"net/http"
	"strings"

	"accessimaps/internal/domain/users"
)

type CreateAdminPayload struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required,max=72"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

var errWrongPassword = errInvalidRequest("current password is incorrect")

// @Summary		List admins
// @Tags			admin-admins
// @Produce		json
// @Success		200	{array}	users.Member
// @Security		ApiKeyAuth
// @Router			/admin/admins [get]
func (app *application) adminListAdminsHandler(w http.ResponseWriter, r *http.Request) {
	out, err := app.store.Users.ListAdmins(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, out)
}

// @Summary		Create an admin
// @Tags			admin-admins
// @Accept			json
// @Produce		json
// @Param			payload	body		CreateAdminPayload	true	"Admin account"
// @Success		201		{object}	users.User
// @Failure		400		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/admins [post]
func (app *application) adminCreateAdminHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateAdminPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	payload.Name = strings.TrimSpace(payload.Name)

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &users.User{Name: payload.Name, Email: payload.Email, IsAdmin: true}
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user); err != nil {
		app.userError(w, r, err)
		return
	}

	app.logger.Infow("admin created", "user_id", user.ID, "admin_id", getUserFromContext(r).ID)

	_ = app.jsonResponse(w, http.StatusCreated, user)
}

func (app *application) removeAdmin(w http.ResponseWriter, r *http.Request, how users.Removal) {
	userID, err := idParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	actor := getUserFromContext(r)

	if err := app.store.Users.RemoveAdmin(r.Context(), actor.ID, userID, how); err != nil {
		app.userError(w, r, err)
		return
	}

	app.logger.Infow("admin removed", "user_id", userID, "erased", how == users.Erase, "admin_id", actor.ID)

	w.WriteHeader(http.StatusNoContent)
}

// @Summary		Delete an admin
// @Description	Deletes another admin account. The last admin and the caller cannot be removed.
// @Tags			admin-admins
// @Param			userID	path	int	true	"User ID"
// @Success		204		"No Content"
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/admins/{userID} [delete]
func (app *application) adminDeleteAdminHandler(w http.ResponseWriter, r *http.Request) {
	app.removeAdmin(w, r, users.Erase)
}

// @Summary		Demote an admin
// @Description	Turns another admin back into a member. The last admin and the caller cannot be demoted.
// @Tags			admin-admins
// @Param			userID	path	int	true	"User ID"
// @Success		204		"No Content"
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/admins/{userID}/demote [post]
func (app *application) adminDemoteAdminHandler(w http.ResponseWriter, r *http.Request) {
	app.removeAdmin(w, r, users.Demote)
}

// @Summary		Change an admin password
// @Description	Sets a new password on an admin account. The caller confirms with their own current password.
// @Tags			admin-admins
// @Accept			json
// @Param			userID	path	int						true	"User ID"
// @Param			payload	body	ChangePasswordPayload	true	"Passwords"
// @Success		204		"No Content"
// @Failure		400		{object}	ErrorResponse
// @Failure		401		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/admins/{userID}/password [put]
func (app *application) adminChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ChangePasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()
	actor := getUserFromContext(r)

	target, err := app.store.Users.GetByID(ctx, userID)
	if err != nil {
		app.userError(w, r, err)
		return
	}
	if !target.IsAdmin {
		app.badRequestResponse(w, r, users.ErrNotAdmin)
		return
	}

	if err := actor.Password.Compare(payload.CurrentPassword); err != nil {
		app.unauthorizedErrorResponse(w, r, errWrongPassword)
		return
	}

	if err := target.Password.Set(payload.NewPassword); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SetPassword(ctx, target); err != nil {
		app.userError(w, r, err)
		return
	}

	app.logger.Infow("admin password changed", "user_id", userID, "admin_id", actor.ID)

	w.WriteHeader(http.StatusNoContent)
}
