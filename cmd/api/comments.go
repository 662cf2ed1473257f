package main

import (
	"errors"
	"net/http"
	"strings"

	"accessimaps/internal/domain/comments"
)

type CommentPayload struct {
	Content              string  `json:"content" validate:"required,max=5000"`
	ParentID             *int64  `json:"parent_id" validate:"omitempty,gt=0"`
	ImageURL             *string `json:"image_url" validate:"omitempty,max=2048"`
	AccessibilityDetails *string `json:"accessibility_details" validate:"omitempty,max=5000"`
	comments.Flags
}

// listPlaceCommentsHandler godoc
//
//	@Summary		Comments of a place
//	@Description	Returns the comment tree: top-level comments newest first, replies oldest first.
//	@Tags			comments
//	@Produce		json
//	@Param			placeID	path		int	true	"Place ID"
//	@Success		200		{array}		comments.Comment
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/places/{placeID}/comments [get]
func (app *application) listPlaceCommentsHandler(w http.ResponseWriter, r *http.Request) {
	placeID, err := idParam(r, "placeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	tree, err := app.store.Comments.ListByPlace(r.Context(), placeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, tree); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createCommentHandler godoc
//
//	@Summary		Comment on a place
//	@Description	Posts a comment or, with parent_id, a reply. Accessibility flags are optional and tri-state.
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			placeID	path		int				true	"Place ID"
//	@Param			payload	body		CommentPayload	true	"Comment"
//	@Success		201		{object}	comments.Comment
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/places/{placeID}/comments [post]
func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	placeID, err := idParam(r, "placeID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	payload.Content = strings.TrimSpace(payload.Content)
	payload.ImageURL = optional(payload.ImageURL)
	payload.AccessibilityDetails = optional(payload.AccessibilityDetails)

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	comment := &comments.Comment{
		PlaceID:              placeID,
		UserID:               user.ID,
		ParentID:             payload.ParentID,
		Content:              payload.Content,
		ImageURL:             payload.ImageURL,
		AccessibilityDetails: payload.AccessibilityDetails,
		Flags:                payload.Flags,
	}

	if err := app.store.Comments.Create(r.Context(), comment); err != nil {
		switch {
		case errors.Is(err, comments.ErrPlaceNotFound), errors.Is(err, comments.ErrParentNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, comments.ErrInvalidParent), errors.Is(err, comments.ErrEmptyContent):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, comment); err != nil {
		app.internalServerError(w, r, err)
	}
}
