package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"accessimaps/internal/domain/comments"
	"accessimaps/internal/domain/ratings"
	"accessimaps/internal/params"
)

type AdminRatingListResponse struct {
	Ratings    []ratings.Rating  `json:"ratings"`
	Pagination params.Pagination `json:"pagination"`
}

type AdminCommentListResponse struct {
	Comments   []comments.Comment `json:"comments"`
	Pagination params.Pagination  `json:"pagination"`
}

type CommentDeleteResponse struct {
	DeletedReplies int `json:"deleted_replies"`
}

// @Summary		List ratings (admin)
// @Tags			admin-moderation
// @Produce		json
// @Param			page	query		int	false	"Page number"		default(1)
// @Param			limit	query		int	false	"Items per page"	default(12)
// @Success		200		{object}	AdminRatingListResponse
// @Security		ApiKeyAuth
// @Router			/admin/ratings [get]
func (app *application) adminListRatingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())

	out, total, err := app.store.Ratings.ListAll(ctx, p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p.ComputeMeta(total)

	_ = app.jsonResponse(w, http.StatusOK, AdminRatingListResponse{Ratings: out, Pagination: p})
}

// @Summary		Delete a rating (admin)
// @Description	Deletes any rating and recomputes the averages of its place.
// @Tags			admin-moderation
// @Produce		json
// @Param			ratingID	path		int	true	"Rating ID"
// @Success		200			{object}	ratings.WriteResult
// @Failure		404			{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/ratings/{ratingID} [delete]
func (app *application) adminDeleteRatingHandler(w http.ResponseWriter, r *http.Request) {
	ratingID, err := idParam(r, "ratingID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	res, err := app.store.Ratings.Delete(r.Context(), ratingID)
	if err != nil {
		app.ratingError(w, r, err)
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, res)
}

// @Summary		List comments (admin)
// @Tags			admin-moderation
// @Produce		json
// @Param			page	query		int	false	"Page number"		default(1)
// @Param			limit	query		int	false	"Items per page"	default(12)
// @Success		200		{object}	AdminCommentListResponse
// @Security		ApiKeyAuth
// @Router			/admin/comments [get]
func (app *application) adminListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p := params.ParsePagination(r.URL.Query())

	out, total, err := app.store.Comments.ListAdmin(ctx, p)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p.ComputeMeta(total)

	_ = app.jsonResponse(w, http.StatusOK, AdminCommentListResponse{Comments: out, Pagination: p})
}

// @Summary		Get a comment (admin)
// @Tags			admin-moderation
// @Produce		json
// @Param			commentID	path		int	true	"Comment ID"
// @Success		200			{object}	comments.Comment
// @Failure		404			{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/comments/{commentID} [get]
func (app *application) adminGetCommentHandler(w http.ResponseWriter, r *http.Request) {
	commentID, err := idParam(r, "commentID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	comment, err := app.store.Comments.GetByID(r.Context(), commentID)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, comment)
}

// @Summary		Delete a comment (admin)
// @Description	Deletes a comment and its whole reply thread.
// @Tags			admin-moderation
// @Produce		json
// @Param			commentID	path		int	true	"Comment ID"
// @Success		200			{object}	CommentDeleteResponse
// @Failure		404			{object}	ErrorResponse
// @Security		ApiKeyAuth
// @Router			/admin/comments/{commentID} [delete]
func (app *application) adminDeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	commentID, err := idParam(r, "commentID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	n, err := app.store.Comments.Delete(r.Context(), commentID)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	_ = app.jsonResponse(w, http.StatusOK, CommentDeleteResponse{DeletedReplies: n - 1})
}
