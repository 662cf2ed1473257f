package main

import (
	"errors"
	"io"
	"net/http"
	"time"

	"accessimaps/internal/uploads"
)

// UploadResponse describes a stored image.
type UploadResponse struct {
	ImageURL string `json:"image_url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

// uploadImageHandler godoc
//
//	@Summary		Upload a place image
//	@Description	Accepts a multipart "file" field. JPEG, PNG, WebP and GIF up to 5MB.
//	@Tags			uploads
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image"
//	@Success		201		{object}	UploadResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/upload/image [post]
func (app *application) uploadImageHandler(w http.ResponseWriter, r *http.Request) {
	// room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, uploads.MaxSize+1<<20)

	if err := r.ParseMultipartForm(uploads.MaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			app.payloadTooLargeResponse(w, r, uploads.ErrTooLarge)
			return
		}
		app.badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		app.badRequestResponse(w, r, uploads.ErrNoFile)
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		app.internalServerError(w, r, err)
		return
	}

	contentType, ext, err := uploads.Validate(header.Header.Get("Content-Type"), head[:n], header.Size)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	name := uploads.NewFilename(ext, time.Now())
	url, err := app.uploads.Save(r.Context(), name, contentType, file)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("image uploaded", "filename", name, "size", header.Size, "user_id", getUserFromContext(r).ID)

	resp := UploadResponse{
		ImageURL: url,
		Filename: name,
		Size:     header.Size,
		Type:     contentType,
	}
	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
