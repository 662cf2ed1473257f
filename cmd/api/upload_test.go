package main

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func multipartImage(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	app, _ := newTestApplication(t)
	mux := app.mount()
	token := tokenFor(t, app, seedUser(t, app, "Member", false))

	tests := []struct {
		name        string
		field       string
		contentType string
		data        []byte
		token       string
		want        int
	}{
		{"stores a png", "file", "image/png", pngHeader, token, http.StatusCreated},
		{"rejects text posing as png", "file", "image/png", []byte("hello, world"), token, http.StatusBadRequest},
		{"rejects a declared type that differs", "file", "image/gif", pngHeader, token, http.StatusBadRequest},
		{"requires the file field", "image", "image/png", pngHeader, token, http.StatusBadRequest},
		{"requires a session", "file", "image/png", pngHeader, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartImage(t, tt.field, "photo.png", tt.contentType, tt.data)

			req := httptest.NewRequest(http.MethodPost, "/api/upload/image", body)
			req.Header.Set("Content-Type", ct)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			checkResponseCode(t, tt.want, rr)

			if tt.want == http.StatusCreated {
				got := readData[UploadResponse](t, rr)
				if got.Type != "image/png" || !strings.HasPrefix(got.Filename, "place_") || !strings.HasSuffix(got.Filename, ".png") {
					t.Fatalf("unexpected upload %+v", got)
				}
				if got.ImageURL != "/uploads/"+got.Filename || got.Size != int64(len(pngHeader)) {
					t.Fatalf("unexpected upload %+v", got)
				}
			}
		})
	}

	if saved := app.uploads.(*memUploads).saved; len(saved) != 1 {
		t.Fatalf("expected exactly one stored image, got %d", len(saved))
	}
}
