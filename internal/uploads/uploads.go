// Package uploads validates and stores place images.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxSize is the largest accepted image, in bytes.
const MaxSize = 5 << 20

var (
	ErrNoFile          = errors.New("no file provided")
	ErrTooLarge        = errors.New("file too large (max 5MB)")
	ErrUnsupportedType = errors.New("unsupported file type, allowed: JPEG, PNG, WebP, GIF")
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// normalize folds the non-standard image/jpg alias into image/jpeg.
func normalize(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}

// Validate checks an upload against the size cap and the image allowlist.
// head holds the first bytes of the file; the sniffed type must be allowed
// and agree with the declared one. It returns the canonical content type
// and the file extension to use.
func Validate(declared string, head []byte, size int64) (string, string, error) {
	if size <= 0 {
		return "", "", ErrNoFile
	}
	if size > MaxSize {
		return "", "", ErrTooLarge
	}

	sniffed := normalize(http.DetectContentType(head))
	ext, ok := extensions[sniffed]
	if !ok {
		return "", "", ErrUnsupportedType
	}

	if d := normalize(declared); d != "" && d != "application/octet-stream" && d != sniffed {
		return "", "", ErrUnsupportedType
	}

	return sniffed, ext, nil
}

// NewFilename builds place_<unix ms>_<token>.<ext>.
func NewFilename(ext string, now time.Time) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("place_%d_%s.%s", now.UnixMilli(), token, ext)
}

// Store persists an image and returns the URL it is served from.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}
