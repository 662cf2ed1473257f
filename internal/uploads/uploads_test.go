package uploads

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	gifHeader = []byte("GIF89a\x01\x00\x01\x00")
	jpgHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		head     []byte
		size     int64
		wantExt  string
		wantErr  error
	}{
		{"png", "image/png", pngHeader, 1024, "png", nil},
		{"jpg alias", "image/jpg", jpgHeader, 1024, "jpg", nil},
		{"undeclared gif", "", gifHeader, 10, "gif", nil},
		{"empty", "image/png", nil, 0, "", ErrNoFile},
		{"too large", "image/png", pngHeader, MaxSize + 1, "", ErrTooLarge},
		{"exactly max", "image/png", pngHeader, MaxSize, "png", nil},
		{"pdf", "application/pdf", []byte("%PDF-1.4"), 100, "", ErrUnsupportedType},
		{"mismatch", "image/gif", pngHeader, 100, "", ErrUnsupportedType},
		{"text posing as image", "image/png", []byte("hello world"), 11, "", ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ext, err := Validate(tt.declared, tt.head, tt.size)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v got %v", tt.wantErr, err)
			}
			if ext != tt.wantExt {
				t.Fatalf("expected ext %q got %q", tt.wantExt, ext)
			}
		})
	}
}

func TestNewFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	name := NewFilename("png", now)

	if !regexp.MustCompile(`^place_1700000000123_[0-9a-f]{12}\.png$`).MatchString(name) {
		t.Fatalf("unexpected filename %q", name)
	}
	if NewFilename("png", now) == name {
		t.Fatal("filenames should not repeat")
	}
}

func TestLocalStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads", "places")
	s, err := NewLocalStore(dir, "/uploads/places")
	if err != nil {
		t.Fatal(err)
	}

	url, err := s.Save(context.Background(), "place_1_abc.png", "image/png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatal(err)
	}
	if url != "/uploads/places/place_1_abc.png" {
		t.Fatalf("unexpected url %q", url)
	}

	got, err := os.ReadFile(filepath.Join(dir, "place_1_abc.png"))
	if err != nil || !bytes.Equal(got, pngHeader) {
		t.Fatalf("file not written correctly: %v", err)
	}

	if _, err := s.Save(context.Background(), "place_1_abc.png", "image/png", bytes.NewReader(pngHeader)); err == nil {
		t.Fatal("expected existing file not to be overwritten")
	}

	url, err = s.Save(context.Background(), "../escape.png", "image/png", bytes.NewReader(pngHeader))
	if err != nil || url != "/uploads/places/escape.png" {
		t.Fatalf("expected name confined to the upload dir, got %q %v", url, err)
	}
}
