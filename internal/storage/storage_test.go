package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestPrepareValidation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     []byte
		folder   string
		wantErr  bool
	}{
		{name: "png ok", filename: "logo.PNG", body: pngHeader, folder: "branding"},
		{name: "no folder", filename: "logo.png", body: pngHeader},
		{name: "bad extension", filename: "logo.bmp", body: pngHeader, folder: "banners", wantErr: true},
		{name: "not an image", filename: "notes.png", body: []byte("hello world"), folder: "banners", wantErr: true},
		{name: "unknown folder", filename: "logo.png", body: pngHeader, folder: "secrets", wantErr: true},
		{name: "empty", filename: "logo.png", body: nil, folder: "banners", wantErr: true},
		{name: "too large", filename: "big.png", body: append(bytes.Clone(pngHeader), make([]byte, MaxUploadSize)...), folder: "banners", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			obj, err := prepare(Upload{Filename: tc.filename, Body: bytes.NewReader(tc.body)}, tc.folder)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidFile) {
					t.Fatalf("expected ErrInvalidFile, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("prepare: %v", err)
			}
			if !strings.HasSuffix(obj.name, ".png") || obj.contentType != "image/png" {
				t.Fatalf("unexpected object %q %q", obj.name, obj.contentType)
			}
			if tc.folder != "" && !strings.HasPrefix(obj.name, tc.folder+"/") {
				t.Fatalf("object %q not under folder %q", obj.name, tc.folder)
			}
		})
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8000/")
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	ctx := context.Background()

	url, err := s.Upload(ctx, Upload{Filename: "a.png", Body: bytes.NewReader(pngHeader)}, "shops")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:8000/uploads/shops/") {
		t.Fatalf("unexpected url %s", url)
	}

	rel := strings.TrimPrefix(url, "http://localhost:8000/uploads/")
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/"+rel, nil))
	if rr.Code != http.StatusOK || !bytes.Equal(rr.Body.Bytes(), pngHeader) {
		t.Fatalf("serve uploaded file: %d", rr.Code)
	}

	if err := s.Delete(ctx, url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, url); err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}
}

func TestLocalStorageRejectsForeignPaths(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8000")
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	for _, url := range []string{
		"http://localhost:8000/uploads/../../etc/passwd",
		"https://example.com/x.png",
		"http://localhost:8000/uploads/",
	} {
		if err := s.Delete(context.Background(), url); !errors.Is(err, ErrInvalidFile) {
			t.Fatalf("%s: expected ErrInvalidFile, got %v", url, err)
		}
	}
}

func TestGCSObjectName(t *testing.T) {
	s := &GCSStorage{bucket: "mayoristas"}
	tests := []struct{ url, want string }{
		{"https://storage.googleapis.com/mayoristas/banners/a.png", "banners/a.png"},
		{"https://storage.googleapis.com/mayoristas/banners/a.png?x=1", "banners/a.png"},
		{"https://storage.googleapis.com/other-bucket/banners/a.png", ""},
		{"https://storage.googleapis.com/mayoristas/other-businesses/b.webp", "other-businesses/b.webp"},
	}
	for _, tc := range tests {
		if got := s.objectName(tc.url); got != tc.want {
			t.Fatalf("objectName(%s) = %q, want %q", tc.url, got, tc.want)
		}
	}
	if got := s.publicURL("shops/x.jpg"); got != "https://storage.googleapis.com/mayoristas/shops/x.jpg" {
		t.Fatalf("unexpected public url %s", got)
	}
}

func TestLocalStorageCheck(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	var checker Checker = s
	if err := checker.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
}
