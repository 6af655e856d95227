// Package files stores profile photos on local disk or Google Drive.
package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PhotoStore persists a user's profile photo and returns a URL to serve it
// from.
type PhotoStore interface {
	// Save stores the photo for a user, replacing any previous one, and
	// returns its public URL.
	Save(ctx context.Context, userID, contentType string, data io.Reader) (string, error)
	// Delete removes the user's photo. Missing photos are not an error.
	Delete(ctx context.Context, userID string) error
}

const maxPhotoBytes = 5 << 20

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ExtensionFor maps an image content type to its file extension, or ""
// when the type is not allowed.
func ExtensionFor(contentType string) string {
	return photoExtensions[strings.ToLower(strings.TrimSpace(contentType))]
}

// DiskStore keeps photos under a local directory, one file per user.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create photo directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Save(_ context.Context, userID, contentType string, data io.Reader) (string, error) {
	ext := ExtensionFor(contentType)
	if ext == "" {
		return "", fmt.Errorf("unsupported photo content type %q", contentType)
	}

	if err := s.removeExisting(userID); err != nil {
		return "", err
	}

	name := userID + ext
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(data, maxPhotoBytes)); err != nil {
		return "", fmt.Errorf("write photo file: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

func (s *DiskStore) Delete(_ context.Context, userID string) error {
	return s.removeExisting(userID)
}

// removeExisting drops any stored photo for the user regardless of its
// extension, so a PNG upload replaces an earlier JPEG.
func (s *DiskStore) removeExisting(userID string) error {
	for _, ext := range photoExtensions {
		err := os.Remove(filepath.Join(s.dir, userID+ext))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove photo file: %w", err)
		}
	}
	return nil
}
