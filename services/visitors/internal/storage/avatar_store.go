package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// AvatarStore keeps profile pictures on a filesystem and hands out their public URLs.
type AvatarStore struct {
	fs       afero.Fs
	baseURL  string
	maxBytes int64
}

// NewAvatarStore roots the store at dir on the OS filesystem.
func NewAvatarStore(dir, baseURL string, maxBytes int64) *AvatarStore {
	return NewAvatarStoreFs(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL, maxBytes)
}

func NewAvatarStoreFs(fs afero.Fs, baseURL string, maxBytes int64) *AvatarStore {
	return &AvatarStore{fs: fs, baseURL: baseURL, maxBytes: maxBytes}
}

// Save stores the image for ownerID, replacing any earlier one, and returns its URL.
// Oversized or non-image uploads fail with a VALIDATION_ERROR.
func (s *AvatarStore) Save(ctx context.Context, ownerID string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading avatar: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", domain.ValidationError(fmt.Sprintf("avatar must be %dMB or smaller", s.maxBytes/(1024*1024)), "avatar")
	}
	if len(data) == 0 {
		return "", domain.ValidationError("avatar is empty", "avatar")
	}

	mt := mimetype.Detect(data)
	if !allowedAvatarTypes[mt.String()] {
		return "", domain.ValidationError("avatar must be a PNG, JPEG, GIF or WebP image", "avatar")
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.removeExisting(ownerID)
	name := "/" + ownerID + mt.Extension()
	if err := afero.WriteFile(s.fs, name, data, 0o644); err != nil {
		return "", fmt.Errorf("writing avatar: %w", err)
	}
	return s.baseURL + name, nil
}

func (s *AvatarStore) removeExisting(ownerID string) {
	for _, ext := range []string{".png", ".jpg", ".gif", ".webp"} {
		_ = s.fs.Remove("/" + ownerID + ext)
	}
}

// Handler serves stored avatars read-only.
func (s *AvatarStore) Handler() http.Handler {
	return http.FileServer(afero.NewHttpFs(afero.NewReadOnlyFs(s.fs)))
}
