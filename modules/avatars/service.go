package avatars

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-monolith/mono"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
)

const (
	// MaxAvatarBytes caps uploads at 2 MiB.
	MaxAvatarBytes = 2 * 1024 * 1024

	// URLPrefix is where the api module serves stored avatars.
	URLPrefix = "/uploads/avatars/"
)

var (
	// ErrAvatarNotFound is returned when no avatar exists under the key.
	ErrAvatarNotFound = errors.New("avatar not found")
	// ErrAvatarTooLarge is returned when the upload exceeds MaxAvatarBytes.
	ErrAvatarTooLarge = errors.New("avatar must be at most 2 MiB")
	// ErrUnsupportedImage is returned for non-image file extensions.
	ErrUnsupportedImage = errors.New("avatar must be a png, jpg, jpeg, gif or webp image")
	// ErrMissingUserID is returned when the request has no user id.
	ErrMissingUserID = errors.New("user id is required")
)

// contentTypeByExt maps supported image extensions to MIME types.
var contentTypeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// handleSave validates and stores an avatar under a per-user key. A new
// upload replaces any previous avatar the user had, whatever its extension.
func (m *Module) handleSave(ctx context.Context, req SaveAvatarRequest, _ *mono.Msg) (SaveAvatarResponse, error) {
	if req.UserID == "" {
		return SaveAvatarResponse{Error: ErrMissingUserID.Error(), Code: CodeValidation}, nil
	}
	if len(req.Data) == 0 || len(req.Data) > MaxAvatarBytes {
		return SaveAvatarResponse{Error: ErrAvatarTooLarge.Error(), Code: CodeValidation}, nil
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	contentType, ok := contentTypeByExt[ext]
	if !ok {
		return SaveAvatarResponse{Error: ErrUnsupportedImage.Error(), Code: CodeValidation}, nil
	}

	key := req.UserID + ext

	stale, err := m.bucket.List(fsjetstream.WithPrefix(req.UserID))
	if err == nil {
		for _, obj := range stale {
			if obj.Name != key {
				if delErr := m.bucket.Delete(obj.Name); delErr != nil {
					m.logger.Warn("Failed to delete stale avatar", "key", obj.Name, "error", delErr)
				}
			}
		}
	}

	objInfo, err := m.bucket.Put(ctx, key, req.Data,
		fsjetstream.WithHeaders(map[string]string{
			"Content-Type": contentType,
			"User-ID":      req.UserID,
			"Uploaded-At":  time.Now().Format(time.RFC3339),
		}),
	)
	if err != nil {
		return SaveAvatarResponse{Error: "failed to store avatar: " + err.Error()}, nil
	}

	return SaveAvatarResponse{
		Key:  key,
		URL:  URLPrefix + key,
		Size: int64(objInfo.Size),
	}, nil
}

// handleGet fetches a stored avatar by key.
func (m *Module) handleGet(_ context.Context, req GetAvatarRequest, _ *mono.Msg) (GetAvatarResponse, error) {
	ext := strings.ToLower(filepath.Ext(req.Key))
	contentType, ok := contentTypeByExt[ext]
	if !ok {
		return GetAvatarResponse{Error: ErrAvatarNotFound.Error(), Code: CodeNotFound}, nil
	}

	data, err := m.bucket.Get(req.Key)
	if err != nil {
		return GetAvatarResponse{Error: ErrAvatarNotFound.Error(), Code: CodeNotFound}, nil
	}

	return GetAvatarResponse{Data: data, ContentType: contentType}, nil
}
