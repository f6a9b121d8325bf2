package avatars

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AvatarPort defines the interface other modules use to reach avatar storage.
type AvatarPort interface {
	SaveAvatar(ctx context.Context, userID, filename string, data []byte) (string, error)
	GetAvatar(ctx context.Context, key string) ([]byte, string, error)
}

// AvatarAdapter implements AvatarPort using the service container.
type AvatarAdapter struct {
	container mono.ServiceContainer
}

// NewAvatarAdapter creates a new AvatarAdapter.
func NewAvatarAdapter(container mono.ServiceContainer) *AvatarAdapter {
	return &AvatarAdapter{container: container}
}

// errorFromCode maps a response error code back onto a sentinel error.
func errorFromCode(code, message string) error {
	switch code {
	case CodeNotFound:
		return ErrAvatarNotFound
	case CodeValidation:
		switch message {
		case ErrMissingUserID.Error():
			return ErrMissingUserID
		case ErrUnsupportedImage.Error():
			return ErrUnsupportedImage
		default:
			return ErrAvatarTooLarge
		}
	default:
		return fmt.Errorf("avatar service error: %s", message)
	}
}

// SaveAvatar stores an avatar image and returns its public URL.
func (a *AvatarAdapter) SaveAvatar(ctx context.Context, userID, filename string, data []byte) (string, error) {
	req := SaveAvatarRequest{UserID: userID, Filename: filename, Data: data}
	var resp SaveAvatarResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceSaveAvatar,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return "", fmt.Errorf("save-avatar request failed: %w", err)
	}
	if resp.Error != "" {
		return "", errorFromCode(resp.Code, resp.Error)
	}
	return resp.URL, nil
}

// GetAvatar fetches a stored avatar's bytes and MIME type by key.
func (a *AvatarAdapter) GetAvatar(ctx context.Context, key string) ([]byte, string, error) {
	req := GetAvatarRequest{Key: key}
	var resp GetAvatarResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceGetAvatar,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, "", fmt.Errorf("get-avatar request failed: %w", err)
	}
	if resp.Error != "" {
		return nil, "", errorFromCode(resp.Code, resp.Error)
	}
	return resp.Data, resp.ContentType, nil
}
