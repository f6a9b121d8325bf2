package avatars

// Service names registered in the service container.
const (
	ServiceSaveAvatar = "save-avatar"
	ServiceGetAvatar  = "get-avatar"
)

// Error codes carried in responses so adapters can restore sentinel errors.
const (
	CodeNotFound   = "not_found"
	CodeValidation = "validation"
)

// SaveAvatarRequest represents a request to store a user's avatar image.
// Data rides through the service container base64-encoded by encoding/json.
type SaveAvatarRequest struct {
	UserID   string `json:"user_id"`
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// SaveAvatarResponse represents the stored avatar location.
type SaveAvatarResponse struct {
	Key   string `json:"key,omitempty"`
	URL   string `json:"url,omitempty"`
	Size  int64  `json:"size,omitempty"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// GetAvatarRequest represents a request to fetch a stored avatar by key.
type GetAvatarRequest struct {
	Key string `json:"key"`
}

// GetAvatarResponse carries the avatar bytes and their MIME type.
type GetAvatarResponse struct {
	Data        []byte `json:"data,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Error       string `json:"error,omitempty"`
	Code        string `json:"code,omitempty"`
}
