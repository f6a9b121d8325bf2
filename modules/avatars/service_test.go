package avatars

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// createTestModule wires the module to an in-memory avatar bucket.
func createTestModule(t *testing.T) *Module {
	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError),
		mono.WithJetStreamStorageDir(t.TempDir()),
	)
	require.NoError(t, err)

	plugin, err := fsjetstream.New(fsjetstream.Config{
		Buckets: []fsjetstream.BucketConfig{
			{
				Name:        BucketName,
				Description: "Test avatar bucket",
				MaxBytes:    10 * 1024 * 1024,
				Storage:     fsjetstream.MemoryStorage,
			},
		},
	})
	require.NoError(t, err)

	err = app.RegisterPlugin(plugin, "storage")
	require.NoError(t, err)

	err = app.Start(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})

	module := NewModule(&mockLogger{})
	module.SetPlugin("storage", plugin)

	err = module.Start(context.Background())
	require.NoError(t, err)

	return module
}

func TestHandleSave_Success(t *testing.T) {
	module := createTestModule(t)

	req := SaveAvatarRequest{
		UserID:   "user-123",
		Filename: "me.png",
		Data:     []byte("fake png bytes"),
	}

	resp, err := module.handleSave(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Empty(t, resp.Error)
	assert.Equal(t, "user-123.png", resp.Key)
	assert.Equal(t, URLPrefix+"user-123.png", resp.URL)
	assert.Greater(t, resp.Size, int64(0))
}

func TestHandleSave_Validation(t *testing.T) {
	module := createTestModule(t)

	tests := []struct {
		name    string
		req     SaveAvatarRequest
		wantErr string
	}{
		{
			name:    "missing user id",
			req:     SaveAvatarRequest{Filename: "me.png", Data: []byte("x")},
			wantErr: ErrMissingUserID.Error(),
		},
		{
			name:    "empty payload",
			req:     SaveAvatarRequest{UserID: "u1", Filename: "me.png"},
			wantErr: ErrAvatarTooLarge.Error(),
		},
		{
			name:    "payload over the cap",
			req:     SaveAvatarRequest{UserID: "u1", Filename: "me.png", Data: bytes.Repeat([]byte("a"), MaxAvatarBytes+1)},
			wantErr: ErrAvatarTooLarge.Error(),
		},
		{
			name:    "unsupported extension",
			req:     SaveAvatarRequest{UserID: "u1", Filename: "script.exe", Data: []byte("x")},
			wantErr: ErrUnsupportedImage.Error(),
		},
		{
			name:    "no extension",
			req:     SaveAvatarRequest{UserID: "u1", Filename: "avatar", Data: []byte("x")},
			wantErr: ErrUnsupportedImage.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := module.handleSave(context.Background(), tt.req, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantErr, resp.Error)
			assert.Equal(t, CodeValidation, resp.Code)
		})
	}
}

func TestHandleSave_ReplacesPreviousAvatar(t *testing.T) {
	module := createTestModule(t)
	ctx := context.Background()

	_, err := module.handleSave(ctx, SaveAvatarRequest{
		UserID: "user-123", Filename: "old.png", Data: []byte("old"),
	}, nil)
	require.NoError(t, err)

	resp, err := module.handleSave(ctx, SaveAvatarRequest{
		UserID: "user-123", Filename: "new.jpg", Data: []byte("new"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "user-123.jpg", resp.Key)

	// The png from the first upload must be gone.
	files, err := module.bucket.List(fsjetstream.WithPrefix("user-123"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "user-123.jpg", files[0].Name)
}

func TestHandleGet(t *testing.T) {
	module := createTestModule(t)
	ctx := context.Background()

	_, err := module.handleSave(ctx, SaveAvatarRequest{
		UserID: "user-123", Filename: "me.png", Data: []byte("fake png bytes"),
	}, nil)
	require.NoError(t, err)

	resp, err := module.handleGet(ctx, GetAvatarRequest{Key: "user-123.png"}, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Error)
	assert.Equal(t, []byte("fake png bytes"), resp.Data)
	assert.Equal(t, "image/png", resp.ContentType)

	missing, err := module.handleGet(ctx, GetAvatarRequest{Key: "nobody.png"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ErrAvatarNotFound.Error(), missing.Error)
	assert.Equal(t, CodeNotFound, missing.Code)
}
