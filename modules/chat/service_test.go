package chat

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMessageRepository(setupTestDB(t)))
}

func strPtr(s string) *string { return &s }

func TestService_Send(t *testing.T) {
	ctx := context.Background()
	service := setupTestService(t)

	tests := []struct {
		name     string
		room     string
		username string
		userID   *string
		text     string
		wantErr  error
	}{
		{
			name:     "valid authenticated send",
			room:     "global",
			username: "alice",
			userID:   strPtr("user-1"),
			text:     "hello",
		},
		{
			name:     "anonymous send",
			room:     "global",
			username: "guest",
			text:     "hi there",
		},
		{
			name:    "empty room falls back to global",
			room:    "",
			text:    "defaulted",
		},
		{
			name:    "empty text rejected",
			room:    "global",
			text:    "",
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "whitespace-only text rejected",
			room:    "global",
			text:    "   \t\n",
			wantErr: ErrEmptyMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := service.Send(ctx, tt.room, tt.username, tt.userID, tt.text)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("Send() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Send() unexpected error: %v", err)
			}

			if msg.ID == "" {
				t.Error("Send() message.ID should not be empty")
			}
			if msg.CreatedAt.IsZero() {
				t.Error("Send() message.CreatedAt should not be zero")
			}
			if tt.room == "" && msg.Room != "global" {
				t.Errorf("Send() room = %q, want global fallback", msg.Room)
			}
			if tt.username == "" && msg.Username != AnonymousName {
				t.Errorf("Send() username = %q, want %q", msg.Username, AnonymousName)
			}
		})
	}
}

func TestService_SendTruncatesUsernameByRunes(t *testing.T) {
	ctx := context.Background()
	service := setupTestService(t)

	long := strings.Repeat("é", MaxUsernameLength+10)
	msg, err := service.Send(ctx, "global", long, nil, "hello")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if !utf8.ValidString(msg.Username) {
		t.Errorf("Send() stored invalid UTF-8 username %q", msg.Username)
	}
	if got := utf8.RuneCountInString(msg.Username); got != MaxUsernameLength {
		t.Errorf("Send() username rune count = %d, want %d", got, MaxUsernameLength)
	}
	if msg.Username != strings.Repeat("é", MaxUsernameLength) {
		t.Errorf("Send() username = %q, want the first %d runes kept intact", msg.Username, MaxUsernameLength)
	}
}

func TestService_SendAppearsInRecent(t *testing.T) {
	ctx := context.Background()
	service := setupTestService(t)

	sent, err := service.Send(ctx, "global", "alice", strPtr("user-1"), "hello")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	history, err := service.Recent(ctx, "global", 50)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 message in history, got %d", len(history))
	}
	if history[0].ID != sent.ID || history[0].Text != "hello" {
		t.Errorf("history does not contain the sent message verbatim")
	}
}

func TestService_Edit(t *testing.T) {
	ctx := context.Background()
	service := setupTestService(t)

	ownerID := uuid.New().String()
	owned, err := service.Send(ctx, "global", "alice", &ownerID, "original")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	anonymous, err := service.Send(ctx, "global", "guest", nil, "anon message")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	t.Run("owner edit updates text only", func(t *testing.T) {
		updated, err := service.Edit(ctx, owned.ID, ownerID, "corrected")
		if err != nil {
			t.Fatalf("Edit() error = %v", err)
		}
		if updated.Text != "corrected" {
			t.Errorf("Edit() text = %q, want %q", updated.Text, "corrected")
		}
		if !updated.Edited {
			t.Error("Edit() should set the edited flag")
		}
		if updated.EditedAt == nil {
			t.Error("Edit() should set editedAt")
		}
		if updated.UserID == nil || *updated.UserID != ownerID {
			t.Error("Edit() must not change the author identity")
		}
		if !updated.CreatedAt.Equal(owned.CreatedAt) {
			t.Error("Edit() must not change createdAt")
		}
	})

	t.Run("non-owner edit is forbidden", func(t *testing.T) {
		_, err := service.Edit(ctx, owned.ID, "someone-else", "hijacked")
		if err != ErrForbidden {
			t.Fatalf("Edit() error = %v, want ErrForbidden", err)
		}

		unchanged, err := service.Recent(ctx, "global", 50)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		for _, m := range unchanged {
			if m.ID == owned.ID && m.Text == "hijacked" {
				t.Error("forbidden edit must leave the message unchanged")
			}
		}
	})

	t.Run("anonymous message can never be edited", func(t *testing.T) {
		_, err := service.Edit(ctx, anonymous.ID, ownerID, "takeover")
		if err != ErrForbidden {
			t.Errorf("Edit() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := service.Edit(ctx, "no-such-id", ownerID, "text")
		if err != ErrMessageNotFound {
			t.Errorf("Edit() error = %v, want ErrMessageNotFound", err)
		}
	})

	t.Run("empty replacement text rejected", func(t *testing.T) {
		_, err := service.Edit(ctx, owned.ID, ownerID, "  ")
		if err != ErrEmptyMessage {
			t.Errorf("Edit() error = %v, want ErrEmptyMessage", err)
		}
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	service := setupTestService(t)

	ownerID := uuid.New().String()
	owned, err := service.Send(ctx, "global", "alice", &ownerID, "to delete")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	anonymous, err := service.Send(ctx, "global", "guest", nil, "anon")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	t.Run("anonymous delete attempt is forbidden for everyone", func(t *testing.T) {
		_, err := service.Delete(ctx, anonymous.ID, ownerID)
		if err != ErrForbidden {
			t.Errorf("Delete() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("non-owner delete is forbidden", func(t *testing.T) {
		_, err := service.Delete(ctx, owned.ID, "someone-else")
		if err != ErrForbidden {
			t.Errorf("Delete() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("owner delete removes the message", func(t *testing.T) {
		removed, err := service.Delete(ctx, owned.ID, ownerID)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if removed.Room != "global" {
			t.Errorf("Delete() room = %q, want global", removed.Room)
		}

		history, err := service.Recent(ctx, "global", 50)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		for _, m := range history {
			if m.ID == owned.ID {
				t.Error("deleted message still present in history")
			}
		}
	})

	t.Run("deleted id is unreachable", func(t *testing.T) {
		_, err := service.Delete(ctx, owned.ID, ownerID)
		if err != ErrMessageNotFound {
			t.Errorf("Delete() error = %v, want ErrMessageNotFound", err)
		}
	})
}
