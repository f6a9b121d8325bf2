package api

import (
	"errors"
	"io"
	"strconv"

	domainuser "github.com/example/realtime-chat/domain/user"
	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/avatars"
	"github.com/example/realtime-chat/modules/chat"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// register handles POST /api/auth/register.
func (m *Module) register(c *fiber.Ctx) error {
	var body RegisterBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_request", Message: "Invalid request body",
		})
	}
	if body.Username == "" || body.Email == "" || body.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "validation_error", Message: "username, email and password required",
		})
	}

	if _, err := m.authAdapter.Register(c.UserContext(), body.Username, body.Email, body.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "conflict", Message: err.Error(),
			})
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidEmail),
			errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrPasswordTooLong):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "validation_error", Message: err.Error(),
			})
		default:
			m.logger.Error("Registration failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error: "server_error", Message: "Failed to register",
			})
		}
	}

	return c.JSON(MessageReply{Message: "registered, verification email sent"})
}

// login handles POST /api/auth/login.
func (m *Module) login(c *fiber.Ctx) error {
	var body LoginBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_request", Message: "Invalid request body",
		})
	}

	result, err := m.authAdapter.Login(c.UserContext(), body.Username, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error: "unauthorized", Message: "invalid credentials",
			})
		case errors.Is(err, auth.ErrNotVerified):
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Error: "forbidden", Message: "email not verified",
			})
		default:
			m.logger.Error("Login failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error: "server_error", Message: "Failed to log in",
			})
		}
	}

	return c.JSON(LoginReply{
		Token:     result.Token,
		ID:        result.UserID,
		Username:  result.Username,
		AvatarURL: result.AvatarURL,
	})
}

// verifyEmail handles GET /api/auth/verify/:token.
func (m *Module) verifyEmail(c *fiber.Ctx) error {
	if _, err := m.authAdapter.VerifyEmail(c.UserContext(), c.Params("token")); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid or expired token")
	}
	return c.SendString("Email verified, you can now login.")
}

// me handles GET /api/users/me.
func (m *Module) me(c *fiber.Ctx) error {
	claims := c.Locals(UserContextKey).(*domainuser.Claims)

	user, err := m.authAdapter.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "not_found", Message: "user not found",
			})
		}
		m.logger.Error("Failed to load user profile", "userID", claims.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "server_error", Message: "Failed to load profile",
		})
	}

	return c.JSON(UserReply{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Verified:  user.Verified,
		CreatedAt: user.CreatedAt,
	})
}

// listMessages handles GET /api/messages?room=&page=&limit=.
func (m *Module) listMessages(c *fiber.Ctx) error {
	room := c.Query("room")

	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 1 {
			page = parsed
		}
	}

	messages, err := m.chatAdapter.ListMessages(c.UserContext(), room, page, limit)
	if err != nil {
		if errors.Is(err, chat.ErrRoomInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "validation_error", Message: err.Error(),
			})
		}
		m.logger.Error("Failed to list messages", "room", room, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "server_error", Message: "Failed to list messages",
		})
	}

	return c.JSON(messages)
}

// editMessage handles PATCH /api/messages/:id. Owner only; the edited
// message also fans out to the room over the socket layer.
func (m *Module) editMessage(c *fiber.Ctx) error {
	claims := c.Locals(UserContextKey).(*domainuser.Claims)

	var body EditMessageBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_request", Message: "Invalid request body",
		})
	}

	msg, err := m.chatAdapter.EditMessage(c.UserContext(), c.Params("id"), claims.UserID, body.Text)
	if err != nil {
		return m.mutationError(c, err, "edit")
	}

	return c.JSON(EditReply{Message: "edited", Msg: msg})
}

// deleteMessage handles DELETE /api/messages/:id.
func (m *Module) deleteMessage(c *fiber.Ctx) error {
	claims := c.Locals(UserContextKey).(*domainuser.Claims)

	id := c.Params("id")
	if _, err := m.chatAdapter.DeleteMessage(c.UserContext(), id, claims.UserID); err != nil {
		return m.mutationError(c, err, "delete")
	}

	return c.JSON(DeleteReply{Message: "deleted", ID: id})
}

// mutationError maps chat mutation failures onto REST statuses.
func (m *Module) mutationError(c *fiber.Ctx, err error, operation string) error {
	switch {
	case errors.Is(err, chat.ErrMessageNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "not_found", Message: "not found",
		})
	case errors.Is(err, chat.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error: "forbidden", Message: "forbidden",
		})
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "validation_error", Message: err.Error(),
		})
	default:
		m.logger.Error("Message mutation failed", "operation", operation, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "server_error", Message: "server error",
		})
	}
}

// uploadAvatar handles POST /api/users/avatar (multipart field "avatar").
func (m *Module) uploadAvatar(c *fiber.Ctx) error {
	claims := c.Locals(UserContextKey).(*domainuser.Claims)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_request", Message: "avatar file is required",
		})
	}
	if fileHeader.Size > avatars.MaxAvatarBytes {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "validation_error", Message: avatars.ErrAvatarTooLarge.Error(),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_request", Message: "failed to read avatar file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, avatars.MaxAvatarBytes+1))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid_request", Message: "failed to read avatar file",
		})
	}

	url, err := m.avatarAdapter.SaveAvatar(c.UserContext(), claims.UserID, fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, avatars.ErrAvatarTooLarge), errors.Is(err, avatars.ErrUnsupportedImage):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "validation_error", Message: err.Error(),
			})
		default:
			m.logger.Error("Avatar upload failed", "userID", claims.UserID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error: "server_error", Message: "Failed to store avatar",
			})
		}
	}

	if _, err := m.authAdapter.SetAvatar(c.UserContext(), claims.UserID, url); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "not_found", Message: "user not found",
			})
		}
		m.logger.Error("Failed to persist avatar URL", "userID", claims.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "server_error", Message: "Failed to store avatar",
		})
	}

	return c.JSON(AvatarReply{Message: "uploaded", AvatarURL: url})
}

// serveAvatar handles GET /uploads/avatars/:name.
func (m *Module) serveAvatar(c *fiber.Ctx) error {
	data, contentType, err := m.avatarAdapter.GetAvatar(c.UserContext(), c.Params("name"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "not_found", Message: "avatar not found",
		})
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}
