package server

import (
	"errors"

	"colloquy/internal/middleware"
	"colloquy/internal/models"
	"colloquy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was
// already committed by a helper. Handlers must return nil (not this
// error) to avoid Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter as a positive uint. On failure it
// writes a 400 JSON response and returns errResponseWritten; callers
// check err != nil and return nil.
func (s *Server) parseID(c *fiber.Ctx, param, label string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+label))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// actor returns the authenticated user's id and moderator flag.
func actor(c *fiber.Ctx) (uint, bool) {
	userID, _ := c.Locals(middleware.LocalUserID).(uint)
	isModerator, _ := c.Locals(middleware.LocalIsModerator).(bool)
	return userID, isModerator
}

// viewer returns the possibly-anonymous identity for read paths.
func viewer(c *fiber.Ctx) service.Viewer {
	v := service.Viewer{}
	if userID, ok := c.Locals(middleware.LocalUserID).(uint); ok {
		v.UserID = &userID
	}
	if isModerator, ok := c.Locals(middleware.LocalIsModerator).(bool); ok {
		v.IsModerator = isModerator
	}
	return v
}

// respondAppError maps AppError codes to HTTP statuses.
func respondAppError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeValidation:
			status = fiber.StatusBadRequest
		case models.CodeNotFound:
			status = fiber.StatusNotFound
		case models.CodePermissionDenied:
			status = fiber.StatusForbidden
		}
	}
	return models.RespondWithError(c, status, err)
}
