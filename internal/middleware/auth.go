// Package middleware provides authentication and request logging middleware.
package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Locals keys set by the auth middleware.
const (
	LocalUserID      = "userID"
	LocalIsModerator = "isModerator"
)

// AuthRequired enforces a valid bearer token and stores the actor's
// identity in locals. Token issuance is handled by the platform's
// account service; this engine only verifies.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, isModerator, err := parseBearer(c, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalIsModerator, isModerator)
		return c.Next()
	}
}

// AuthOptional resolves the actor when a token is present but lets
// anonymous requests through. Read paths use it to compute liked and
// owned_by_viewer state.
func AuthOptional(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") != "" {
			if userID, isModerator, err := parseBearer(c, secret); err == nil {
				c.Locals(LocalUserID, userID)
				c.Locals(LocalIsModerator, isModerator)
			}
		}
		return c.Next()
	}
}

func parseBearer(c *fiber.Ctx, secret string) (uint, bool, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false, fiber.NewError(fiber.StatusUnauthorized, "Authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false, fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, false, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	// User id travels in the "sub" claim (RFC 7519 subject).
	subStr, ok := claims["sub"].(string)
	if !ok {
		return 0, false, fiber.NewError(fiber.StatusUnauthorized, "Invalid token subject")
	}
	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, false, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	isModerator, _ := claims["moderator"].(bool)
	return uint(userID), isModerator, nil
}
