package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func echoIdentity(c *fiber.Ctx) error {
	userID, _ := c.Locals(LocalUserID).(uint)
	isModerator, _ := c.Locals(LocalIsModerator).(bool)
	return c.JSON(fiber.Map{"user_id": userID, "moderator": isModerator})
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/", AuthRequired(testSecret), echoIdentity)

	request := func(t *testing.T, authorization string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	t.Run("missing header", func(t *testing.T) {
		resp := request(t, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed header", func(t *testing.T) {
		resp := request(t, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{
			"sub": "1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		resp := request(t, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		resp := request(t, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("non-numeric subject", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "alice",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		resp := request(t, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token passes identity through", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":       "42",
			"moderator": true,
			"exp":       time.Now().Add(time.Hour).Unix(),
		})
		resp := request(t, "Bearer "+token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAuthOptional(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/", AuthOptional(testSecret), echoIdentity)

	t.Run("anonymous request passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("invalid token is treated as anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("valid token resolves the viewer", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "7",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
