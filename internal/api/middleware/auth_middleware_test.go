package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProtectedApp(cfg config.Config) *fiber.App {
	app := fiber.New()
	app.Use(NewAuthMiddleware(cfg, zap.NewNop()).AuthMiddleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		operator, _ := c.Locals("operator").(string)
		return c.SendString(operator)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.Config{APIKey: "k3y", SecretKey: "0123456789abcdef"}
	app := newProtectedApp(cfg)

	token, err := utils.GenerateToken(cfg.SecretKey, "ops", time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateToken(cfg.SecretKey, "ops", -time.Minute)
	require.NoError(t, err)
	forged, err := utils.GenerateToken("another-secret", "ops", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		target string
		header map[string]string
		status int
	}{
		{"missing", "/whoami", nil, http.StatusUnauthorized},
		{"query key", "/whoami?api_key=k3y", nil, http.StatusOK},
		{"header key", "/whoami", map[string]string{"X-API-Key": "k3y"}, http.StatusOK},
		{"wrong key", "/whoami?api_key=nope", nil, http.StatusUnauthorized},
		{"bearer", "/whoami", map[string]string{"Authorization": "Bearer " + token}, http.StatusOK},
		{"expired", "/whoami", map[string]string{"Authorization": "Bearer " + expired}, http.StatusUnauthorized},
		{"forged", "/whoami", map[string]string{"Authorization": "Bearer " + forged}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddlewareWithoutConfiguredKey(t *testing.T) {
	app := newProtectedApp(config.Config{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami?api_key=anything", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
