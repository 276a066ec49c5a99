package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chirp/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRequired_Tokens(t *testing.T) {
	cfg := testConfig()
	s := &Server{config: cfg}

	app := fiber.New()
	app.Get("/api/private", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	wrongIssuer, err := IssueToken(cfg.JWTSecret, "someone-else", cfg.JWTAudience, 1, "", time.Hour)
	require.NoError(t, err)
	wrongAudience, err := IssueToken(cfg.JWTSecret, cfg.JWTIssuer, "other-client", 1, "", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, 1, "", -time.Minute)
	require.NoError(t, err)
	wrongSecret, err := IssueToken("another-secret", cfg.JWTIssuer, cfg.JWTAudience, 1, "", time.Hour)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1", "iss": cfg.JWTIssuer, "aud": cfg.JWTAudience, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + wrongIssuer, http.StatusUnauthorized},
		{"wrong audience", "Bearer " + wrongAudience, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + wrongSecret, http.StatusUnauthorized},
		{"alg none", "Bearer " + noneAlg, http.StatusUnauthorized},
		{"valid", bearer(t, 7, ""), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAdminRequired(t *testing.T) {
	_, app := newTestServer(t, newTestMocks(), nil)

	resp := doRequest(t, app, http.MethodGet, "/api/admin/feature-flags", nil, bearer(t, 1, ""))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/admin/feature-flags", nil, bearer(t, 1, RoleAdmin))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Evaluated map[string]bool `json:"evaluated"`
	}
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Evaluated, "push_notifications")
	assert.Contains(t, body.Evaluated, "feed_dedup_self_reposts")
}

func TestWSTicket_SingleUse(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	_, app := newTestServer(t, newTestMocks(), rdb)

	resp := doRequest(t, app, http.MethodPost, "/api/ws/ticket", nil, bearer(t, 42, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var issued struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}
	decodeBody(t, resp, &issued)
	require.NotEmpty(t, issued.Ticket)
	assert.Equal(t, 30, issued.ExpiresIn)

	stored, err := rdb.Get(context.Background(), cache.WSTicketKey(issued.Ticket)).Result()
	require.NoError(t, err)
	assert.Equal(t, "42", stored)

	// A plain GET passes auth and is then refused for lacking an upgrade.
	resp = doRequest(t, app, http.MethodGet, "/api/ws?ticket="+issued.Ticket, nil, "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	exists, err := rdb.Exists(context.Background(), cache.WSTicketKey(issued.Ticket)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	resp = doRequest(t, app, http.MethodGet, "/api/ws?ticket="+issued.Ticket, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSTicket_WithoutRedis(t *testing.T) {
	_, app := newTestServer(t, newTestMocks(), nil)

	resp := doRequest(t, app, http.MethodPost, "/api/ws/ticket", nil, bearer(t, 1, ""))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestOptionalUserID(t *testing.T) {
	s := &Server{config: testConfig()}
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"viewer": s.optionalUserID(c)})
	})

	resp := doRequest(t, app, http.MethodGet, "/", nil, bearer(t, 5, ""))
	var body struct {
		Viewer uint `json:"viewer"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, uint(5), body.Viewer)

	resp = doRequest(t, app, http.MethodGet, "/", nil, "Bearer broken")
	decodeBody(t, resp, &body)
	assert.Zero(t, body.Viewer)
}
