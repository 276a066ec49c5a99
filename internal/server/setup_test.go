package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chirp/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:              "test",
		Port:             "0",
		JWTSecret:        "test-secret",
		JWTIssuer:        "chirp-api",
		JWTAudience:      "chirp-client",
		FeedDefaultLimit: 20,
	}
}

func newTestServer(t *testing.T, m *testMocks, rdb *redis.Client) (*Server, *fiber.App) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	s := newServer(testConfig(), nil, rdb, m.repositories())
	return s, s.App()
}

func bearer(t *testing.T, accountID uint, role string) string {
	t.Helper()
	cfg := testConfig()
	token, err := IssueToken(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, accountID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any, auth string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}
