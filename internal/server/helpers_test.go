package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":             "ID",
		"postId":         "post ID",
		"notificationId": "notification ID",
		"parentPostId":   "parent post ID",
		"handle":         "handle",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Limit: 20, Offset: 0}},
		{"?limit=5&offset=10", Pagination{Limit: 5, Offset: 10}},
		{"?limit=0", Pagination{Limit: 20, Offset: 0}},
		{"?limit=500", Pagination{Limit: 100, Offset: 0}},
		{"?offset=-3", Pagination{Limit: 20, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			app := fiber.New()
			var got Pagination
			app.Get("/", func(c *fiber.Ctx) error {
				got = parsePagination(c, 20)
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHealth(t *testing.T) {
	_, app := newTestServer(t, newTestMocks(), nil)

	resp := doRequest(t, app, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "up", body["status"])
}

func TestFeatureFlagsEndpoint(t *testing.T) {
	_, app := newTestServer(t, newTestMocks(), nil)

	resp := doRequest(t, app, http.MethodGet, "/api/admin/feature-flags", nil, bearer(t, 1, RoleAdmin))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Evaluated map[string]bool `json:"evaluated"`
	}
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Evaluated, "push_notifications")
}
