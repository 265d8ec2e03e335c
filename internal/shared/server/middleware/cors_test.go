package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsRouter(allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), CORS(allowed))
	router.GET("/api/v1/resumes/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func serveWithOrigin(router *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/resumes/123", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCORSPreflight(t *testing.T) {
	resp := serveWithOrigin(corsRouter("http://localhost:3000/"), http.MethodOptions, "http://localhost:3000")

	require.Equal(t, http.StatusNoContent, resp.Code)
	h := resp.Header()
	assert.Equal(t, "http://localhost:3000", h.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, h.Get("Access-Control-Allow-Methods"), http.MethodDelete)
	assert.Contains(t, h.Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "600", h.Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
}

func TestCORSPreflightFromUnknownOrigin(t *testing.T) {
	resp := serveWithOrigin(corsRouter("http://localhost:3000"), http.MethodOptions, "https://evil.example")

	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSSimpleRequests(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{name: "listed origin", allowed: []string{"http://localhost:3000"}, origin: "http://localhost:3000", want: "http://localhost:3000"},
		{name: "unknown origin", allowed: []string{"http://localhost:3000"}, origin: "https://evil.example", want: ""},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://preview.example", want: "https://preview.example"},
		{name: "no origin", allowed: []string{"*"}, origin: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := serveWithOrigin(corsRouter(tc.allowed...), http.MethodGet, tc.origin)

			require.Equal(t, http.StatusOK, resp.Code)
			assert.Equal(t, tc.want, resp.Header().Get("Access-Control-Allow-Origin"))
			if tc.want != "" {
				assert.True(t, strings.Contains(resp.Header().Get("Access-Control-Expose-Headers"), RequestIDHeader))
			}
		})
	}
}

func TestRequestIDReplacesUnprintableValue(t *testing.T) {
	router := corsRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/123", nil)
	req.Header.Set(RequestIDHeader, "bad id")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	got := resp.Header().Get(RequestIDHeader)
	require.NotEmpty(t, got)
	assert.NotEqual(t, "bad id", got)
}
