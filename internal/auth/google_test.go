package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	sharedauth "github.com/bads1de/CareerRise/internal/shared/auth"
	"github.com/bads1de/CareerRise/internal/users"
)

func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1234","email":"ada@example.com","name":"Ada L","given_name":"Ada","family_name":"L","picture":"https://img.test/a.png"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, store UserStore) (*GoogleService, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := fakeGoogle(t)
	svc := NewGoogleService(GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://api.test/api/v1/auth/google/callback",
		UIRedirect:   "http://ui.test/auth/callback",
	}, store, nil)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	svc.apiEndpoint = srv.URL + "/"
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return svc, r
}

func TestStartRedirectsWithState(t *testing.T) {
	svc, r := newTestService(t, nil)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.Code)
	}
	loc, err := url.Parse(resp.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("expected state in %s", loc)
	}
	if ok, _ := svc.states.Consume(context.Background(), state); !ok {
		t.Fatalf("state was not stored")
	}
}

func TestCallbackUpsertsUserAndIssuesToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	repo := users.NewMemoryRepo()
	svc, r := newTestService(t, users.NewService(repo))
	_ = svc.states.Put(context.Background(), "s-1", time.Minute)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=s-1&code=c-1", nil))
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", resp.Code, resp.Body.String())
	}
	loc := resp.Header().Get("Location")
	if !strings.HasPrefix(loc, "http://ui.test/auth/callback?") {
		t.Fatalf("unexpected redirect %s", loc)
	}
	u, _ := url.Parse(loc)
	claims, err := sharedauth.VerifyJWT(u.Query().Get("token"))
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "google:1234" || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	user, err := repo.GetByID(context.Background(), "google:1234")
	if err != nil {
		t.Fatalf("expected user stored: %v", err)
	}
	if user.GivenName != "Ada" || user.PictureURL != "https://img.test/a.png" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestCallbackRejectsExpiredState(t *testing.T) {
	svc, r := newTestService(t, nil)
	_ = svc.states.Put(context.Background(), "s-2", -time.Second)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=s-2&code=c", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for expired state, got %d", resp.Code)
	}
}

func TestStartNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGoogleService(GoogleConfig{}, nil, nil).RegisterRoutes(r.Group("/api/v1"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

type mapCache map[string][]byte

func (m mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m[key] = value
	return nil
}

func (m mapCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m, k)
	}
	return nil
}

func TestCacheStatesAreSingleUse(t *testing.T) {
	ctx := context.Background()
	states := CacheStates{Cache: mapCache{}}
	if err := states.Put(ctx, "s-3", time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, err := states.Consume(ctx, "s-3"); err != nil || !ok {
		t.Fatalf("expected first consume to succeed, got %v %v", ok, err)
	}
	if ok, _ := states.Consume(ctx, "s-3"); ok {
		t.Fatalf("expected replay to fail")
	}
	if ok, _ := states.Consume(ctx, "never-issued"); ok {
		t.Fatalf("expected unknown state to fail")
	}
}

func TestCallbackReplayIsRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc, r := newTestService(t, nil)
	_ = svc.states.Put(context.Background(), "s-4", time.Minute)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=s-4&code=c-1", nil))
	if first.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", first.Code, first.Body.String())
	}
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=s-4&code=c-1", nil))
	if second.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on replay, got %d", second.Code)
	}
}
