package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	sharedauth "github.com/bads1de/CareerRise/internal/shared/auth"
	"github.com/bads1de/CareerRise/internal/shared/server/respond"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
	"github.com/bads1de/CareerRise/internal/users"
)

const stateTTL = 5 * time.Minute

// UserStore records identities that completed the OAuth flow.
type UserStore interface {
	UpsertFromAuth(ctx context.Context, user users.User) error
}

// GoogleConfig is the OAuth client registration plus the front-end page
// that receives the issued token.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	UIRedirect   string
}

// GoogleService runs the Google sign-in flow and mints API tokens.
type GoogleService struct {
	oauthConfig *oauth2.Config
	uiRedirect  string
	states      StateStore
	users       UserStore
	// apiEndpoint overrides the Google API base URL.
	apiEndpoint string
}

// NewGoogleService builds a GoogleService. store may be nil; states defaults
// to an in-process store.
func NewGoogleService(cfg GoogleConfig, store UserStore, states StateStore) *GoogleService {
	if states == nil {
		states = NewMemoryStates()
	}
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oauth2api.UserinfoEmailScope, oauth2api.UserinfoProfileScope},
			Endpoint:     google.Endpoint,
		},
		uiRedirect: cfg.UIRedirect,
		states:     states,
		users:      store,
	}
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	c := s.oauthConfig
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", "Google auth not configured", nil)
		return
	}

	state := uuid.NewString()
	if err := s.states.Put(c.Request.Context(), state, stateTTL); err != nil {
		telemetry.Error("auth.state_store_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", "sign-in temporarily unavailable", nil)
		return
	}
	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

func (s *GoogleService) callback(c *gin.Context) {
	ctx := c.Request.Context()
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	if ok, err := s.states.Consume(ctx, state); err != nil || !ok {
		if err != nil {
			telemetry.Warn("auth.state_lookup_failed", map[string]any{"error": err.Error()})
		}
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}

	profile, err := s.profile(ctx, token)
	if err != nil {
		telemetry.Warn("auth.userinfo_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}

	if s.users != nil && profile.Email != "" {
		if err := s.users.UpsertFromAuth(ctx, profile); err != nil {
			telemetry.Warn("auth.user_upsert_failed", map[string]any{"user_id": profile.ID, "error": err.Error()})
		}
	}

	signed, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:     profile.ID,
		Email:   profile.Email,
		Name:    profile.FullName,
		Picture: profile.PictureURL,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}

	target, err := withToken(s.uiRedirect, signed)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// profile loads the signed-in Google account as a user record keyed "google:<id>".
func (s *GoogleService) profile(ctx context.Context, token *oauth2.Token) (users.User, error) {
	opts := []option.ClientOption{option.WithHTTPClient(s.oauthConfig.Client(ctx, token))}
	if s.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(s.apiEndpoint))
	}
	api, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return users.User{}, err
	}
	info, err := api.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return users.User{}, err
	}
	if info.Id == "" {
		return users.User{}, errors.New("userinfo without account id")
	}
	return users.User{
		ID:         "google:" + info.Id,
		Email:      info.Email,
		FullName:   info.Name,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
		PictureURL: info.Picture,
	}, nil
}

func withToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
