package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bads1de/CareerRise/internal/ai"
	googleauth "github.com/bads1de/CareerRise/internal/auth"
	"github.com/bads1de/CareerRise/internal/billing"
	"github.com/bads1de/CareerRise/internal/resumes"
	"github.com/bads1de/CareerRise/internal/services/health"
	"github.com/bads1de/CareerRise/internal/shared/config"
	"github.com/bads1de/CareerRise/internal/shared/metrics"
	"github.com/bads1de/CareerRise/internal/shared/server/middleware"
	"github.com/bads1de/CareerRise/internal/shared/server/respond"
	"github.com/bads1de/CareerRise/internal/users"
)

const (
	apiPrefix   = "/api/v1"
	filesPrefix = "/files"
	aiGroup     = "AI"

	// unlimitedGroup has no rule, so requests in it are never throttled.
	unlimitedGroup = "UNLIMITED"
)

// RouterDeps are the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config         config.Config
	Health         *health.Service
	GoogleAuth     *googleauth.GoogleService
	UserHandler    *users.Handler
	ResumeHandler  *resumes.Handler
	BillingHandler *billing.Handler
	WebhookHandler *billing.WebhookHandler
	AIHandler      *ai.Handler

	// FilesDir is served under /files when photos live on local disk.
	FilesDir    string
	RateLimiter *middleware.RateLimiter
}

// PublicPrefixes are the paths reachable without a bearer token.
func PublicPrefixes() []string {
	return []string{
		apiPrefix + "/auth/google/",
		apiPrefix + "/stripe-webhook",
		apiPrefix + "/health",
		"/metrics",
		filesPrefix + "/",
	}
}

// RateLimitRules returns the default per-user limits; AI routes have their own bucket.
func RateLimitRules() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		"DEFAULT": {Rate: 10, Burst: 40},
		aiGroup:   {Rate: 0.2, Burst: 5},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(PublicPrefixes()...),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    RateLimitRules(),
			Limiter:  deps.RateLimiter,
			GroupFor: rateLimitGroup,
		}),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.FilesDir != "" {
		r.Static(filesPrefix, deps.FilesDir)
	}

	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(api)
	}
	if deps.BillingHandler != nil {
		deps.BillingHandler.RegisterRoutes(api)
	}
	if deps.WebhookHandler != nil {
		deps.WebhookHandler.RegisterRoutes(api)
	}
	if deps.AIHandler != nil {
		deps.AIHandler.RegisterRoutes(api)
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case strings.HasPrefix(path, apiPrefix+"/ai/"):
		return aiGroup
	case strings.HasPrefix(path, apiPrefix+"/stripe-webhook"),
		strings.HasPrefix(path, apiPrefix+"/health"),
		path == "/metrics":
		return unlimitedGroup
	default:
		return ""
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
