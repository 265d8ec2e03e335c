package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/bads1de/CareerRise/internal/ai"
	googleauth "github.com/bads1de/CareerRise/internal/auth"
	"github.com/bads1de/CareerRise/internal/billing"
	"github.com/bads1de/CareerRise/internal/llm"
	"github.com/bads1de/CareerRise/internal/llm/gemini"
	openai "github.com/bads1de/CareerRise/internal/llm/openai"
	"github.com/bads1de/CareerRise/internal/queue"
	"github.com/bads1de/CareerRise/internal/resumes"
	"github.com/bads1de/CareerRise/internal/services/health"
	"github.com/bads1de/CareerRise/internal/shared/awsconf"
	"github.com/bads1de/CareerRise/internal/shared/config"
	"github.com/bads1de/CareerRise/internal/shared/server"
	"github.com/bads1de/CareerRise/internal/shared/storage/cache"
	"github.com/bads1de/CareerRise/internal/shared/storage/db"
	"github.com/bads1de/CareerRise/internal/shared/storage/object"
	localstore "github.com/bads1de/CareerRise/internal/shared/storage/object/local"
	s3store "github.com/bads1de/CareerRise/internal/shared/storage/object/s3"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
	"github.com/bads1de/CareerRise/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Redis  *redis.Client
	Store  object.ObjectStore
	Queue  queue.Client

	UsersService   *users.Service
	ResumesService *resumes.Service
	BillingService *billing.Service
	AIService      *ai.Service
	PhotoCleanup   *queue.PhotoCleanup
	Reconciler     *billing.Reconciler
	Health         *health.Service
	GoogleAuth     *googleauth.GoogleService
	UsersHandler   *users.Handler
	ResumesHandler *resumes.Handler
	BillingHandler *billing.Handler
	WebhookHandler *billing.WebhookHandler
	AIHandler      *ai.Handler
	closers        []func() error
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Redis:  buildRedis(ctx, cfg),
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	filesDir := ""
	if local, ok := store.(*localstore.Store); ok {
		filesDir = local.Dir()
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		Health:         app.Health,
		GoogleAuth:     app.GoogleAuth,
		UserHandler:    app.UsersHandler,
		ResumeHandler:  app.ResumesHandler,
		BillingHandler: app.BillingHandler,
		WebhookHandler: app.WebhookHandler,
		AIHandler:      app.AIHandler,
		FilesDir:       filesDir,
	})

	return app, nil
}

// Close releases clients opened by Build.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_url_empty", map[string]any{"fallback": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{"fallback": "memory", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			PublicURL:       cfg.S3PublicURL,
			KMSKeyID:        cfg.SSEKMSKeyID,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.PhotoQueueURL) == "" {
		return nil, nil
	}
	awsCfg, err := awsconf.Load(ctx, awsconf.Settings{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	return queue.NewSQSClient(awsCfg, cfg.PhotoQueueURL)
}

// buildRedis returns nil when no cache is configured or reachable; the
// subscription repository then reads straight from the database.
func buildRedis(ctx context.Context, cfg config.Config) *redis.Client {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err.Error()})
		return nil
	}
	return client
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, func() error, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			break
		}
		client, err := openai.NewClient(openai.Options{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.LLMModel,
			Timeout:    cfg.LLMTimeout,
			MaxRetries: 2,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			break
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}
	telemetry.Warn("bootstrap.llm_not_configured", map[string]any{"provider": cfg.LLMProvider})
	return llm.PlaceholderClient{}, nil, nil
}

func buildServices(ctx context.Context, app *App) error {
	var (
		userRepo   users.Repo
		resumeRepo resumes.Repo
		subRepo    billing.Repo
	)
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		resumeRepo = &resumes.PGRepo{DB: app.DB}
		subRepo = &billing.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		resumeRepo = resumes.NewMemoryRepo()
		subRepo = billing.NewMemoryRepo()
	}
	if app.Redis != nil {
		subRepo = billing.NewCachedRepo(subRepo, cache.Redis{Client: app.Redis})
		app.closers = append(app.closers, app.Redis.Close)
	}

	var gateway billing.Gateway
	if app.Config.StripeSecretKey != "" {
		gateway = billing.NewStripeGateway(app.Config.StripeSecretKey, nil)
	} else {
		telemetry.Warn("bootstrap.stripe_not_configured", nil)
	}

	userSvc := users.NewService(userRepo)
	billingSvc := billing.NewService(subRepo, gateway, userSvc, billing.Plans{
		ProPriceID:     app.Config.StripePriceProID,
		ProPlusPriceID: app.Config.StripePriceProPlus,
	}, app.Config.BaseURL)

	cleanup := queue.NewPhotoCleanup(app.Queue, app.Store)
	resumeSvc := &resumes.Service{
		Repo:    resumeRepo,
		Store:   app.Store,
		Tiers:   billingSvc,
		Cleaner: cleanup,
	}

	llmClient, closeLLM, err := buildLLM(ctx, app.Config)
	if err != nil {
		return err
	}
	if closeLLM != nil {
		app.closers = append(app.closers, closeLLM)
	}
	aiSvc := ai.NewService(llmClient, billingSvc)

	checks := map[string]health.Pinger{}
	if app.DB != nil {
		checks["postgres"] = app.DB
	}
	if app.Redis != nil {
		rdb := app.Redis
		checks["redis"] = health.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	app.UsersService = userSvc
	app.ResumesService = resumeSvc
	app.BillingService = billingSvc
	app.AIService = aiSvc
	app.PhotoCleanup = cleanup
	app.Reconciler = billing.NewReconciler(billingSvc, app.Config.ReconcileSchedule)
	app.Health = health.NewService(checks)
	var states googleauth.StateStore
	if app.Redis != nil {
		states = googleauth.CacheStates{Cache: cache.Redis{Client: app.Redis}}
	}
	app.GoogleAuth = googleauth.NewGoogleService(googleauth.GoogleConfig{
		ClientID:     app.Config.GoogleClientID,
		ClientSecret: app.Config.GoogleClientSecret,
		RedirectURL:  app.Config.GoogleRedirectURL,
		UIRedirect:   app.Config.UIRedirectURL,
	}, userSvc, states)
	app.UsersHandler = users.NewHandler(userSvc, billingSvc)
	app.ResumesHandler = resumes.NewHandler(resumeSvc)
	app.BillingHandler = billing.NewHandler(billingSvc)
	app.AIHandler = ai.NewHandler(aiSvc)
	if app.Config.StripeWebhookSecret != "" {
		app.WebhookHandler = billing.NewWebhookHandler(billingSvc, app.Config.StripeWebhookSecret)
	}

	if app.ResumesHandler == nil || app.BillingHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}
