package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string
	RedisURL        string

	ObjectStoreType    string
	LocalStoreDir      string
	PublicBaseURL      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	S3PublicURL        string
	SSEKMSKeyID        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	PhotoQueueURL      string

	LLMProvider  string
	LLMModel     string
	LLMTimeout   time.Duration
	OpenAIAPIKey string
	GeminiAPIKey string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceProID    string
	StripePriceProPlus  string
	BaseURL             string
	ReconcileSchedule   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	Worker Worker
}

// Worker tunes the SQS photo cleanup poller.
type Worker struct {
	Concurrency       int
	VisibilityTimeout time.Duration
	ShutdownTimeout   time.Duration
	// MetricsAddr serves /metrics from the worker when set.
	MetricsAddr string
}

var defaults = map[string]string{
	"PORT":                "8080",
	"CORS_ALLOW_ORIGINS":  "http://localhost:3000",
	"ENV":                 "dev",
	"OBJECT_STORE":        "local",
	"LOCAL_STORE_DIR":     "./data",
	"PUBLIC_BASE_URL":     "http://localhost:8080/files",
	"LLM_PROVIDER":        "openai",
	"LLM_MODEL":           "gpt-4o-mini",
	"LLM_TIMEOUT_SECONDS": "60",
	"BASE_URL":            "http://localhost:3000",
	"RECONCILE_SCHEDULE":  "@every 6h",
	"AWS_REGION":          "",
	"S3_BUCKET":           "",
	"S3_PREFIX":           "",
	"S3_PUBLIC_URL":       "",
	"SSE_KMS_KEY_ID":      "",
	"DATABASE_URL":        "",
	"REDIS_URL":           "",
	"PHOTO_SQS_QUEUE_URL": "",

	"WORKER_CONCURRENCY":                   "4",
	"PHOTO_SQS_VISIBILITY_TIMEOUT_SECONDS": "120",
	"SHUTDOWN_TIMEOUT_SECONDS":             "30",
	"METRICS_ADDR":                         "",
}

// Load reads configuration from env files, an optional config.yaml and environment variables.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	for key, def := range defaults {
		v.SetDefault(key, def)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			telemetry.Warn("config.read_failed", map[string]any{"error": err.Error()})
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	get := func(key string) string { return strings.TrimSpace(v.GetString(key)) }

	env := normalizeEnv(get("ENV"))
	dbURL := get("DATABASE_URL")
	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	return Config{
		Port:            get("PORT"),
		CORSAllowOrigin: splitAndTrim(get("CORS_ALLOW_ORIGINS")),
		Env:             env,
		DatabaseURL:     dbURL,
		RedisURL:        get("REDIS_URL"),

		ObjectStoreType:    normalizeStoreType(get("OBJECT_STORE")),
		LocalStoreDir:      get("LOCAL_STORE_DIR"),
		PublicBaseURL:      strings.TrimRight(get("PUBLIC_BASE_URL"), "/"),
		AWSRegion:          get("AWS_REGION"),
		S3Bucket:           get("S3_BUCKET"),
		S3Prefix:           get("S3_PREFIX"),
		S3PublicURL:        strings.TrimRight(get("S3_PUBLIC_URL"), "/"),
		SSEKMSKeyID:        get("SSE_KMS_KEY_ID"),
		AWSAccessKeyID:     get("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: get("AWS_SECRET_ACCESS_KEY"),
		PhotoQueueURL:      get("PHOTO_SQS_QUEUE_URL"),

		LLMProvider:  normalizeProvider(get("LLM_PROVIDER")),
		LLMModel:     get("LLM_MODEL"),
		LLMTimeout:   time.Duration(positive(v.GetInt("LLM_TIMEOUT_SECONDS"), 60)) * time.Second,
		OpenAIAPIKey: get("OPENAI_API_KEY"),
		GeminiAPIKey: get("GEMINI_API_KEY"),

		StripeSecretKey:     get("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: get("STRIPE_WEBHOOK_SECRET"),
		StripePriceProID:    get("STRIPE_PRICE_ID_PRO_MONTHLY"),
		StripePriceProPlus:  get("STRIPE_PRICE_ID_PRO_PLUS_MONTHLY"),
		BaseURL:             strings.TrimRight(get("BASE_URL"), "/"),
		ReconcileSchedule:   get("RECONCILE_SCHEDULE"),

		GoogleClientID:     get("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: get("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  get("GOOGLE_REDIRECT_URL"),
		UIRedirectURL:      get("UI_REDIRECT_URL"),

		Worker: Worker{
			Concurrency:       positive(v.GetInt("WORKER_CONCURRENCY"), 4),
			VisibilityTimeout: time.Duration(positive(v.GetInt("PHOTO_SQS_VISIBILITY_TIMEOUT_SECONDS"), 120)) * time.Second,
			ShutdownTimeout:   time.Duration(positive(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS"), 30)) * time.Second,
			MetricsAddr:       get("METRICS_ADDR"),
		},
	}
}

func positive(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// IsDevLike reports whether env allows in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "none", "":
		return "none"
	default:
		return "openai"
	}
}
