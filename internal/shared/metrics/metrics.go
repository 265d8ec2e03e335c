package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "careerrise"

// Registry is the process-wide collector registry served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	resumeSaves = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resume_saves_total",
		Help:      "Resume save operations by kind and result.",
	}, []string{"op", "result"})

	saveDuration = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "save_duration_seconds",
		Help:      "Duration of resume save operations.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	photoOps = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photo_operations_total",
		Help:      "Object storage operations on resume photos.",
	}, []string{"op", "result"})

	webhookEvents = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Billing webhook events by type and result.",
	}, []string{"type", "result"})

	aiGenerations = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ai_generations_total",
		Help:      "AI text generations by kind and result.",
	}, []string{"kind", "result"})

	cleanupJobs = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photo_cleanup_jobs_total",
		Help:      "Orphaned photo cleanup jobs by result.",
	}, []string{"result"})

	rateLimited = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by the rate limiter, by group.",
	}, []string{"group"})
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// ObserveSave records one save with its kind (create|update), result and duration.
func ObserveSave(op string, err error, elapsed time.Duration) {
	resumeSaves.WithLabelValues(op, result(err)).Inc()
	saveDuration.Observe(elapsed.Seconds())
}

// IncPhotoOp counts a photo upload or delete.
func IncPhotoOp(op string, err error) {
	photoOps.WithLabelValues(op, result(err)).Inc()
}

// IncWebhookEvent counts a processed, ignored or failed webhook event.
func IncWebhookEvent(eventType, res string) {
	webhookEvents.WithLabelValues(eventType, res).Inc()
}

// IncAIGeneration counts an AI generation attempt.
func IncAIGeneration(kind string, err error) {
	aiGenerations.WithLabelValues(kind, result(err)).Inc()
}

// IncCleanupJob counts a photo cleanup job outcome (completed|failed|discarded).
func IncCleanupJob(res string) {
	cleanupJobs.WithLabelValues(res).Inc()
}

// IncRateLimited counts a request rejected with 429.
func IncRateLimited(group string) {
	rateLimited.WithLabelValues(group).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Serve is a plain net/http variant of Handler for the worker binary.
func Serve() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
