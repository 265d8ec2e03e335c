package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cenkalti/backoff/v4"

	"github.com/bads1de/CareerRise/internal/bootstrap"
	"github.com/bads1de/CareerRise/internal/shared/awsconf"
	"github.com/bads1de/CareerRise/internal/shared/config"
	"github.com/bads1de/CareerRise/internal/shared/metrics"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
	"github.com/bads1de/CareerRise/internal/workerproc"
)

const receiveCountAttr = "ApproximateReceiveCount"

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// consumer acks (deletes) SQS messages once the processor is done with them.
type consumer struct {
	sqs       sqsAPI
	queueURL  string
	processor workerproc.Processor
}

func main() {
	cfg := config.Load()
	if cfg.PhotoQueueURL == "" {
		log.Fatal("PHOTO_SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconf.Load(ctx, awsconf.Settings{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		log.Fatal(err)
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	if cfg.Worker.MetricsAddr != "" {
		go serveMetrics(cfg.Worker.MetricsAddr)
	}

	c := &consumer{
		sqs:       sqs.NewFromConfig(awsCfg),
		queueURL:  cfg.PhotoQueueURL,
		processor: workerproc.Processor{Store: app.Store},
	}
	c.run(ctx, cfg.Worker)
}

func (c *consumer) run(ctx context.Context, wc config.Worker) {
	sem := make(chan struct{}, max(1, wc.Concurrency))
	var wg sync.WaitGroup

	retry := backoff.NewExponentialBackOff()
	retry.MaxInterval = 30 * time.Second
	retry.MaxElapsedTime = 0

	telemetry.Info("worker.started", map[string]any{
		"queue":              c.queueURL,
		"concurrency":        wc.Concurrency,
		"visibility_seconds": int(wc.VisibilityTimeout.Seconds()),
	})

	for ctx.Err() == nil {
		resp, err := c.sqs.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(wc.VisibilityTimeout.Seconds()),
			AttributeNames:      []sqstypes.QueueAttributeName{receiveCountAttr},
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			wait := retry.NextBackOff()
			telemetry.Warn("worker.receive_failed", map[string]any{"error": err.Error(), "retry_in": wait.String()})
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}
		retry.Reset()

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
			case sem <- struct{}{}:
				wg.Add(1)
				go func(m sqstypes.Message) {
					defer wg.Done()
					defer func() { <-sem }()
					c.handle(ctx, m)
				}(msg)
			}
		}
	}

	telemetry.Info("worker.shutdown_requested", map[string]any{"timeout": wc.ShutdownTimeout.String()})
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(wc.ShutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

// handle processes one message. Failed jobs stay on the queue and come back
// after the visibility timeout; rejected ones are deleted.
func (c *consumer) handle(ctx context.Context, msg sqstypes.Message) {
	job, err := c.processor.Decode(aws.ToString(msg.Body))
	fields := job.Fields()
	fields["sqs_message_id"] = aws.ToString(msg.MessageId)
	fields["receive_count"] = receiveCount(msg)

	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("worker.photo.invalid_message", fields)
		if workerproc.Unrecoverable(err) && c.ack(ctx, msg, fields) {
			metrics.IncCleanupJob("discarded")
		}
		return
	}

	telemetry.Info("worker.photo.received", fields)
	if err := c.processor.Run(ctx, job); err != nil {
		fields["error"] = err.Error()
		telemetry.Error("worker.photo.failed", fields)
		return
	}
	if c.ack(ctx, msg, fields) {
		telemetry.Info("worker.photo.completed", fields)
	}
}

func (c *consumer) ack(ctx context.Context, msg sqstypes.Message, fields map[string]any) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	err := errors.New("missing receipt handle")
	if receipt != "" {
		_, err = c.sqs.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(c.queueURL),
			ReceiptHandle: aws.String(receipt),
		})
	}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("worker.photo.ack_failed", fields)
		return false
	}
	return true
}

func serveMetrics(addr string) {
	srv := &http.Server{Addr: addr, Handler: metrics.Serve(), ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		telemetry.Warn("worker.metrics_server_failed", map[string]any{"addr": addr, "error": err.Error()})
	}
}

func receiveCount(msg sqstypes.Message) int {
	n, err := strconv.Atoi(msg.Attributes[receiveCountAttr])
	if err != nil {
		return 0
	}
	return n
}
