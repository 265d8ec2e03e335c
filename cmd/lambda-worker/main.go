package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/bads1de/CareerRise/internal/bootstrap"
	"github.com/bads1de/CareerRise/internal/shared/config"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
	"github.com/bads1de/CareerRise/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	built, err := bootstrap.Build(config.Load())
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr.Error(), "records": len(event.Records)})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}

	processor := workerproc.Processor{Store: app.Store}
	var failures []events.SQSBatchItemFailure
	for _, record := range event.Records {
		job, err := processor.Process(ctx, record.Body)
		if err == nil {
			continue
		}
		fields := job.Fields()
		fields["sqs_message_id"] = record.MessageId
		fields["error"] = err.Error()
		if workerproc.Unrecoverable(err) {
			// Not reported as a failure, so SQS deletes it with the batch.
			telemetry.Error("worker.photo.invalid_message", fields)
			continue
		}
		telemetry.Error("worker.photo.failed", fields)
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	lambda.Start(handler)
}
