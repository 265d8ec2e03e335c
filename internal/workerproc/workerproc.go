// Package workerproc runs photo cleanup jobs taken off the queue. Both the
// long-running poller and the SQS-triggered Lambda share it.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/bads1de/CareerRise/internal/queue"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

// Job is a decoded message plus a fingerprint of its raw body for logs.
type Job struct {
	queue.Message
	BodyLen    int
	BodySHA256 string
}

// Fields returns log fields describing j.
func (j Job) Fields() map[string]any {
	fields := map[string]any{"body_len": j.BodyLen, "photo_url": j.URL}
	if j.BodySHA256 != "" {
		fields["body_sha256"] = j.BodySHA256
	}
	if j.RequestID != "" {
		fields["request_id"] = j.RequestID
	}
	return fields
}

// RejectError marks a message that can never succeed. Consumers drop it
// instead of waiting for redelivery.
type RejectError struct {
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	if e.Err == nil {
		return "reject message: " + e.Reason
	}
	return fmt.Sprintf("reject message: %s: %v", e.Reason, e.Err)
}

func (e *RejectError) Unwrap() error { return e.Err }

// Unrecoverable reports whether err came from a rejected message.
func Unrecoverable(err error) bool {
	var rej *RejectError
	return errors.As(err, &rej)
}

// Processor deletes orphaned photos from object storage.
type Processor struct {
	Store queue.Deleter
}

// Decode parses body. The returned Job carries the fingerprint even on error.
func (p Processor) Decode(body string) (Job, error) {
	job := Job{BodyLen: len(body)}
	if body != "" {
		sum := sha256.Sum256([]byte(body))
		job.BodySHA256 = hex.EncodeToString(sum[:])
	}
	if strings.TrimSpace(body) == "" {
		return job, &RejectError{Reason: "empty body"}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return job, &RejectError{Reason: "malformed json", Err: err}
	}
	job.Message = msg
	if !msg.Supported() {
		reason := "unsupported kind " + msg.Kind
		if msg.Kind == queue.KindPhotoDelete {
			reason = "missing photo url"
		}
		return job, &RejectError{Reason: reason}
	}
	return job, nil
}

// Run executes a decoded job.
func (p Processor) Run(ctx context.Context, job Job) error {
	if p.Store == nil {
		return errors.New("object store not configured")
	}
	ctx = telemetry.WithRequestID(ctx, job.RequestID)
	if err := queue.DeletePhoto(ctx, p.Store, job.URL); err != nil {
		return fmt.Errorf("delete photo %s: %w", job.URL, err)
	}
	return nil
}

// Process decodes and runs body in one step.
func (p Processor) Process(ctx context.Context, body string) (Job, error) {
	job, err := p.Decode(body)
	if err != nil {
		return job, err
	}
	return job, p.Run(ctx, job)
}
