package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/bads1de/CareerRise/internal/bootstrap"
	"github.com/bads1de/CareerRise/internal/queue"
)

type failingStore struct{ failURL string }

func (s failingStore) Put(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("not used")
}

func (s failingStore) Delete(_ context.Context, url string) error {
	if url == s.failURL {
		return errors.New("s3 unavailable")
	}
	return nil
}

func record(t *testing.T, id, url string) events.SQSMessage {
	t.Helper()
	body, err := queue.EncodeMessage(queue.PhotoDelete(url, "u1", "persist_failed", "", time.Now()))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return events.SQSMessage{MessageId: id, Body: string(body)}
}

func TestHandlerReportsOnlyRetryableFailures(t *testing.T) {
	initOnce.Do(func() {})
	app = &bootstrap.App{Store: failingStore{failURL: "https://cdn/b.png"}}
	t.Cleanup(func() { app = nil })

	resp, err := handler(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		record(t, "ok", "https://cdn/a.png"),
		record(t, "retry", "https://cdn/b.png"),
		{MessageId: "garbage", Body: "{nope"},
	}})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(resp.BatchItemFailures) != 1 || resp.BatchItemFailures[0].ItemIdentifier != "retry" {
		t.Fatalf("unexpected failures: %+v", resp.BatchItemFailures)
	}
}
