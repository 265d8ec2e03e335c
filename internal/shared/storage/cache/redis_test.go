package cache

import (
	"context"
	"strings"
	"testing"
)

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-redis-url")
	if err == nil || !strings.Contains(err.Error(), "redis.ParseURL") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestRedisDelWithoutKeysIsNoop(t *testing.T) {
	if err := (Redis{}).Del(context.Background()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
