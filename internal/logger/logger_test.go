package logger_test

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goccy/date-detector/internal/logger"
)

func TestLogger(t *testing.T) {
	if logger.Logger(context.Background()) == nil {
		t.Fatal("expected no-op logger for empty context")
	}

	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))
	ctx = logger.WithFields(ctx, zap.String("request_id", "abc"))
	logger.Logger(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry but got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "abc" {
		t.Fatalf("unexpected request_id field %v", got)
	}
}
