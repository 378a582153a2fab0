package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"trackgen/api/internal/config"
)

func TestCloseRunsInReverse(t *testing.T) {
	var order []string
	a := &App{closers: []func(context.Context) error{
		func(context.Context) error { order = append(order, "store"); return nil },
		func(context.Context) error { order = append(order, "model"); return errors.New("model close") },
	}}
	err := a.Close(context.Background())
	if err == nil || !strings.Contains(err.Error(), "model close") {
		t.Fatalf("expected joined close error, got %v", err)
	}
	if strings.Join(order, ",") != "model,store" {
		t.Fatalf("unexpected close order %v", order)
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}

func TestOpenRepoUnknownBackend(t *testing.T) {
	_, err := OpenRepo(context.Background(), &config.Config{StoreBackend: "sqlite"}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "sqlite") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestNewLoggerReplaysConfigWarnings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "api.log")
	cfg := &config.Config{LogLevel: "info", LogFile: path, Warnings: []string{`bad int in REDIS_DB="x", using 0`}}

	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	_ = log.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `REDIS_DB`) {
		t.Fatalf("config warning not logged as JSON:\n%s", out)
	}
}
