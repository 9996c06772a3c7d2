package internal

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/testutil"
)

type downBackend struct {
	graph.Backend
}

func (downBackend) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadyHandler(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	rec := httptest.NewRecorder()
	readyHandler(testutil.TestGraph(t), logger)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	readyHandler(downBackend{}, logger)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("down status = %d, want 503", rec.Code)
	}
}

func TestApplyReload(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	current := NewDefaultConfig()
	level := new(slog.LevelVar)
	level.Set(current.App.LogLevel)

	next := NewDefaultConfig()
	next.App.LogLevel = slog.LevelDebug
	applyReload(current, next, level, logger)
	if level.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want DEBUG", level.Level())
	}
	if strings.Contains(buf.String(), "restart required") {
		t.Error("log level change should not require restart")
	}

	next = NewDefaultConfig()
	next.App.HTTP.Port = 9999
	applyReload(current, next, level, logger)
	if !strings.Contains(buf.String(), "restart required") {
		t.Error("port change should be reported as requiring restart")
	}
}

func TestOpenBackendAndPhotos_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = dir + "/offcuts.db"
	cfg.Photos.Dir = dir + "/photos"
	ctx := context.Background()

	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	defer backend.Close()
	empty, err := backend.IsEmpty(ctx)
	if err != nil || !empty {
		t.Errorf("IsEmpty = %v, %v", empty, err)
	}

	if _, err := OpenPhotos(ctx, cfg); err != nil {
		t.Fatalf("OpenPhotos: %v", err)
	}

	cfg.Store.Driver = "postgres"
	if _, err := OpenBackend(ctx, cfg); err == nil {
		t.Error("expected error for unknown driver")
	}
}
