package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Alijeyrad/staylink_backend/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewHandler_ProductionWritesJSON(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Environment = "production"
	cfg.Logging.Level = "info"

	var buf bytes.Buffer
	logger := slog.New(newHandler(cfg, &buf))
	logger.Info("plan recorded", "plan_id", "p-1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if line["plan_id"] != "p-1" {
		t.Errorf("plan_id = %v, want p-1", line["plan_id"])
	}
}

func TestNewHandler_DevelopmentText(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Environment = "development"
	cfg.Logging.Level = "warn"

	var buf bytes.Buffer
	h := newHandler(cfg, &buf)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be filtered at warn level")
	}

	slog.New(h).Warn("host demoted")
	if !strings.Contains(buf.String(), "msg=\"host demoted\"") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}
