package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
environment: test
server:
  port: 8080
api:
  base_url: https://paper.example.com
  project: deck
  timeout: 10s
polygon:
  websocket_url: wss://socket.polygon.io/stocks
scheduler:
  open_hour: 9
  close_hour: 20
  settle_delay: 2s
  tick_poll: 1s
ensemble:
  timeframes: ["1min", "5min", "30min", "1h", "1d", "5d"]
recorder:
  backend: none
`

func writeSample(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write sample config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeSample(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.API.BaseURL != "https://paper.example.com" {
		t.Fatalf("api.base_url = %q", c.API.BaseURL)
	}
	if c.Scheduler.CloseHour != 20 {
		t.Fatalf("scheduler.close_hour = %d", c.Scheduler.CloseHour)
	}
	if len(c.Ensemble.Timeframes) != 6 {
		t.Fatalf("ensemble.timeframes = %v", c.Ensemble.Timeframes)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("POLYGON_TOKEN", "tok-123")
	t.Setenv("PROJECT", "other")
	c, err := LoadWithEnv(writeSample(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if c.Polygon.Token != "tok-123" {
		t.Fatalf("polygon.token = %q", c.Polygon.Token)
	}
	if c.API.Project != "other" {
		t.Fatalf("api.project = %q", c.API.Project)
	}
}

func TestValidateRejectsBadBackend(t *testing.T) {
	body := `
environment: test
api:
  base_url: https://paper.example.com
  project: deck
recorder:
  backend: postgres
`
	if _, err := Load(writeSample(t, body)); err == nil {
		t.Fatalf("unknown recorder backend must be rejected")
	}
}

func TestValidateRejectsUnknownTimeframe(t *testing.T) {
	body := `
environment: test
api:
  base_url: https://paper.example.com
  project: deck
ensemble:
  timeframes: ["2min"]
`
	if _, err := Load(writeSample(t, body)); err == nil {
		t.Fatalf("unknown timeframe must be rejected")
	}
}
