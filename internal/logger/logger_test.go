package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/axellelanca/afltracker/internal/config"
)

func TestNewWithOutputJSON(t *testing.T) {
	var cfg config.Config
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"

	var buf bytes.Buffer
	log := NewWithOutput(&cfg, &buf)
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v, want debug", log.GetLevel())
	}
	log.WithField("click_id", "afl_1").Info("Click recorded")
	if !strings.Contains(buf.String(), `"click_id":"afl_1"`) {
		t.Fatalf("expected a JSON field in %q", buf.String())
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var cfg config.Config
	cfg.Log.Level = "chatty"
	cfg.Log.Format = "text"

	var buf bytes.Buffer
	log := NewWithOutput(&cfg, &buf)
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want info", log.GetLevel())
	}
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output should be dropped, got %q", buf.String())
	}
}
