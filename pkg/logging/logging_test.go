package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	glog "github.com/labstack/gommon/log"
)

func keepDefaults(t *testing.T) {
	t.Helper()
	prev, prevSlog := log.Default(), slog.Default()
	t.Cleanup(func() {
		log.SetDefault(prev)
		slog.SetDefault(prevSlog)
	})
}

func TestSetupJSON(t *testing.T) {
	keepDefaults(t)
	var buf bytes.Buffer
	_, closer := Setup(Options{Level: "debug", Format: "json"}, &buf)
	defer closer.Close()

	log.Debug("cut ready", "cut", 3)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if rec["msg"] != "cut ready" || rec["cut"] != float64(3) {
		t.Fatalf("unexpected record %v", rec)
	}

	buf.Reset()
	slog.Info("through slog")
	if !strings.Contains(buf.String(), "through slog") {
		t.Fatalf("slog not routed: %q", buf.String())
	}
}

func TestSetupLevelFilters(t *testing.T) {
	keepDefaults(t)
	var buf bytes.Buffer
	Setup(Options{Level: "warn"}, &buf)
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered: %q", buf.String())
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn missing: %q", buf.String())
	}
}

func TestSetupFile(t *testing.T) {
	keepDefaults(t)
	path := filepath.Join(t.TempDir(), "cutboard.log")
	var buf bytes.Buffer
	_, closer := Setup(Options{File: path}, &buf)
	log.Info("to both")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to both") || !strings.Contains(buf.String(), "to both") {
		t.Fatalf("file %q, stderr %q", data, buf.String())
	}
}

func TestLevels(t *testing.T) {
	if ParseLevel("nonsense") != log.InfoLevel || ParseLevel(" ERROR ") != log.ErrorLevel {
		t.Fatal("ParseLevel")
	}
	if EchoLevel(log.DebugLevel) != glog.DEBUG || EchoLevel(log.FatalLevel) != glog.ERROR {
		t.Fatal("EchoLevel")
	}
}
