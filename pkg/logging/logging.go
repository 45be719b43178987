package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	glog "github.com/labstack/gommon/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level  string
	Format string // "text" or "json"
	File   string // rotated copy of the log when set
}

// Setup builds the process logger, installs it as the charmbracelet default
// and as the slog default, and returns a closer for the log file.
func Setup(o Options, stderr io.Writer) (*log.Logger, io.Closer) {
	var closer io.Closer = nopCloser{}
	w := stderr
	if strings.TrimSpace(o.File) != "" {
		file := &lumberjack.Logger{Filename: o.File, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		w = io.MultiWriter(stderr, file)
		closer = file
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(o.Level),
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Formatter:       formatter(o.Format),
	})
	log.SetDefault(logger)
	slog.SetDefault(slog.New(logger))
	return logger, closer
}

// ParseLevel falls back to info for unknown names.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// EchoLevel maps a level onto the gommon logger used by echo.
func EchoLevel(l log.Level) glog.Lvl {
	switch {
	case l <= log.DebugLevel:
		return glog.DEBUG
	case l <= log.InfoLevel:
		return glog.INFO
	case l <= log.WarnLevel:
		return glog.WARN
	default:
		return glog.ERROR
	}
}

func formatter(s string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	}
	return log.TextFormatter
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
