package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Env var names read by FromEnv.
const (
	EnvPort         = "PORT"
	EnvConfigDir    = "CUTBOARD_CONFIG_DIR"
	EnvLogLevel     = "CUTBOARD_LOG_LEVEL"
	EnvLogFormat    = "CUTBOARD_LOG_FORMAT"
	EnvLogFile      = "CUTBOARD_LOG_FILE"
	EnvTextProvider = "CUTBOARD_TEXT_PROVIDER"
	EnvTextModel    = "CUTBOARD_TEXT_MODEL"
	EnvImageModel   = "CUTBOARD_IMAGE_MODEL"
	EnvPacingMs     = "CUTBOARD_PACING_MS"
	EnvWorkers      = "CUTBOARD_WORKERS"
	EnvQueueSize    = "CUTBOARD_QUEUE_SIZE"
	EnvCredentials  = "CUTBOARD_CREDENTIALS"
)

const DirName = ".youtube_maker"

// Options are the process settings that come from the environment.
type Options struct {
	Port         string
	ConfigDir    string
	LogLevel     string
	LogFormat    string
	LogFile      string
	TextProvider string
	TextModel    string
	ImageModel   string
	Pacing       time.Duration
	Workers      int
	QueueSize    int
	Credentials  Backend
}

func FromEnv() Options {
	return Options{
		Port:         getenv(EnvPort, "8080"),
		ConfigDir:    getenv(EnvConfigDir, DefaultDir()),
		LogLevel:     getenv(EnvLogLevel, "info"),
		LogFormat:    getenv(EnvLogFormat, "text"),
		LogFile:      os.Getenv(EnvLogFile),
		TextProvider: strings.ToLower(getenv(EnvTextProvider, "gemini")),
		TextModel:    os.Getenv(EnvTextModel),
		ImageModel:   os.Getenv(EnvImageModel),
		Pacing:       time.Duration(atoi(os.Getenv(EnvPacingMs), 1000)) * time.Millisecond,
		Workers:      max(atoi(os.Getenv(EnvWorkers), 1), 1),
		QueueSize:    max(atoi(os.Getenv(EnvQueueSize), 100), 1),
		Credentials:  Backend(strings.ToLower(getenv(EnvCredentials, string(FileBackend)))),
	}
}

// DefaultDir is ~/.youtube_maker, or a relative directory when the home
// directory cannot be resolved.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return def
	}
	return n
}
