package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"cutboard/pkg/utils"
)

const FileName = "config.json"

var ErrMissingKey = errors.New("api key not configured")

// KeyName identifies one of the stored API credentials.
type KeyName string

const (
	YouTube KeyName = "youtube"
	Gemini  KeyName = "gemini"
)

var KeyNames = []KeyName{YouTube, Gemini}

func ParseKeyName(s string) (KeyName, bool) {
	switch KeyName(strings.ToLower(strings.TrimSpace(s))) {
	case YouTube:
		return YouTube, true
	case Gemini:
		return Gemini, true
	}
	return "", false
}

// Field is the config.json entry holding the key.
func (k KeyName) Field() string { return string(k) + "_api_key" }

// Env is the variable that overrides the stored key.
func (k KeyName) Env() string { return strings.ToUpper(string(k)) + "_API_KEY" }

const legacyYouTubeField = "api_key"

// minKeyLength is the shortest value accepted as a configured key.
const minKeyLength = 11

// Store persists API keys and free-form settings in config.json. Keys are
// base64 encoded on disk, which hides them from a casual glance and nothing
// more.
type Store struct {
	mu    sync.Mutex
	path  string
	creds Credentials
}

// Open prepares dir and returns a store backed by dir/config.json. A nil creds
// keeps keys in the file.
func Open(dir string, creds Credentials) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	s := &Store{path: filepath.Join(dir, FileName)}
	if creds == nil {
		creds = fileCredentials{s}
	}
	s.creds = creds
	return s, nil
}

func (s *Store) Path() string { return s.path }

// load returns the whole document. A missing or unreadable file is empty.
func (s *Store) load() map[string]any {
	doc, err := utils.Load[map[string]any](s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("config unreadable, using empty settings", "path", s.path, "error", err)
		}
		return map[string]any{}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc
}

func (s *Store) update(fn func(doc map[string]any)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	fn(doc)
	if err := utils.Save(s.path, doc); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Key returns the key for name. The environment wins over the stored value.
func (s *Store) Key(name KeyName) string {
	if v := strings.TrimSpace(os.Getenv(name.Env())); v != "" {
		return v
	}
	v, err := s.creds.Get(name)
	if err != nil {
		log.Warn("could not read credential", "key", name, "error", err)
		return ""
	}
	return v
}

// HasKey reports whether a plausible key is configured.
func (s *Store) HasKey(name KeyName) bool {
	return len(s.Key(name)) >= minKeyLength
}

// RequireKey returns the key or an error wrapping ErrMissingKey.
func (s *Store) RequireKey(name KeyName) (string, error) {
	if !s.HasKey(name) {
		return "", fmt.Errorf("%s: %w", name, ErrMissingKey)
	}
	return s.Key(name), nil
}

func (s *Store) SetKey(name KeyName, value string) error {
	return s.creds.Set(name, strings.TrimSpace(value))
}

func (s *Store) ClearKey(name KeyName) error {
	return s.creds.Delete(name)
}

// Setting returns a stored setting value.
func (s *Store) Setting(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.load()[key]
	return v, ok
}

func (s *Store) SetSetting(key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("setting key is required")
	}
	if isKeyField(key) {
		return fmt.Errorf("%q holds a credential; use the key endpoints", key)
	}
	return s.update(func(doc map[string]any) { doc[key] = value })
}

// Settings returns every stored setting except credentials.
func (s *Store) Settings() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := maps.Clone(s.load())
	maps.DeleteFunc(out, func(k string, _ any) bool { return isKeyField(k) })
	return out
}

// ClearAll removes the config file and any credentials held elsewhere.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	err := os.Remove(s.path)
	s.mu.Unlock()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove config: %w", err)
	}
	if _, ok := s.creds.(fileCredentials); ok {
		return nil
	}
	var errs []error
	for _, name := range KeyNames {
		errs = append(errs, s.creds.Delete(name))
	}
	return errors.Join(errs...)
}

func isKeyField(k string) bool {
	if k == legacyYouTubeField {
		return true
	}
	for _, name := range KeyNames {
		if k == name.Field() {
			return true
		}
	}
	return false
}

func encodeKey(key string) string {
	if key == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(key))
}

func decodeKey(encoded string) string {
	if encoded == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	return string(b)
}
