package templates

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"cutboard/pkg/prompt"
	"cutboard/pkg/utils"
)

const (
	FileName    = "prompt_templates.json"
	DefaultName = "default"
)

var (
	ErrProtected = errors.New("the default template cannot be deleted")
	ErrNotFound  = errors.New("template not found")
	ErrName      = errors.New("template name is required")
)

// Store is the named collection of script prompt templates, saved to disk on
// every change. The "default" entry always exists.
type Store struct {
	mu        sync.RWMutex
	path      string
	templates map[string]string
}

// Open loads dir/prompt_templates.json. A missing file is created with the
// default template; an unreadable one is left on disk untouched and the store
// starts from the default in memory.
func Open(dir string) (*Store, error) {
	s := &Store{path: filepath.Join(dir, FileName)}

	loaded, err := utils.Load[map[string]string](s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.templates = defaults()
		if err := s.save(); err != nil {
			return nil, err
		}
	case err != nil:
		log.Warn("prompt templates unreadable, using the default", "path", s.path, "error", err)
		s.templates = defaults()
	default:
		if loaded == nil {
			loaded = map[string]string{}
		}
		if _, ok := loaded[DefaultName]; !ok {
			loaded[DefaultName] = prompt.DefaultTemplate
		}
		s.templates = loaded
	}
	return s, nil
}

func defaults() map[string]string {
	return map[string]string{DefaultName: prompt.DefaultTemplate}
}

func (s *Store) Path() string { return s.path }

func (s *Store) save() error {
	if err := utils.Save(s.path, s.templates); err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	return nil
}

func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[name]
	return t, ok
}

// Names returns "default" first and the rest sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := slices.Sorted(maps.Keys(s.templates))
	names = slices.DeleteFunc(names, func(n string) bool { return n == DefaultName })
	return append([]string{DefaultName}, names...)
}

// Set creates or replaces a template. Bodies that reference unknown
// placeholders are rejected with a *prompt.TemplateError.
func (s *Store) Set(name, body string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrName
	}
	if err := prompt.CheckTemplate(body); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.templates[name]
	s.templates[name] = body
	if err := s.save(); err != nil {
		if had {
			s.templates[name] = prev
		} else {
			delete(s.templates, name)
		}
		return err
	}
	return nil
}

func (s *Store) Delete(name string) error {
	if name == DefaultName {
		return ErrProtected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.templates[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	delete(s.templates, name)
	if err := s.save(); err != nil {
		s.templates[name] = prev
		return err
	}
	return nil
}

// Reset discards every template and restores the built-in default.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.templates
	s.templates = defaults()
	if err := s.save(); err != nil {
		s.templates = prev
		return err
	}
	return nil
}

// Import reads a UTF-8 text file into the template name.
func (s *Store) Import(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("import template: %w", err)
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("import template: %s is not UTF-8 text", path)
	}
	return s.Set(name, strings.TrimPrefix(string(data), "\ufeff"))
}

// Export writes the template name to path.
func (s *Store) Export(name, path string) error {
	body, ok := s.Get(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export template: %w", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("export template: %w", err)
	}
	return nil
}

// Diff compares the template name against the built-in default word by word.
func (s *Store) Diff(name string) ([]utils.WordDelta, error) {
	body, ok := s.Get(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return utils.DiffWords(prompt.DefaultTemplate, body), nil
}
