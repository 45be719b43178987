package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Backend selects where API keys are kept.
type Backend string

const (
	FileBackend    Backend = "file"
	KeyringBackend Backend = "keyring"
)

// Credentials stores API keys.
type Credentials interface {
	Get(name KeyName) (string, error)
	Set(name KeyName, value string) error
	Delete(name KeyName) error
}

// fileCredentials keeps keys base64 encoded inside config.json.
type fileCredentials struct{ s *Store }

func (f fileCredentials) Get(name KeyName) (string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	doc := f.s.load()
	if v, _ := doc[name.Field()].(string); v != "" {
		return decodeKey(v), nil
	}
	if name == YouTube {
		v, _ := doc[legacyYouTubeField].(string)
		return decodeKey(v), nil
	}
	return "", nil
}

func (f fileCredentials) Set(name KeyName, value string) error {
	return f.s.update(func(doc map[string]any) {
		doc[name.Field()] = encodeKey(value)
		if name == YouTube {
			delete(doc, legacyYouTubeField)
		}
	})
}

func (f fileCredentials) Delete(name KeyName) error {
	return f.Set(name, "")
}

const keyringService = "cutboard"

// Keyring keeps keys in the OS keychain via github.com/zalando/go-keyring.
type Keyring struct{}

func (Keyring) Get(name KeyName) (string, error) {
	v, err := keyring.Get(keyringService, name.Field())
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keyring get %s: %w", name, err)
	}
	return v, nil
}

func (k Keyring) Set(name KeyName, value string) error {
	if value == "" {
		return k.Delete(name)
	}
	if err := keyring.Set(keyringService, name.Field(), value); err != nil {
		return fmt.Errorf("keyring set %s: %w", name, err)
	}
	return nil
}

func (Keyring) Delete(name KeyName) error {
	err := keyring.Delete(keyringService, name.Field())
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %s: %w", name, err)
	}
	return nil
}

// CredentialsFor returns the credential backend b. The file backend is nil so
// Open keeps keys in config.json.
func CredentialsFor(b Backend) (Credentials, error) {
	switch b {
	case "", FileBackend:
		return nil, nil
	case KeyringBackend:
		return Keyring{}, nil
	}
	return nil, fmt.Errorf("unknown credential backend %q", b)
}
