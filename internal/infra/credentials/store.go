// Package credentials resolves the provider API key for each request and
// answers whether a credential has been selected.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"genstudio/internal/domain"
)

const ProviderGemini = "gemini"

// ErrEmptyKey is returned when an empty key is stored.
var ErrEmptyKey = errors.New("credentials: api key is required")

// Store reads and writes the Gemini key. A key configured in the environment
// takes precedence over the stored one.
type Store struct {
	tokens   domain.TokenRepository
	override string

	mu       sync.Mutex
	rejected string
}

func NewStore(tokens domain.TokenRepository, envKey string) *Store {
	return &Store{tokens: tokens, override: strings.TrimSpace(envKey)}
}

// APIKey returns the key to use for one request. An empty string means no
// credential is configured.
func (s *Store) APIKey(ctx context.Context) (string, error) {
	if s.override != "" {
		return s.override, nil
	}
	if s.tokens == nil {
		return "", nil
	}
	token, err := s.tokens.Token(ctx, ProviderGemini)
	if err != nil {
		return "", fmt.Errorf("credentials: load %s key: %w", ProviderGemini, err)
	}
	return strings.TrimSpace(token), nil
}

// SetAPIKey stores key for later requests.
func (s *Store) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if s.tokens == nil {
		return fmt.Errorf("credentials: no token repository configured")
	}
	if err := s.tokens.UpsertToken(ctx, ProviderGemini, key); err != nil {
		return err
	}
	s.mu.Lock()
	s.rejected = ""
	s.mu.Unlock()
	return nil
}

// MarkRejected records that the provider refused key. Until a key is stored
// again it no longer counts as a selected credential.
func (s *Store) MarkRejected(key string) {
	s.mu.Lock()
	s.rejected = strings.TrimSpace(key)
	s.mu.Unlock()
}

func (s *Store) isRejected(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected != "" && s.rejected == key
}
