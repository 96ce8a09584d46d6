// Package auth keeps the bearer token sent to the remote collection.
//
// The token comes from TADA_TOKEN or from ~/.tada/credentials.json. When a
// token is a JWT its exp claim is read locally (the signature is not
// checked) so an expired token can be dropped instead of sent.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnvToken overrides any stored credentials.
const EnvToken = "TADA_TOKEN"

const credFileName = "credentials.json"

// Token sources.
const (
	SourceEnv  = "env"
	SourceFile = "file"
)

// ErrEmptyToken is returned when asked to store a blank token.
var ErrEmptyToken = errors.New("empty token")

type Token struct {
	Value     string     `json:"token"`
	SavedAt   time.Time  `json:"saved_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Source string `json:"-"`
}

// Expired reports whether the token has a known expiry at or before now.
func (t *Token) Expired(now time.Time) bool {
	return t != nil && t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// Store reads and writes credentials under Dir.
type Store struct {
	Dir string
	Now func() time.Time
}

// DefaultStore is rooted at ~/.tada, next to the config file.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home: %w", err)
	}
	return &Store{Dir: filepath.Join(home, ".tada")}, nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) path() string { return filepath.Join(s.Dir, credFileName) }

// Lookup returns the configured token, or nil when there is none. An
// expired token is still returned; callers decide what to do with it.
func (s *Store) Lookup() (*Token, error) {
	if env := StripBearer(strings.TrimSpace(os.Getenv(EnvToken))); env != "" {
		return &Token{Value: env, Source: SourceEnv, ExpiresAt: JWTExpiry(env)}, nil
	}

	b, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var tok Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	tok.Value = StripBearer(tok.Value)
	if tok.Value == "" {
		return nil, nil
	}
	tok.Source = SourceFile
	return &tok, nil
}

// Save stores raw. A positive ttl sets the expiry; otherwise it comes from
// the JWT exp claim when there is one.
func (s *Store) Save(raw string, ttl time.Duration) (*Token, error) {
	value := StripBearer(strings.TrimSpace(raw))
	if value == "" {
		return nil, ErrEmptyToken
	}
	now := s.now()
	tok := &Token{Value: value, Source: SourceFile, SavedAt: now, ExpiresAt: JWTExpiry(value)}
	if ttl > 0 {
		exp := now.Add(ttl)
		tok.ExpiresAt = &exp
	}

	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(s.path(), b, 0o600); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	return tok, nil
}

// Remove deletes the credentials file. A missing file is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// JWTExpiry decodes the exp claim of a JWT. Opaque tokens, malformed
// payloads and tokens without exp yield nil.
func JWTExpiry(token string) *time.Time {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil
	}
	var claims struct {
		Exp *float64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == nil {
		return nil
	}
	exp := time.Unix(int64(*claims.Exp), 0).UTC()
	return &exp
}

// StripBearer drops a leading "Bearer " (any case).
func StripBearer(s string) string {
	if len(s) >= 7 && strings.EqualFold(s[:7], "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
