// Package credentials keeps the API keys the reader uses for AI calls.
package credentials

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ziadkadry99/topicreader/internal/db"
	"github.com/ziadkadry99/topicreader/internal/llm"
)

// Source says where a credential was found.
type Source string

const (
	SourceNone   Source = ""
	SourceStored Source = "stored"
	SourceEnv    Source = "env"
)

// Store is a keyed credential store backed by SQLite. Lookups fall back to
// the provider's conventional environment variable.
type Store struct {
	db *db.DB
}

// NewStore returns a store over d.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

func normalize(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", errors.New("credential name is required")
	}
	return name, nil
}

// Set stores value under name, replacing any previous value.
func (s *Store) Set(name, value string) error {
	name, err := normalize(name)
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("credential value is required")
	}
	_, err = s.db.Exec(`INSERT INTO credentials (name, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, name, value)
	if err != nil {
		return fmt.Errorf("storing credential %s: %w", name, err)
	}
	return nil
}

// Delete removes a stored credential. Deleting a missing one is not an error.
func (s *Store) Delete(name string) error {
	name, err := normalize(name)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting credential %s: %w", name, err)
	}
	return nil
}

// Lookup returns the credential for name and where it came from. Stored
// values win over the environment.
func (s *Store) Lookup(name string) (string, Source, error) {
	name, err := normalize(name)
	if err != nil {
		return "", SourceNone, err
	}
	var value string
	err = s.db.QueryRow(`SELECT value FROM credentials WHERE name = ?`, name).Scan(&value)
	switch {
	case err == nil:
		return value, SourceStored, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", SourceNone, fmt.Errorf("reading credential %s: %w", name, err)
	}
	if env := llm.KeyEnv(name); env != "" {
		if v := os.Getenv(env); v != "" {
			return v, SourceEnv, nil
		}
	}
	return "", SourceNone, nil
}

// Get returns the credential for name, or "" when none is available.
func (s *Store) Get(name string) string {
	v, _, err := s.Lookup(name)
	if err != nil {
		return ""
	}
	return v
}

// Has reports whether a credential is available for name.
func (s *Store) Has(name string) bool {
	return s.Get(name) != ""
}
