// Package store persists conversation history in a local bbolt database.
// The whole collection is the unit of persistence: every save replaces
// the stored snapshot, there are no per-record writes.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

const (
	bucketName       = "scribe"
	conversationsKey = "conversations"
	languageKey      = "language"
)

// Conversation is one recorded session with its transcript and notes.
// Transcript and Summary may both be empty; an empty summary means no
// notes have been generated yet.
type Conversation struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	CreatedAt  string `json:"createdAt"` // RFC 3339
}

// Store wraps the bolt database holding conversations and settings.
type Store struct {
	db *bolt.DB
}

// DefaultPath returns the default database location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "scribe.db"
	}
	return filepath.Join(home, ".local", "share", "scribe", "scribe.db")
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: creating data dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the persisted collection, newest first. A missing slot or
// an undecodable snapshot yields an empty collection, never an error:
// the caller keeps working from memory when persistence is broken.
func (s *Store) Load() []Conversation {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketName)).Get([]byte(conversationsKey)); v != nil {
			raw = append(raw, v...)
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("store: load failed")
		return []Conversation{}
	}
	if len(raw) == 0 {
		return []Conversation{}
	}
	var convs []Conversation
	if err := json.Unmarshal(raw, &convs); err != nil {
		log.Warn().Err(err).Msg("store: discarding malformed conversation snapshot")
		return []Conversation{}
	}
	return convs
}

// Save replaces the persisted collection with the given one. Failures
// are logged and swallowed; the in-memory state stays authoritative for
// the rest of the session.
func (s *Store) Save(convs []Conversation) {
	if convs == nil {
		convs = []Conversation{}
	}
	enc, err := json.Marshal(convs)
	if err != nil {
		log.Warn().Err(err).Msg("store: encode failed, changes not persisted")
		return
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(conversationsKey), enc)
	})
	if err != nil {
		log.Warn().Err(err).Msg("store: save failed, changes not persisted")
	}
}

// Clear removes all conversations.
func (s *Store) Clear() {
	s.Save(nil)
}

// Language returns the persisted display-language code, or "" if unset.
func (s *Store) Language() string {
	var lang string
	err := s.db.View(func(tx *bolt.Tx) error {
		lang = string(tx.Bucket([]byte(bucketName)).Get([]byte(languageKey)))
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("store: language load failed")
		return ""
	}
	return lang
}

// SetLanguage persists the display-language code.
func (s *Store) SetLanguage(code string) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(languageKey), []byte(code))
	})
	if err != nil {
		log.Warn().Err(err).Msg("store: language save failed")
	}
}
