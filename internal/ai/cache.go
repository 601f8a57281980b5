package ai

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log"

	"github.com/ziadkadry99/topicreader/internal/db"
)

// Cache stores generated summaries keyed by model and prompt.
type Cache struct {
	db *db.DB
}

// NewCache returns a summary cache over d.
func NewCache(d *db.DB) *Cache {
	return &Cache{db: d}
}

func hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// Get returns a cached summary.
func (c *Cache) Get(model, prompt string) (string, bool) {
	if c == nil {
		return "", false
	}
	var summary string
	err := c.db.QueryRow(`SELECT summary FROM summary_cache WHERE model = ? AND text_hash = ?`, model, hashPrompt(prompt)).Scan(&summary)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("ai: reading summary cache: %v", err)
		}
		return "", false
	}
	return summary, true
}

// Put records a summary. Failures are logged and otherwise ignored.
func (c *Cache) Put(model, prompt, summary string) {
	if c == nil {
		return
	}
	_, err := c.db.Exec(`INSERT INTO summary_cache (model, text_hash, summary) VALUES (?, ?, ?)
		ON CONFLICT(model, text_hash) DO UPDATE SET summary = excluded.summary, created_at = datetime('now')`,
		model, hashPrompt(prompt), summary)
	if err != nil {
		log.Printf("ai: writing summary cache: %v", err)
	}
}
