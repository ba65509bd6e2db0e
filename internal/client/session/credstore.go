package session

import (
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"
)

const (
	bucketName = "session"
	keyToken   = "token"
	keyTheme   = "theme"
)

// BoltCredentials keeps the auth token and UI preferences in a single-file
// bolt database, the durable equivalent of browser local storage.
type BoltCredentials struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the state database at path and ensures the
// session bucket exists.
func OpenBolt(path string) (*BoltCredentials, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init state database: %w", err)
	}

	return &BoltCredentials{db: db}, nil
}

// Close releases the database file lock.
func (c *BoltCredentials) Close() error {
	return c.db.Close()
}

func (c *BoltCredentials) get(key string) (string, error) {
	var out string
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketName)).Get([]byte(key)); v != nil {
			out = string(v)
		}
		return nil
	})
	return out, err
}

func (c *BoltCredentials) put(key, value string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), []byte(value))
	})
}

// Token returns the persisted bearer token, or "" when none is stored.
func (c *BoltCredentials) Token() (string, error) {
	return c.get(keyToken)
}

// SaveToken stores the bearer token.
func (c *BoltCredentials) SaveToken(token string) error {
	return c.put(keyToken, token)
}

// ClearToken removes the persisted token. Deleting an absent key is a
// no-op in bolt, which keeps this idempotent.
func (c *BoltCredentials) ClearToken() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(keyToken))
	})
}

// Theme returns the persisted UI theme preference, or "" when unset.
func (c *BoltCredentials) Theme() (string, error) {
	return c.get(keyTheme)
}

// SaveTheme stores the UI theme preference.
func (c *BoltCredentials) SaveTheme(theme string) error {
	return c.put(keyTheme, theme)
}
