// Package storage persists OAuth tokens and client registrations in a
// local bbolt database so sessions survive process restarts.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	// DatabaseFile is the bbolt file created under the data directory.
	DatabaseFile = "auth.db"

	tokensBucket        = "oauth_tokens"
	registrationsBucket = "oauth_registrations"
	metaBucket          = "meta"

	schemaVersionKey = "schema_version"
	schemaVersion    = "1"
)

// DB wraps a bbolt database holding per-server authentication state.
type DB struct {
	db     *bolt.DB
	logger *zap.SugaredLogger
}

// Open creates or opens the auth database under dataDir.
func Open(dataDir string, logger *zap.SugaredLogger) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, DatabaseFile)
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	s := &DB{db: db, logger: logger}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debugw("auth database opened", "path", path)
	return s, nil
}

func (s *DB) ensureSchema() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{tokensBucket, registrationsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		meta := tx.Bucket([]byte(metaBucket))
		if meta.Get([]byte(schemaVersionKey)) == nil {
			return meta.Put([]byte(schemaVersionKey), []byte(schemaVersion))
		}
		return nil
	})
}

// Close releases the underlying database.
func (s *DB) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *DB) Path() string {
	return s.db.Path()
}

// serverKey derives a stable record key for a server. The name keeps keys
// readable; the URL hash keeps distinct servers with the same name apart.
func serverKey(name, serverURL string) string {
	sum := sha256.Sum256([]byte(serverURL))
	return name + "_" + hex.EncodeToString(sum[:])[:16]
}

func (s *DB) get(bucket, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s missing", bucket)
		}
		if v := b.Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (s *DB) put(bucket, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s missing", bucket)
		}
		return b.Put([]byte(key), value)
	})
}

func (s *DB) delete(bucket, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s missing", bucket)
		}
		return b.Delete([]byte(key))
	})
}
