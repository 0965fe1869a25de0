// Package store persists finished sampling sessions as flat JSON
// snapshots, one file per session keyed by its identifier.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"resmon/internal/fsutil"
	"resmon/internal/session"
)

// Meta is the lightweight listing entry for a stored session
type Meta struct {
	ID              string    `json:"id"`
	StartTime       time.Time `json:"start_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	State           string    `json:"state"`
	Samples         int       `json:"samples"`
}

// FileStore writes each session to <dir>/<id>.json. Writes go through
// a temp file and rename so a crash mid-write never leaves a truncated
// snapshot behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the storage directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create session store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the session snapshot, replacing any previous snapshot
// with the same ID.
func (s *FileStore) Save(sess *session.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := fsutil.AtomicWriteFile(s.path(sess.ID), data, fsutil.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load reads one stored session by ID
func (s *FileStore) Load(id string) (*session.Session, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &sess, nil
}

// List returns metadata for all stored sessions, newest first.
// Unreadable or corrupt files are skipped rather than failing the
// whole listing.
func (s *FileStore) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read session store directory: %w", err)
	}

	var out []Meta
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		sess, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, Meta{
			ID:              sess.ID,
			StartTime:       sess.StartTime,
			DurationSeconds: sess.DurationSeconds,
			State:           string(sess.State),
			Samples:         len(sess.Measurements),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

// Delete removes one stored session by ID
func (s *FileStore) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("session %s not found", id)
		}
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
