// Package storage implements the object-store contract (C11, spec.md §6)
// against either a local directory or S3, keyed by <alertname>/<dedup_key>.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore implements providers.ObjectStore against a directory on disk.
// Used for development and single-node deployments; KeyPrefix namespaces
// every key so a 403-as-"does not exist" interpretation elsewhere can never
// race with unrelated keys (see SPEC_FULL.md's resolved open question on
// storage-head 403 handling).
type LocalStore struct {
	Dir       string
	KeyPrefix string
}

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir, keyPrefix string) *LocalStore {
	return &LocalStore{Dir: dir, KeyPrefix: keyPrefix}
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.Dir, s.KeyPrefix, filepath.FromSlash(key))
}

// Head reports whether key exists and its modification time.
func (s *LocalStore) Head(_ context.Context, key string) (bool, time.Time, error) {
	info, err := os.Stat(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, time.Time{}, nil
		}
		return false, time.Time{}, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, info.ModTime(), nil
}

// PutMarkdown writes a Markdown report to key.
func (s *LocalStore) PutMarkdown(_ context.Context, key, body string) error {
	return s.write(key, []byte(body))
}

// PutJSON writes a JSON analysis dump to key.
func (s *LocalStore) PutJSON(_ context.Context, key string, body []byte) error {
	return s.write(key, body)
}

func (s *LocalStore) write(key string, body []byte) error {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", key, err)
	}
	if err := os.WriteFile(p, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// ReportKey builds the markdown report key for an alertname/dedup-key pair.
func ReportKey(alertname, dedupKey string) string {
	return strings.TrimSuffix(fmt.Sprintf("%s/%s.md", alertname, dedupKey), "")
}

// AnalysisKey builds the JSON analysis key for an alertname/dedup-key pair.
func AnalysisKey(alertname, dedupKey string) string {
	return fmt.Sprintf("%s/%s.json", alertname, dedupKey)
}
