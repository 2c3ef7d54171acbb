// Package filedb stores every document as an indented JSON file below a data directory.
package filedb

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/storage/database/keylock"
)

const ext = ".json"

var errInvalidKey = errors.New("invalid document key")

type Store struct {
	dir   string
	locks *keylock.Locks
}

var (
	_ core.Store  = (*Store)(nil)
	_ core.Locker = (*Store)(nil)
)

// Open returns a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}
	return &Store{dir: dir, locks: keylock.New()}, nil
}

func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(errInvalidKey, "%q", key)
	}
	return filepath.Join(s.dir, clean+ext), nil
}

func (s *Store) Get(_ context.Context, key string, dst interface{}) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.ErrNotFound
		}
		return errors.Wrapf(err, "reading %q", key)
	}
	return errors.Wrapf(json.Unmarshal(data, dst), "decoding %q", key)
}

// Put writes to a temporary file renamed over the document, so readers never see a partial file.
func (s *Store) Put(_ context.Context, key string, v interface{}) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating directory of %q", key)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file of %q", key)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // no-op once renamed

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %q", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "writing %q", key)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "writing %q", key)
}

func (s *Store) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %q", key)
	}
	return nil
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		key := strings.TrimSuffix(filepath.ToSlash(rel), ext)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing documents")
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Lock(key string) func() {
	return s.locks.Lock(key)
}
