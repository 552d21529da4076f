// Package store is a content-addressed on-disk cache for reduction and
// Frobenius matrices. Entries carry a checksum header and are published by
// rename, so readers never see a partial write.
package store

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/sha3"

	"controlledreduction/errs"
	"controlledreduction/internal/logging"
)

const (
	magic  = "crzeta1"
	suffix = ".entry"
)

// Store is a directory of entries. The zero value is not usable; use Open.
type Store struct {
	dir string
	log *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open creates dir when needed.
func Open(dir string, log *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store: empty directory: %w", errs.ErrDomain)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{dir: dir, log: logging.Or(log), locks: map[string]*sync.Mutex{}}, nil
}

func (s *Store) Dir() string { return s.dir }

// Key hashes the parts into a content key.
func Key(parts ...string) string {
	h := sha3.New256()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s;", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func checksum(payload []byte) string {
	sum := sha3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(key string) string { return filepath.Join(s.dir, key+suffix) }

func (s *Store) lock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\.`) {
		return fmt.Errorf("store: bad key %q: %w", key, errs.ErrDomain)
	}
	return nil
}

// Put writes payload under key through a temporary file and a rename.
func (s *Store) Put(key string, payload []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	l := s.lock(key)
	l.Lock()
	defer l.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	name := tmp.Name()
	w := bufio.NewWriter(tmp)
	fmt.Fprintf(w, "%s %s\n", magic, checksum(payload))
	_, err = w.Write(payload)
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = tmp.Sync()
	}
	if err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("store: close %s: %w", key, err)
	}
	if err := os.Rename(name, s.path(key)); err != nil {
		os.Remove(name)
		return fmt.Errorf("store: publish %s: %w", key, err)
	}
	s.log.Debug("stored entry", "key", key, "bytes", len(payload))
	return nil
}

// Get returns the payload under key. A missing entry is ErrNotFound; an entry
// whose header or checksum does not match is ErrCorrupt.
func (s *Store) Get(key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("store: %s: %w", key, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return nil, fmt.Errorf("store: %s has no header: %w", key, errs.ErrCorrupt)
	}
	header := strings.Fields(string(data[:nl]))
	payload := data[nl+1:]
	if len(header) != 2 || header[0] != magic {
		return nil, fmt.Errorf("store: %s has a bad header: %w", key, errs.ErrCorrupt)
	}
	if header[1] != checksum(payload) {
		return nil, fmt.Errorf("store: %s failed its checksum: %w", key, errs.ErrCorrupt)
	}
	return payload, nil
}

// Delete removes key; a missing entry is not an error.
func (s *Store) Delete(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// Keys lists the stored keys in lexical order.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), suffix))
	}
	sort.Strings(out)
	return out, nil
}

// PutJSON stores v encoded as JSON.
func (s *Store) PutJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return s.Put(key, data)
}

// GetJSON decodes the entry under key into v. Undecodable payloads are
// reported as ErrCorrupt.
func (s *Store) GetJSON(key string, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: decode %s: %v: %w", key, err, errs.ErrCorrupt)
	}
	return nil
}

// Recover drops a corrupt entry so the caller can rebuild it. Other errors
// are returned unchanged; nil means the entry was corrupt and is gone.
func (s *Store) Recover(key string, err error) error {
	if !errors.Is(err, errs.ErrCorrupt) {
		return err
	}
	s.log.Warn("discarding corrupt cache entry", "key", key, "err", err)
	return s.Delete(key)
}
