package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/model"
)

// FileStore keeps one CSV file per (profile, kind) under dir.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, locks: make(map[string]*sync.Mutex)}
}

// Path returns the file holding the table of profile and kind.
func (s *FileStore) Path(profile string, kind model.Kind) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.csv", profile, kind))
}

// Load reads the saved table. A missing file is an empty table.
func (s *FileStore) Load(_ context.Context, profile string, kind model.Kind) ([]model.Transaction, error) {
	if err := checkKey(profile, kind); err != nil {
		return nil, err
	}
	path := s.Path(profile, kind)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &errs.PersistenceError{Op: "read", Path: path, Err: err}
	}

	txs, err := ReadTable(bytes.NewReader(data))
	if err != nil {
		return nil, &errs.PersistenceError{Op: "read", Path: path, Err: err}
	}
	return txs, nil
}

// Save replaces the saved table with txs. An empty txs deletes the file.
// The write goes to a temporary file that is renamed over the old one.
func (s *FileStore) Save(_ context.Context, profile string, kind model.Kind, txs []model.Transaction) error {
	if err := checkKey(profile, kind); err != nil {
		return err
	}
	path := s.Path(profile, kind)

	lock := s.lock(path)
	lock.Lock()
	defer lock.Unlock()

	if len(txs) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &errs.PersistenceError{Op: "delete", Path: path, Err: err}
		}
		return nil
	}

	if verrs := ValidateRecords(txs); len(verrs) > 0 {
		return &errs.PersistenceError{Op: "validate", Path: path, Err: joinValidation(verrs)}
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, txs); err != nil {
		return &errs.PersistenceError{Op: "encode", Path: path, Err: err}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &errs.PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &errs.PersistenceError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func (s *FileStore) lock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

func checkKey(profile string, kind model.Kind) error {
	if profile == "" || strings.ContainsAny(profile, `/\`) || profile == "." || profile == ".." {
		return &errs.PersistenceError{Op: "resolve", Path: profile, Err: fmt.Errorf("invalid profile name %q", profile)}
	}
	if !kind.Valid() {
		return &errs.PersistenceError{Op: "resolve", Path: profile, Err: fmt.Errorf("unknown table kind %q", kind)}
	}
	return nil
}
