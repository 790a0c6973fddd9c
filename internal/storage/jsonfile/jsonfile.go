// Package jsonfile stores convergence records as a JSON document on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/windaep/internal/study"
)

// Store writes the record document to a single file, replacing it atomically
// on every save
type Store struct {
	path string
}

// New returns a store writing to path. The parent directory is created if
// needed.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("json record path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating record directory: %w", err)
	}
	return &Store{path: path}, nil
}

func (s *Store) Name() string { return "json-file" }

// Path returns the file the record is written to
func (s *Store) Path() string { return s.path }

func (s *Store) Save(ctx context.Context, r *study.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return Write(s.path, r.Document())
}

func (s *Store) Close() error { return nil }

// Write encodes v as indented JSON and replaces path with it atomically
func Write(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a record document written by Save
func Load(path string) (study.Document, error) {
	var doc study.Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decoding %s: %w", path, err)
	}
	return doc, nil
}
