// Package store persists named layout documents in a buntdb file. Values are
// the versioned layout JSON under "layout:<name>:data" keys, so the file stays
// inspectable with standard tooling.
package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/buntdb"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/chayuto/panic-on-rails/layout"
)

const (
	keyPrefix = "layout:"
	keySuffix = ":data"
)

type Store struct {
	db *buntdb.DB
}

// Open opens (or creates) the database at path. ":memory:" works for tests.
func Open(path string) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(name string) string {
	return keyPrefix + name + keySuffix
}

// Save validates and writes one named layout, replacing any previous version.
func (s *Store) Save(name string, d layout.Document) error {
	if name == "" || strings.Contains(name, ":") {
		return fmt.Errorf("save layout: invalid name %q", name)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("save layout %s: %w", name, err)
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("save layout %s: %w", name, err)
	}
	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(name), string(data), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("save layout %s: %w", name, err)
	}
	zap.S().Infow("saved layout",
		"name", name,
		"nodes", len(d.Nodes),
		"edges", len(d.Edges))
	return nil
}

// Load reads and validates one named layout.
func (s *Store) Load(name string) (layout.Document, error) {
	var raw string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key(name))
		raw = v
		return err
	})
	if err == buntdb.ErrNotFound {
		return layout.Document{}, fmt.Errorf("load layout: %q not found", name)
	}
	if err != nil {
		return layout.Document{}, fmt.Errorf("load layout %s: %w", name, err)
	}
	var d layout.Document
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return layout.Document{}, fmt.Errorf("load layout %s: %w", name, err)
	}
	if err := d.Validate(); err != nil {
		return layout.Document{}, fmt.Errorf("load layout %s: %w", name, err)
	}
	return d, nil
}

// List returns the saved layout names, sorted.
func (s *Store) List() ([]string, error) {
	names := []string{}
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, value string) bool {
			if !strings.HasPrefix(key, keyPrefix) || !strings.HasSuffix(key, keySuffix) {
				return true
			}
			names = append(names, key[len(keyPrefix):len(key)-len(keySuffix)])
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// Delete removes one named layout; reports whether it existed.
func (s *Store) Delete(name string) (bool, error) {
	existed := true
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key(name))
		if err == buntdb.ErrNotFound {
			existed = false
			return nil
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete layout %s: %w", name, err)
	}
	return existed, nil
}
