// Package supplierstore looks up supplier layouts, either from the YAML files
// in the suppliers directory or from a Postgres table shared by several
// workstations.
package supplierstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/config"
)

// ErrNotFound is returned when no supplier has the requested name.
var ErrNotFound = errors.New("supplier not found")

// DefaultName selects the built-in layout when no supplier by that name is
// configured.
const DefaultName = "default"

// Store returns supplier configurations by name.
type Store interface {
	Get(ctx context.Context, name string) (*config.SupplierConfig, error)
	List(ctx context.Context) ([]string, error)
	Close()
}

// Open returns the store selected by the main configuration.
func Open(ctx context.Context, cfg *config.MainConfig) (Store, error) {
	switch cfg.SupplierSource {
	case config.SourcePostgres:
		s, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return NewFileStore(cfg.SuppliersDir), nil
	}
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore reads suppliers/*.yaml on every lookup so edits take effect
// without a restart.
type FileStore struct {
	dir string
}

// NewFileStore returns a store over dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Get implements Store. The name "default" falls back to the built-in layout
// unless a file defines it.
func (s *FileStore) Get(_ context.Context, name string) (*config.SupplierConfig, error) {
	configs, err := config.LoadSupplierConfigs(s.dir)
	if err != nil {
		return nil, err
	}
	if c, ok := configs[name]; ok {
		return c, nil
	}
	if name == DefaultName {
		return config.DefaultSupplier(), nil
	}
	return nil, fmt.Errorf("%q in %s: %w", name, s.dir, ErrNotFound)
}

// List implements Store.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	configs, err := config.LoadSupplierConfigs(s.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close implements Store.
func (s *FileStore) Close() {}
