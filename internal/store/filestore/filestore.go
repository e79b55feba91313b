// Package filestore implements the Store interface on a local file tree.
//
// One JSON document per identity tuple, addressed deterministically as
//
//	<root>/<kind>/<tenant>/<env>/<project>/<surface>.json
//
// with the wildcard project encoded as "_any" and an empty surface as
// "default". Audit records append to a sibling "<surface>.audit.jsonl" file.
// The layout is stable across restarts; it is the single-node persistence
// option.
package filestore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/switchyard-systems/switchyard/internal/store"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// Compile-time interface satisfaction check.
var _ store.Store = (*FileStore)(nil)

const (
	anyProjectDir  = "_any"
	defaultSurface = "default"
	routeExt       = ".json"
	auditExt       = ".audit.jsonl"
)

// Config holds file store settings.
type Config struct {
	Root string `yaml:"root" json:"root"`
}

// FileStore persists routes as JSON documents under a root directory.
type FileStore struct {
	root string
	mu   sync.Mutex // serializes writes; reads go straight to the filesystem
}

// New creates a FileStore rooted at cfg.Root, creating the directory if
// needed.
func New(cfg Config) (*FileStore, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("file store root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("creating store root %s: %w", cfg.Root, err)
	}
	return &FileStore{root: cfg.Root}, nil
}

func (f *FileStore) LoadAll(_ context.Context) ([]types.ResourceRoute, error) {
	var routes []types.ResourceRoute

	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, routeExt) || strings.HasSuffix(path, auditExt) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var route types.ResourceRoute
		if err := json.Unmarshal(data, &route); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		routes = append(routes, route)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking store root: %w", err)
	}
	return routes, nil
}

func (f *FileStore) Get(_ context.Context, key types.RouteKey) (*types.ResourceRoute, error) {
	data, err := os.ReadFile(f.routePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	var route types.ResourceRoute
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, fmt.Errorf("decoding route %s: %w", key, err)
	}
	return &route, nil
}

func (f *FileStore) Save(_ context.Context, route types.ResourceRoute) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.routePath(route.RouteKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating route directory: %w", err)
	}

	data, err := json.MarshalIndent(route, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding route %s: %w", route.RouteKey, err)
	}

	// Write-then-rename so a crash never leaves a torn document behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *FileStore) Delete(_ context.Context, key types.RouteKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.routePath(key))
	if os.IsNotExist(err) {
		return store.ErrNotFound
	}
	return err
}

func (f *FileStore) AppendAudit(_ context.Context, event types.RouteChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.auditPath(event.RouteKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

func (f *FileStore) ListAudit(_ context.Context, key types.RouteKey, limit int) ([]types.RouteChangeEvent, error) {
	file, err := os.Open(f.auditPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var trail []types.RouteChangeEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event types.RouteChangeEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue // skip corrupt lines rather than losing the readable trail
		}
		trail = append(trail, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(trail) > limit {
		trail = trail[len(trail)-limit:]
	}
	return trail, nil
}

func (f *FileStore) Ping(_ context.Context) error {
	_, err := os.Stat(f.root)
	return err
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) routePath(key types.RouteKey) string {
	return f.keyDir(key) + routeExt
}

func (f *FileStore) auditPath(key types.RouteKey) string {
	return f.keyDir(key) + auditExt
}

// keyDir maps an identity tuple to its document path minus the extension.
func (f *FileStore) keyDir(key types.RouteKey) string {
	key = key.WithDefaults()

	project := key.Project
	if project == types.ProjectAny {
		project = anyProjectDir
	}
	surface := key.Surface
	if surface == "" {
		surface = defaultSurface
	}

	return filepath.Join(f.root,
		segment(key.Kind), segment(key.Tenant), segment(key.Env), segment(project), segment(surface))
}

// segment makes an identity component safe as a single path element.
func segment(s string) string {
	return url.PathEscape(s)
}
