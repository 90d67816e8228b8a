package assets

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/marionette/engine/animation"
	"github.com/spaghettifunk/marionette/engine/assets/loaders"
	"github.com/spaghettifunk/marionette/engine/core"
)

// Manager loads and caches animation assets from a root directory.
// With hot reload enabled, an fsnotify watcher drops cached entries
// when their backing file changes, so the next lookup reloads from
// disk. Safe for concurrent use.
type Manager struct {
	root string

	mu        sync.RWMutex
	skeletons map[string]*animation.DataDefinition
	networks  map[string]*animation.NetworkDefinition

	watcher *fsnotify.Watcher
	done    chan struct{}
	closed  bool
}

func NewManager(root string, hotReload bool) (*Manager, error) {
	m := &Manager{
		root:      root,
		skeletons: make(map[string]*animation.DataDefinition),
		networks:  make(map[string]*animation.NetworkDefinition),
		done:      make(chan struct{}),
	}
	if hotReload {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("asset watcher: %w", err)
		}
		if err := watcher.Add(root); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("asset watcher: %w", err)
		}
		m.watcher = watcher
		go m.watch()
	}
	return m, nil
}

func (m *Manager) watch() {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Rel(m.root, event.Name)
			if err != nil {
				continue
			}
			if m.Invalidate(name) {
				core.LogInfo("asset %q changed, cache invalidated", name)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			core.LogWarn("asset watcher: %v", err)
		case <-m.done:
			return
		}
	}
}

// Invalidate drops a cached asset by its root-relative name. Reports
// whether anything was cached under that name.
func (m *Manager) Invalidate(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, hadSkeleton := m.skeletons[name]
	_, hadNetwork := m.networks[name]
	delete(m.skeletons, name)
	delete(m.networks, name)
	return hadSkeleton || hadNetwork
}

// GetSkeleton returns the skeleton dataset stored at the root-relative
// path, loading and caching it on first use.
func (m *Manager) GetSkeleton(name string) (*animation.DataDefinition, error) {
	m.mu.RLock()
	def, ok := m.skeletons[name]
	m.mu.RUnlock()
	if ok {
		return def, nil
	}
	def, err := loaders.LoadSkeleton(filepath.Join(m.root, name))
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.skeletons[name] = def
	m.mu.Unlock()
	return def, nil
}

// GetNetwork returns the network definition stored at the root-relative
// path, loading and caching it on first use.
func (m *Manager) GetNetwork(name string) (*animation.NetworkDefinition, error) {
	m.mu.RLock()
	def, ok := m.networks[name]
	m.mu.RUnlock()
	if ok {
		return def, nil
	}
	def, err := loaders.LoadNetwork(filepath.Join(m.root, name))
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.networks[name] = def
	m.mu.Unlock()
	return def, nil
}

// Close stops the watcher. Idempotent calls after the first return
// core.ErrWatcherClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return core.ErrWatcherClosed
	}
	m.closed = true
	close(m.done)
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}
