package animation

import (
	"context"
	"sync"

	"github.com/spaghettifunk/marionette/engine/core"
)

// DefinitionProvider supplies shared definitions by asset name. The
// assets package implements it; tests supply in-memory fakes.
type DefinitionProvider interface {
	GetSkeleton(name string) (*DataDefinition, error)
	GetNetwork(name string) (*NetworkDefinition, error)
}

// InstanceHandle is the pending result of an asynchronous instance
// creation. Tick loops poll IsReady each frame and start ticking the
// instance once it resolves.
type InstanceHandle struct {
	ready    chan struct{}
	instance *NetworkInstance
	err      error
}

// IsReady reports whether loading has finished, successfully or not.
func (h *InstanceHandle) IsReady() bool {
	select {
	case <-h.ready:
		return true
	default:
		return false
	}
}

// Instance returns the loaded instance, core.ErrNotReady while loading
// is still in flight, or the load error.
func (h *InstanceHandle) Instance() (*NetworkInstance, error) {
	if !h.IsReady() {
		return nil, core.ErrNotReady
	}
	return h.instance, h.err
}

// Wait blocks until loading finishes or the context is done.
func (h *InstanceHandle) Wait(ctx context.Context) (*NetworkInstance, error) {
	select {
	case <-h.ready:
		return h.instance, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Manager creates network instances from named assets. Definition
// loading runs off the caller's goroutine; the handles it returns are
// polled or waited on. Safe for concurrent use.
type Manager struct {
	provider DefinitionProvider

	mu              sync.Mutex
	pending         []*InstanceHandle
	defaultSettings ClipSettings
}

func NewManager(provider DefinitionProvider) *Manager {
	return &Manager{provider: provider}
}

// SetEventMixThreshold sets the threshold applied to networks that do
// not declare their own.
func (m *Manager) SetEventMixThreshold(v float32) {
	m.mu.Lock()
	m.defaultSettings.EventMixThreshold = v
	m.mu.Unlock()
}

// CreateInstance starts loading the named network and skeleton assets
// and returns immediately. The events receiver may be nil.
func (m *Manager) CreateInstance(networkName, skeletonName string, events EventInterface) *InstanceHandle {
	h := &InstanceHandle{ready: make(chan struct{})}
	m.mu.Lock()
	m.pending = append(m.pending, h)
	m.mu.Unlock()

	go func() {
		defer close(h.ready)
		network, err := m.provider.GetNetwork(networkName)
		if err != nil {
			core.LogError("create instance: network %q: %v", networkName, err)
			h.err = err
			return
		}
		skeleton, err := m.provider.GetSkeleton(skeletonName)
		if err != nil {
			core.LogError("create instance: skeleton %q: %v", skeletonName, err)
			h.err = err
			return
		}
		settings := ClipSettings{EventMixThreshold: network.EventMixThreshold}
		if settings.EventMixThreshold == 0 {
			m.mu.Lock()
			settings = m.defaultSettings
			m.mu.Unlock()
		}
		instance, err := NewNetworkInstanceWithSettings(network, NewDataInstance(skeleton), events, settings)
		if err != nil {
			core.LogError("create instance: network %q: %v", networkName, err)
			h.err = err
			return
		}
		h.instance = instance
	}()
	return h
}

// IsReady reports whether every instance requested so far has finished
// loading.
func (m *Manager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.pending {
		if !h.IsReady() {
			return false
		}
	}
	return true
}

// WaitUntilReady blocks until every requested instance has finished
// loading or the context is done.
func (m *Manager) WaitUntilReady(ctx context.Context) error {
	m.mu.Lock()
	handles := make([]*InstanceHandle, len(m.pending))
	copy(handles, m.pending)
	m.mu.Unlock()
	for _, h := range handles {
		if _, err := h.Wait(ctx); err != nil && err == ctx.Err() {
			return err
		}
	}
	return nil
}
