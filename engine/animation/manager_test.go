package animation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spaghettifunk/marionette/engine/core"
)

// gatedProvider blocks loads until released, to exercise the pending
// handle states.
type gatedProvider struct {
	gate     chan struct{}
	skeleton *DataDefinition
	network  *NetworkDefinition
	err      error
}

func (p *gatedProvider) GetSkeleton(string) (*DataDefinition, error) {
	if p.gate != nil {
		<-p.gate
	}
	return p.skeleton, p.err
}

func (p *gatedProvider) GetNetwork(string) (*NetworkDefinition, error) {
	if p.gate != nil {
		<-p.gate
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.network, nil
}

func clipNetworkDef(clip string) *NetworkDefinition {
	return &NetworkDefinition{
		Root: &NodeDefinition{
			Type:     NodeTypePlayClip,
			PlayClip: &PlayClipDefinition{Name: clip, Loop: true},
		},
	}
}

func TestManagerCreateInstance(t *testing.T) {
	provider := &gatedProvider{
		skeleton: testSkeleton(t),
		network:  clipNetworkDef("Idle"),
	}
	m := NewManager(provider)
	h := m.CreateInstance("network.json", "skeleton.json", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	instance, err := h.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if instance == nil {
		t.Fatal("nil instance")
	}
	if !m.IsReady() || !h.IsReady() {
		t.Fatal("ready state not reported after load")
	}

	instance.Tick(0.5)
	if got := instance.GetCurrentMaxTime(); got != 1.0 {
		t.Fatalf("max time = %v, want 1.0", got)
	}
}

func TestManagerHandleNotReadyWhileLoading(t *testing.T) {
	provider := &gatedProvider{
		gate:     make(chan struct{}),
		skeleton: testSkeleton(t),
		network:  clipNetworkDef("Idle"),
	}
	m := NewManager(provider)
	h := m.CreateInstance("network.json", "skeleton.json", nil)

	if h.IsReady() || m.IsReady() {
		t.Fatal("handle ready before the provider returned")
	}
	if _, err := h.Instance(); !errors.Is(err, core.ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}

	close(provider.gate)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.WaitUntilReady(ctx); err != nil {
		t.Fatalf("wait until ready: %v", err)
	}
	if _, err := h.Instance(); err != nil {
		t.Fatalf("instance: %v", err)
	}
}

func TestManagerLoadFailurePropagates(t *testing.T) {
	provider := &gatedProvider{err: core.ErrUnknownAsset}
	m := NewManager(provider)
	h := m.CreateInstance("network.json", "skeleton.json", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := h.Wait(ctx); !errors.Is(err, core.ErrUnknownAsset) {
		t.Fatalf("err = %v, want ErrUnknownAsset", err)
	}
	// A failed load still counts as ready; it will never resolve.
	if !h.IsReady() {
		t.Fatal("failed handle not ready")
	}
}

func TestManagerUnknownClipFailsInstanceCreation(t *testing.T) {
	provider := &gatedProvider{
		skeleton: testSkeleton(t),
		network:  clipNetworkDef("NoSuchClip"),
	}
	m := NewManager(provider)
	h := m.CreateInstance("network.json", "skeleton.json", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := h.Wait(ctx); err == nil {
		t.Fatal("expected an error for an unknown clip")
	}
}
