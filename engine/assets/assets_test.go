package assets

import (
	"errors"
	"os"
	"testing"

	"github.com/spaghettifunk/marionette/engine/animation"
	"github.com/spaghettifunk/marionette/engine/core"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("testdata", false)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestGetSkeletonCaches(t *testing.T) {
	m := newTestManager(t)
	a, err := m.GetSkeleton("skeleton.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(a.Bones) != 13 || len(a.Slots) != 14 || a.GetClip("Idle") == nil {
		t.Fatalf("unexpected skeleton: %d bones, %d slots", len(a.Bones), len(a.Slots))
	}
	b, err := m.GetSkeleton("skeleton.json")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if a != b {
		t.Fatal("second lookup missed the cache")
	}
}

func TestGetSkeletonResolvesReferences(t *testing.T) {
	m := newTestManager(t)
	a, err := m.GetSkeleton("skeleton.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := a.BoneIndex("root"); got != 0 {
		t.Fatalf("root bone index = %d, want 0", got)
	}
	if a.Transforms[0].Target != a.BoneIndex("transformconstrainttarget") {
		t.Fatal("transform constraint target not resolved")
	}
	if a.Paths[0].Target != a.SlotIndex("path") {
		t.Fatal("path constraint target not resolved")
	}
	dark := a.Slots[a.SlotIndex("dark")]
	if !dark.HasSecondaryColor {
		t.Fatal("slot with dark color lost its secondary color flag")
	}
	if plain := a.Slots[a.SlotIndex("color")]; plain.HasSecondaryColor {
		t.Fatal("slot without dark color gained a secondary color flag")
	}
	att := a.GetAttachment("default", "path", "curve")
	if att == nil || att.Type != animation.AttachmentTypePath {
		t.Fatalf("path attachment = %+v, want path type", att)
	}
	if got := att.Path.CurveCount(); got != 2 {
		t.Fatalf("curve count = %d, want 2", got)
	}
}

func TestInvalidateDropsCacheEntry(t *testing.T) {
	m := newTestManager(t)
	a, err := m.GetSkeleton("skeleton.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !m.Invalidate("skeleton.json") {
		t.Fatal("invalidate reported nothing cached")
	}
	if m.Invalidate("skeleton.json") {
		t.Fatal("second invalidate reported a stale entry")
	}
	b, err := m.GetSkeleton("skeleton.json")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if a == b {
		t.Fatal("invalidated entry was served from cache")
	}
}

func TestGetNetwork(t *testing.T) {
	m := newTestManager(t)
	n, err := m.GetNetwork("network.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n.Root == nil || n.Root.PlayClip == nil || n.Root.PlayClip.Name != "Idle" {
		t.Fatalf("unexpected network: %+v", n)
	}
}

func TestMissingAsset(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.GetSkeleton("nope.json"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestMalformedAsset(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.GetSkeleton("broken.json"); !errors.Is(err, core.ErrMalformedAsset) {
		t.Fatalf("err = %v, want ErrMalformedAsset", err)
	}
}

func TestCloseIsIdempotentWithError(t *testing.T) {
	m, err := NewManager("testdata", false)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := m.Close(); !errors.Is(err, core.ErrWatcherClosed) {
		t.Fatalf("second close = %v, want ErrWatcherClosed", err)
	}
}
