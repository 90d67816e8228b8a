package animation

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/marionette/engine/math"
)

func resolveDef(t *testing.T, def *DataDefinition) *DataDefinition {
	t.Helper()
	if err := def.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return def
}

func fourSlotDef(t *testing.T) *DataDefinition {
	return resolveDef(t, &DataDefinition{
		Bones: []Bone{{ID: "root", ScaleX: 1, ScaleY: 1}},
		Slots: []Slot{
			{ID: "s0", BoneID: "root", AttachmentID: "a0", Color: RGBAWhite()},
			{ID: "s1", BoneID: "root", Color: RGBAWhite()},
			{ID: "s2", BoneID: "root", Color: RGBAWhite()},
			{ID: "s3", BoneID: "root", Color: RGBAWhite()},
		},
	})
}

func TestApplyDrawOrderOffsets(t *testing.T) {
	d := NewDataInstance(fourSlotDef(t))
	d.ApplyDrawOrderOffsets([]DrawOrderOffset{{Slot: 0, Offset: 2}})
	want := []int{1, 2, 0, 3}
	for i, slot := range d.DrawOrder() {
		if slot != want[i] {
			t.Fatalf("draw order = %v, want %v", d.DrawOrder(), want)
		}
	}
	d.ResetDrawOrder()
	for i, slot := range d.DrawOrder() {
		if slot != i {
			t.Fatalf("reset draw order = %v", d.DrawOrder())
		}
	}
}

func TestPrepareTickResetsSlotsButNotDrawOrder(t *testing.T) {
	d := NewDataInstance(fourSlotDef(t))
	d.SetAttachment(0, "swapped")
	d.ApplyDrawOrderOffsets([]DrawOrderOffset{{Slot: 0, Offset: 2}})

	d.PrepareTick()
	if got := d.Slots()[0].AttachmentID; got != "a0" {
		t.Fatalf("attachment = %q, want setup %q", got, "a0")
	}
	if d.DrawOrder()[2] != 0 {
		t.Fatalf("draw order was reset: %v", d.DrawOrder())
	}
}

func TestApplyCacheSecondaryColor(t *testing.T) {
	def := resolveDef(t, &DataDefinition{
		Bones: []Bone{{ID: "root", ScaleX: 1, ScaleY: 1}},
		Slots: []Slot{
			{ID: "tinted", BoneID: "root", Color: RGBAWhite(), SecondaryColor: RGBABlack(), HasSecondaryColor: true},
			{ID: "plain", BoneID: "root", Color: RGBAWhite(), SecondaryColor: RGBABlack()},
		},
	})
	d := NewDataInstance(def)
	d.PrepareTick()
	d.Cache().AccumulateSecondaryColor(0, RGBA{R: 255, G: 0, B: 0, A: 255}, 1)
	d.Cache().AccumulateSecondaryColor(1, RGBA{R: 255, G: 0, B: 0, A: 255}, 1)
	d.ApplyCache()

	if got := d.Slots()[0].SecondaryColor; got.R != 255 || got.G != 0 {
		t.Fatalf("secondary color = %+v, want red", got)
	}
	if got := d.Slots()[1].SecondaryColor; got != RGBABlack() {
		t.Fatalf("slot without a secondary color changed: %+v", got)
	}
}

func transformModeDef(t *testing.T) *DataDefinition {
	return resolveDef(t, &DataDefinition{
		Bones: []Bone{
			{ID: "parent", RotationInDegrees: 90, ScaleX: 2, ScaleY: 2},
			{ID: "normal", ParentID: "parent", PositionX: 1, ScaleX: 1, ScaleY: 1},
			{ID: "translationOnly", ParentID: "parent", PositionX: 1, ScaleX: 1, ScaleY: 1, TransformMode: TransformModeOnlyTranslation},
			{ID: "noScale", ParentID: "parent", PositionX: 1, ScaleX: 1, ScaleY: 1, TransformMode: TransformModeNoScale},
		},
	})
}

func TestComposeWorldTransformModes(t *testing.T) {
	def := transformModeDef(t)
	d := NewDataInstance(def)
	d.PrepareTick()
	d.ApplyCache()
	world := d.WorldTransforms()

	vec2Near := func(name string, got, want mgl32.Vec2) {
		t.Helper()
		if math.Abs(got[0]-want[0]) > 1e-4 || math.Abs(got[1]-want[1]) > 1e-4 {
			t.Fatalf("%s: got %v, want %v", name, got, want)
		}
	}

	// Every mode places the bone at the parent-transformed position.
	for _, id := range []string{"normal", "translationOnly", "noScale"} {
		vec2Near(id+" position", world[def.BoneIndex(id)].Translation(), mgl32.Vec2{0, 2})
	}

	// Normal inherits the full rotated, scaled basis.
	vec2Near("normal basis", world[def.BoneIndex("normal")].TransformDirection(mgl32.Vec2{1, 0}), mgl32.Vec2{0, 2})
	// OnlyTranslation keeps the bone's own identity basis.
	vec2Near("translationOnly basis", world[def.BoneIndex("translationOnly")].TransformDirection(mgl32.Vec2{1, 0}), mgl32.Vec2{1, 0})
	// NoScale inherits rotation but normalizes the parent scale away.
	vec2Near("noScale basis", world[def.BoneIndex("noScale")].TransformDirection(mgl32.Vec2{1, 0}), mgl32.Vec2{0, 1})
}

func TestTransformConstraintBlendsTowardTarget(t *testing.T) {
	def := resolveDef(t, &DataDefinition{
		Bones: []Bone{
			{ID: "target", PositionX: 10, ScaleX: 1, ScaleY: 1},
			{ID: "follower", ScaleX: 1, ScaleY: 1},
		},
		Transforms: []TransformConstraint{
			{ID: "follow", TargetID: "target", BoneIDs: []string{"follower"}, PositionMix: 0.5},
		},
	})
	d := NewDataInstance(def)
	d.PrepareTick()
	d.ApplyCache()

	got := d.WorldTransforms()[def.BoneIndex("follower")].Translation()
	if math.Abs(got[0]-5) > 1e-4 || math.Abs(got[1]) > 1e-4 {
		t.Fatalf("follower position = %v, want (5, 0)", got)
	}
}

func TestTransformConstraintAuthoredDelta(t *testing.T) {
	def := resolveDef(t, &DataDefinition{
		Bones: []Bone{
			{ID: "target", ScaleX: 1, ScaleY: 1},
			{ID: "follower", ScaleX: 1, ScaleY: 1},
		},
		Transforms: []TransformConstraint{
			{ID: "follow", TargetID: "target", BoneIDs: []string{"follower"}, PositionMix: 1, DeltaPositionX: -400},
		},
	})
	d := NewDataInstance(def)
	d.PrepareTick()
	d.ApplyCache()

	got := d.WorldTransforms()[def.BoneIndex("follower")].Translation()
	if math.Abs(got[0]+400) > 1e-3 {
		t.Fatalf("follower x = %v, want -400", got[0])
	}
}

func TestSkinningPalette(t *testing.T) {
	def := resolveDef(t, &DataDefinition{
		Bones: []Bone{
			{ID: "skinned", ScaleX: 1, ScaleY: 1, SkinRequired: true},
			{ID: "plain", ScaleX: 1, ScaleY: 1},
		},
	})
	d := NewDataInstance(def)

	// At the setup pose the palette entry is identity.
	d.PrepareTick()
	d.ApplyCache()
	d.PoseSkinningPalette()
	id := math.NewMatrix2x3Identity()
	near := func(a, b math.Matrix2x3) bool {
		return math.Abs(a.M00-b.M00) < 1e-5 && math.Abs(a.M01-b.M01) < 1e-5 &&
			math.Abs(a.M02-b.M02) < 1e-5 && math.Abs(a.M10-b.M10) < 1e-5 &&
			math.Abs(a.M11-b.M11) < 1e-5 && math.Abs(a.M12-b.M12) < 1e-5
	}
	if !near(d.SkinningPalette()[0], id) || d.SkinningPalette()[1] != id {
		t.Fatalf("setup palette = %+v", d.SkinningPalette())
	}

	// Rotating the skinned bone by 90 degrees shows up as a pure
	// rotation in its palette entry.
	d.PrepareTick()
	d.Cache().AccumulateRotation(0, 90, 1)
	d.ApplyCache()
	d.PoseSkinningPalette()
	p := d.SkinningPalette()[0].TransformDirection(mgl32.Vec2{1, 0})
	if math.Abs(p[0]) > 1e-4 || math.Abs(p[1]-1) > 1e-4 {
		t.Fatalf("palette rotation: got %v, want (0, 1)", p)
	}
	// Non-skinned bones stay identity no matter the pose.
	if d.SkinningPalette()[1] != id {
		t.Fatalf("plain bone palette = %+v", d.SkinningPalette()[1])
	}
}

func TestDeformOverridesVertices(t *testing.T) {
	def := resolveDef(t, &DataDefinition{
		Bones: []Bone{{ID: "root", ScaleX: 1, ScaleY: 1}},
		Slots: []Slot{{ID: "s", BoneID: "root", AttachmentID: "m", Color: RGBAWhite()}},
		Skins: map[string]Skin{
			"default": {
				"s": {
					"m": &Attachment{Type: AttachmentTypeMesh, Mesh: &MeshAttachment{
						Vertices: []float32{0, 0, 1, 0, 1, 1},
					}},
				},
			},
		},
	})
	d := NewDataInstance(def)
	key := DeformKey{Skin: "default", Slot: 0, Attachment: "m"}

	d.ApplyDeform(key, 2, []float32{5, 6})
	got, ok := d.Deform(key)
	if !ok {
		t.Fatal("deform missing")
	}
	want := []float32{0, 0, 5, 6, 1, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("deformed vertices = %v, want %v", got, want)
		}
	}

	// PrepareTick drops deforms back to the authored mesh.
	d.PrepareTick()
	if _, ok := d.Deform(key); ok {
		t.Fatal("deform survived PrepareTick")
	}
}

func TestLinkedMeshDeformSharesParent(t *testing.T) {
	def := resolveDef(t, &DataDefinition{
		Bones: []Bone{{ID: "root", ScaleX: 1, ScaleY: 1}},
		Slots: []Slot{{ID: "s", BoneID: "root", AttachmentID: "shared", Color: RGBAWhite()}},
		Skins: map[string]Skin{
			"default": {
				"s": {
					"m": &Attachment{Type: AttachmentTypeMesh, Mesh: &MeshAttachment{
						Vertices: []float32{0, 0, 1, 0, 1, 1},
					}},
					"shared": &Attachment{Type: AttachmentTypeLinkedMesh, LinkedMesh: &LinkedMeshAttachment{
						ParentID: "m",
						Deform:   true,
					}},
					"solo": &Attachment{Type: AttachmentTypeLinkedMesh, LinkedMesh: &LinkedMeshAttachment{
						ParentID: "m",
					}},
				},
			},
		},
	})
	d := NewDataInstance(def)
	linkedKey := DeformKey{Skin: "default", Slot: 0, Attachment: "shared"}
	parentKey := DeformKey{Skin: "default", Slot: 0, Attachment: "m"}

	d.ApplyDeform(linkedKey, 2, []float32{5, 6})
	want := []float32{0, 0, 5, 6, 1, 1}
	for _, key := range []DeformKey{linkedKey, parentKey} {
		got, ok := d.Deform(key)
		if !ok {
			t.Fatalf("deform missing for %+v", key)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("deformed vertices = %v, want %v", got, want)
			}
		}
	}

	// A linked mesh without the sharing flag never deforms.
	d.PrepareTick()
	d.ApplyDeform(DeformKey{Skin: "default", Slot: 0, Attachment: "solo"}, 0, []float32{9, 9})
	if _, ok := d.Deform(parentKey); ok {
		t.Fatal("non-sharing linked mesh wrote through to the parent")
	}
}
