package animation

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spaghettifunk/marionette/engine/math"
)

// TransformMode controls how a bone inherits its parent's world
// transform during pose composition.
type TransformMode int

const (
	TransformModeNormal TransformMode = iota
	TransformModeOnlyTranslation
	TransformModeNoRotationOrReflection
	TransformModeNoScale
	TransformModeNoScaleOrReflection
)

var transformModeNames = map[string]TransformMode{
	"normal":                 TransformModeNormal,
	"onlyTranslation":        TransformModeOnlyTranslation,
	"noRotationOrReflection": TransformModeNoRotationOrReflection,
	"noScale":                TransformModeNoScale,
	"noScaleOrReflection":    TransformModeNoScaleOrReflection,
}

func (t *TransformMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, ok := transformModeNames[s]
	if !ok {
		return fmt.Errorf("unknown transform mode %q", s)
	}
	*t = mode
	return nil
}

// SlotBlendMode is the render blend state carried by a slot.
type SlotBlendMode int

const (
	SlotBlendModeAlpha SlotBlendMode = iota
	SlotBlendModeAdditive
	SlotBlendModeMultiply
	SlotBlendModeScreen
)

var slotBlendModeNames = map[string]SlotBlendMode{
	"alpha":    SlotBlendModeAlpha,
	"additive": SlotBlendModeAdditive,
	"multiply": SlotBlendModeMultiply,
	"screen":   SlotBlendModeScreen,
}

func (t *SlotBlendMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, ok := slotBlendModeNames[s]
	if !ok {
		return fmt.Errorf("unknown slot blend mode %q", s)
	}
	*t = mode
	return nil
}

// RGBA is an 8-bit-per-channel color.
type RGBA struct {
	R, G, B, A uint8
}

func RGBAWhite() RGBA { return RGBA{255, 255, 255, 255} }
func RGBABlack() RGBA { return RGBA{0, 0, 0, 255} }

// Colors are authored as "rrggbbaa" hex strings.
func (c *RGBA) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if len(s) != 8 {
		return fmt.Errorf("color %q is not an rrggbbaa hex string", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return err
	}
	c.R = uint8(v >> 24)
	c.G = uint8(v >> 16)
	c.B = uint8(v >> 8)
	c.A = uint8(v)
	return nil
}

// Bone is the authored description of one node in the skeletal
// hierarchy. Immutable after load; Parent is resolved from ParentID
// during DataDefinition.Resolve (-1 for roots).
type Bone struct {
	ID                string        `json:"id"`
	ParentID          string        `json:"parent"`
	Parent            int           `json:"-"`
	Length            float32       `json:"length"`
	PositionX         float32       `json:"x"`
	PositionY         float32       `json:"y"`
	RotationInDegrees float32       `json:"rotation"`
	ScaleX            float32       `json:"scaleX"`
	ScaleY            float32       `json:"scaleY"`
	ShearX            float32       `json:"shearX"`
	ShearY            float32       `json:"shearY"`
	TransformMode     TransformMode `json:"transform"`
	SkinRequired      bool          `json:"skin"`
}

func (b *Bone) UnmarshalJSON(data []byte) error {
	type plain Bone
	tmp := plain{ScaleX: 1, ScaleY: 1, Parent: -1}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*b = Bone(tmp)
	return nil
}

// Slot binds a renderable attachment point to a bone. Bone is resolved
// from BoneID at load.
type Slot struct {
	ID                string        `json:"id"`
	BoneID            string        `json:"bone"`
	Bone              int           `json:"-"`
	AttachmentID      string        `json:"attachment"`
	Color             RGBA          `json:"color"`
	SecondaryColor    RGBA          `json:"dark"`
	HasSecondaryColor bool          `json:"-"`
	BlendMode         SlotBlendMode `json:"blend"`
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	type plain Slot
	tmp := plain{Color: RGBAWhite(), SecondaryColor: RGBABlack()}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	var probe struct {
		Dark *json.RawMessage `json:"dark"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	tmp.HasSecondaryColor = probe.Dark != nil
	*s = Slot(tmp)
	return nil
}

// TransformConstraint blends a set of bones toward a target bone's
// world transform, per-component, after base pose composition.
type TransformConstraint struct {
	ID                     string   `json:"id"`
	TargetID               string   `json:"target"`
	Target                 int      `json:"-"`
	BoneIDs                []string `json:"bones"`
	Bones                  []int    `json:"-"`
	PositionMix            float32  `json:"positionMix"`
	RotationMix            float32  `json:"rotationMix"`
	ScaleMix               float32  `json:"scaleMix"`
	ShearMix               float32  `json:"shearMix"`
	DeltaPositionX         float32  `json:"deltaX"`
	DeltaPositionY         float32  `json:"deltaY"`
	DeltaRotationInDegrees float32  `json:"deltaRotation"`
	DeltaScaleX            float32  `json:"deltaScaleX"`
	DeltaScaleY            float32  `json:"deltaScaleY"`
	DeltaShearY            float32  `json:"deltaShearY"`
}

func (t *TransformConstraint) UnmarshalJSON(data []byte) error {
	type plain TransformConstraint
	tmp := plain{PositionMix: 1, RotationMix: 1, ScaleMix: 1, ShearMix: 1}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*t = TransformConstraint(tmp)
	return nil
}

type PathPositionMode int

const (
	PathPositionModePercent PathPositionMode = iota
	PathPositionModeFixed
)

type PathSpacingMode int

const (
	PathSpacingModeLength PathSpacingMode = iota
	PathSpacingModeFixed
	PathSpacingModePercent
)

type PathRotationMode int

const (
	PathRotationModeTangent PathRotationMode = iota
	PathRotationModeChain
)

// PathConstraint places a set of bones along a path attachment's curve.
// Target is a slot index; the path attachment is looked up through the
// active skin at evaluation time.
type PathConstraint struct {
	ID                string           `json:"id"`
	TargetID          string           `json:"target"`
	Target            int              `json:"-"`
	BoneIDs           []string         `json:"bones"`
	Bones             []int            `json:"-"`
	PositionMode      PathPositionMode `json:"positionMode"`
	SpacingMode       PathSpacingMode  `json:"spacingMode"`
	RotationMode      PathRotationMode `json:"rotationMode"`
	Position          float32          `json:"position"`
	Spacing           float32          `json:"spacing"`
	RotationInDegrees float32          `json:"rotation"`
	PositionMix       float32          `json:"positionMix"`
	RotationMix       float32          `json:"rotationMix"`
}

func (m *PathPositionMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "", "percent":
		*m = PathPositionModePercent
	case "fixed":
		*m = PathPositionModeFixed
	default:
		return fmt.Errorf("unknown path position mode %q", s)
	}
	return nil
}

func (m *PathSpacingMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "", "length":
		*m = PathSpacingModeLength
	case "fixed":
		*m = PathSpacingModeFixed
	case "percent":
		*m = PathSpacingModePercent
	default:
		return fmt.Errorf("unknown path spacing mode %q", s)
	}
	return nil
}

func (m *PathRotationMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "", "tangent":
		*m = PathRotationModeTangent
	case "chain":
		*m = PathRotationModeChain
	default:
		return fmt.Errorf("unknown path rotation mode %q", s)
	}
	return nil
}

func (p *PathConstraint) UnmarshalJSON(data []byte) error {
	type plain PathConstraint
	tmp := plain{PositionMix: 1, RotationMix: 1}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = PathConstraint(tmp)
	return nil
}

// Skin maps slot id -> attachment id -> attachment.
type Skin map[string]SkinSlot

type SkinSlot map[string]*Attachment

// MetaData carries authored canvas dimensions.
type MetaData struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// DataDefinition is the immutable, shared skeleton/animation dataset.
// One instance may be read concurrently by any number of
// NetworkInstances; it is never mutated after Resolve.
type DataDefinition struct {
	MetaData   MetaData              `json:"metadata"`
	Bones      []Bone                `json:"bones"`
	Slots      []Slot                `json:"slots"`
	Transforms []TransformConstraint `json:"transforms"`
	Paths      []PathConstraint      `json:"paths"`
	Skins      map[string]Skin       `json:"skins"`
	Clips      map[string]*Clip      `json:"clips"`

	boneIndices     map[string]int
	slotIndices     map[string]int
	updateOrder     []int
	inverseBindPose []math.Matrix2x3
}

// Resolve turns authored string references into integer indices,
// computes the bone update order and the inverse bind pose. Must be
// called exactly once, before the definition is shared.
func (d *DataDefinition) Resolve() error {
	d.boneIndices = make(map[string]int, len(d.Bones))
	for i := range d.Bones {
		d.boneIndices[d.Bones[i].ID] = i
	}
	d.slotIndices = make(map[string]int, len(d.Slots))
	for i := range d.Slots {
		d.slotIndices[d.Slots[i].ID] = i
	}

	for i := range d.Bones {
		b := &d.Bones[i]
		if b.ParentID == "" {
			b.Parent = -1
			continue
		}
		parent, ok := d.boneIndices[b.ParentID]
		if !ok {
			return fmt.Errorf("bone %q: unknown parent %q", b.ID, b.ParentID)
		}
		b.Parent = parent
	}

	for i := range d.Slots {
		s := &d.Slots[i]
		bone, ok := d.boneIndices[s.BoneID]
		if !ok {
			return fmt.Errorf("slot %q: unknown bone %q", s.ID, s.BoneID)
		}
		s.Bone = bone
	}

	for i := range d.Transforms {
		t := &d.Transforms[i]
		target, ok := d.boneIndices[t.TargetID]
		if !ok {
			return fmt.Errorf("transform constraint %q: unknown target %q", t.ID, t.TargetID)
		}
		t.Target = target
		t.Bones = t.Bones[:0]
		for _, id := range t.BoneIDs {
			bone, ok := d.boneIndices[id]
			if !ok {
				return fmt.Errorf("transform constraint %q: unknown bone %q", t.ID, id)
			}
			t.Bones = append(t.Bones, bone)
		}
	}

	for i := range d.Paths {
		p := &d.Paths[i]
		target, ok := d.slotIndices[p.TargetID]
		if !ok {
			return fmt.Errorf("path constraint %q: unknown target slot %q", p.ID, p.TargetID)
		}
		p.Target = target
		p.Bones = p.Bones[:0]
		for _, id := range p.BoneIDs {
			bone, ok := d.boneIndices[id]
			if !ok {
				return fmt.Errorf("path constraint %q: unknown bone %q", p.ID, id)
			}
			p.Bones = append(p.Bones, bone)
		}
	}

	if err := d.resolveUpdateOrder(); err != nil {
		return err
	}
	for _, clip := range d.Clips {
		clip.resolve(d)
	}
	d.computeBindPose()
	return nil
}

// Storage order is authored and does not guarantee parents precede
// children, so a topological order is derived once here.
func (d *DataDefinition) resolveUpdateOrder() error {
	d.updateOrder = d.updateOrder[:0]
	visited := make([]uint8, len(d.Bones))
	var visit func(i int) error
	visit = func(i int) error {
		switch visited[i] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("bone %q: parent cycle", d.Bones[i].ID)
		}
		visited[i] = 1
		if parent := d.Bones[i].Parent; parent >= 0 {
			if err := visit(parent); err != nil {
				return err
			}
		}
		visited[i] = 2
		d.updateOrder = append(d.updateOrder, i)
		return nil
	}
	for i := range d.Bones {
		if err := visit(i); err != nil {
			return err
		}
	}
	return nil
}

func (d *DataDefinition) computeBindPose() {
	world := make([]math.Matrix2x3, len(d.Bones))
	d.inverseBindPose = make([]math.Matrix2x3, len(d.Bones))
	for _, i := range d.updateOrder {
		b := &d.Bones[i]
		local := BoneLocal{
			PositionX:         b.PositionX,
			PositionY:         b.PositionY,
			RotationInDegrees: b.RotationInDegrees,
			ScaleX:            b.ScaleX,
			ScaleY:            b.ScaleY,
			ShearX:            b.ShearX,
			ShearY:            b.ShearY,
		}
		var parent *math.Matrix2x3
		if b.Parent >= 0 {
			parent = &world[b.Parent]
		}
		world[i] = composeWorld(local, b.TransformMode, parent)
		d.inverseBindPose[i] = world[i].Inverse()
	}
}

// BoneIndex returns the index for a bone id, -1 on a miss.
func (d *DataDefinition) BoneIndex(id string) int {
	if i, ok := d.boneIndices[id]; ok {
		return i
	}
	return -1
}

// SlotIndex returns the index for a slot id, -1 on a miss.
func (d *DataDefinition) SlotIndex(id string) int {
	if i, ok := d.slotIndices[id]; ok {
		return i
	}
	return -1
}

// UpdateOrder is the parent-before-child bone traversal order.
func (d *DataDefinition) UpdateOrder() []int {
	return d.updateOrder
}

// InverseBindPose is the per-bone inverse of the setup-pose world
// transform, used for the skinning palette.
func (d *DataDefinition) InverseBindPose() []math.Matrix2x3 {
	return d.inverseBindPose
}

// GetClip returns the named clip or nil.
func (d *DataDefinition) GetClip(name string) *Clip {
	return d.Clips[name]
}

// GetAttachment resolves (skin, slot, attachment) to an attachment.
// Returns nil on any miss; runtime lookups never hard-fail.
func (d *DataDefinition) GetAttachment(skinID, slotID, attachmentID string) *Attachment {
	skin, ok := d.Skins[skinID]
	if !ok {
		return nil
	}
	slot, ok := skin[slotID]
	if !ok {
		return nil
	}
	return slot[attachmentID]
}
