package animation

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/marionette/engine/math"
)

// BoneLocal is a bone's mutable local pose for one tick, after timeline
// accumulation but before world composition.
type BoneLocal struct {
	PositionX         float32
	PositionY         float32
	RotationInDegrees float32
	ScaleX            float32
	ScaleY            float32
	ShearX            float32
	ShearY            float32
}

// composeWorld builds a bone's world transform from its local pose and
// its parent's world transform, honoring the bone's inheritance mode.
func composeWorld(local BoneLocal, mode TransformMode, parent *math.Matrix2x3) math.Matrix2x3 {
	localM := math.NewMatrix2x3(
		mgl32.Vec2{local.PositionX, local.PositionY},
		local.RotationInDegrees,
		mgl32.Vec2{local.ScaleX, local.ScaleY},
		mgl32.Vec2{local.ShearX, local.ShearY},
	)
	if parent == nil {
		return localM
	}
	switch mode {
	case TransformModeOnlyTranslation:
		pos := parent.TransformPosition(mgl32.Vec2{local.PositionX, local.PositionY})
		localM.M02 = pos[0]
		localM.M12 = pos[1]
		return localM

	case TransformModeNoRotationOrReflection:
		_, _, pScale, pShearY := parent.Decompose()
		basis := math.NewMatrix2x3(
			mgl32.Vec2{},
			0,
			mgl32.Vec2{pScale[0], math.Abs(pScale[1])},
			mgl32.Vec2{0, pShearY},
		)
		world := basis.Mul(localM)
		pos := parent.TransformPosition(mgl32.Vec2{local.PositionX, local.PositionY})
		world.M02 = pos[0]
		world.M12 = pos[1]
		return world

	case TransformModeNoScale, TransformModeNoScaleOrReflection:
		pRot := parent.RotationInDegrees()
		scaleY := float32(1)
		if mode == TransformModeNoScale && parent.Determinant() < 0 {
			scaleY = -1
		}
		basis := math.NewMatrix2x3(mgl32.Vec2{}, pRot, mgl32.Vec2{1, scaleY}, mgl32.Vec2{})
		world := basis.Mul(localM)
		pos := parent.TransformPosition(mgl32.Vec2{local.PositionX, local.PositionY})
		world.M02 = pos[0]
		world.M12 = pos[1]
		return world

	default:
		return parent.Mul(localM)
	}
}

// SlotState is a slot's mutable per-tick state. SecondaryColor only
// carries meaning for slots authored with one.
type SlotState struct {
	AttachmentID   string
	Color          RGBA
	SecondaryColor RGBA
}

// DeformKey addresses one deformed mesh: the skin and attachment are
// ids, the slot an index into the definition's slot array.
type DeformKey struct {
	Skin       string
	Slot       int
	Attachment string
}

// DataInstance is the mutable pose state for one skeleton: world
// transforms, skinning palette, slot states, draw order and mesh
// deforms. One instance per network instance; not safe for concurrent
// use.
type DataInstance struct {
	definition *DataDefinition
	skin       string
	cache      *PoseCache
	world      []math.Matrix2x3
	palette    []math.Matrix2x3
	slots      []SlotState
	drawOrder  []int
	deforms    map[DeformKey][]float32
}

func NewDataInstance(definition *DataDefinition) *DataInstance {
	d := &DataInstance{
		definition: definition,
		skin:       "default",
		cache:      NewPoseCache(len(definition.Bones), len(definition.Slots)),
		world:      make([]math.Matrix2x3, len(definition.Bones)),
		palette:    make([]math.Matrix2x3, len(definition.Bones)),
		slots:      make([]SlotState, len(definition.Slots)),
		drawOrder:  make([]int, len(definition.Slots)),
		deforms:    make(map[DeformKey][]float32),
	}
	d.resetSlots()
	for i := range d.drawOrder {
		d.drawOrder[i] = i
	}
	return d
}

func (d *DataInstance) Definition() *DataDefinition { return d.definition }

func (d *DataInstance) Cache() *PoseCache { return d.cache }

// ActiveSkin is the skin id used for attachment lookups.
func (d *DataInstance) ActiveSkin() string { return d.skin }

func (d *DataInstance) SetSkin(skin string) { d.skin = skin }

// WorldTransforms is the per-bone world pose of the last ApplyCache.
func (d *DataInstance) WorldTransforms() []math.Matrix2x3 { return d.world }

// SkinningPalette is the per-bone world * inverse-bind-pose product of
// the last PoseSkinningPalette.
func (d *DataInstance) SkinningPalette() []math.Matrix2x3 { return d.palette }

// Slots is the per-slot state of the current tick.
func (d *DataInstance) Slots() []SlotState { return d.slots }

// DrawOrder maps draw position to slot index. Draw order persists
// across ticks; it only changes when a draw-order keyframe fires.
func (d *DataInstance) DrawOrder() []int { return d.drawOrder }

func (d *DataInstance) resetSlots() {
	for i := range d.definition.Slots {
		s := &d.definition.Slots[i]
		d.slots[i] = SlotState{AttachmentID: s.AttachmentID, Color: s.Color, SecondaryColor: s.SecondaryColor}
	}
}

// PrepareTick resets per-tick state. Slots, colors and deforms return
// to setup; the accumulation cache is cleared. Draw order is left
// alone.
func (d *DataInstance) PrepareTick() {
	d.cache.Clear()
	d.resetSlots()
	for k := range d.deforms {
		delete(d.deforms, k)
	}
}

// SetAttachment applies a discrete attachment swap to a slot.
func (d *DataInstance) SetAttachment(slot int, attachmentID string) {
	if slot >= 0 && slot < len(d.slots) {
		d.slots[slot].AttachmentID = attachmentID
	}
}

// ApplyDrawOrderOffsets rebuilds the draw order from the setup order
// plus per-slot offsets. Slots without an offset fill the remaining
// positions in setup order.
func (d *DataInstance) ApplyDrawOrderOffsets(offsets []DrawOrderOffset) {
	n := len(d.drawOrder)
	for i := range d.drawOrder {
		d.drawOrder[i] = -1
	}
	moved := make([]bool, n)
	for _, o := range offsets {
		if o.Slot < 0 || o.Slot >= n {
			continue
		}
		pos := o.Slot + o.Offset
		if pos < 0 || pos >= n {
			continue
		}
		d.drawOrder[pos] = o.Slot
		moved[o.Slot] = true
	}
	next := 0
	for slot := 0; slot < n; slot++ {
		if moved[slot] {
			continue
		}
		for next < n && d.drawOrder[next] != -1 {
			next++
		}
		if next < n {
			d.drawOrder[next] = slot
		}
	}
}

// ResetDrawOrder restores the setup draw order.
func (d *DataInstance) ResetDrawOrder() {
	for i := range d.drawOrder {
		d.drawOrder[i] = i
	}
}

// resolveDeformKey follows a sharing linked mesh to its parent mesh,
// so deforms keyed on either land in the same entry. Linked meshes
// without the sharing flag keep their own key and never deform.
func (d *DataInstance) resolveDeformKey(key DeformKey) DeformKey {
	if key.Slot < 0 || key.Slot >= len(d.definition.Slots) {
		return key
	}
	att := d.definition.GetAttachment(key.Skin, d.definition.Slots[key.Slot].ID, key.Attachment)
	if att == nil || att.Type != AttachmentTypeLinkedMesh || !att.LinkedMesh.Deform {
		return key
	}
	skin := att.LinkedMesh.Skin
	if skin == "" {
		skin = key.Skin
	}
	return DeformKey{Skin: skin, Slot: key.Slot, Attachment: att.LinkedMesh.ParentID}
}

// ApplyDeform overwrites a span of an attachment's vertices. The base
// array is lazily copied from the attachment the first time a deform
// touches it in a tick.
func (d *DataInstance) ApplyDeform(key DeformKey, offset int, vertices []float32) {
	key = d.resolveDeformKey(key)
	base, ok := d.deforms[key]
	if !ok {
		base = d.baseVertices(key)
		if base == nil {
			return
		}
		d.deforms[key] = base
	}
	if offset < 0 || offset+len(vertices) > len(base) {
		return
	}
	copy(base[offset:], vertices)
}

// Deform returns the deformed vertex array for a mesh, or false if no
// deform applied this tick. A sharing linked mesh reads its parent's
// deform.
func (d *DataInstance) Deform(key DeformKey) ([]float32, bool) {
	v, ok := d.deforms[d.resolveDeformKey(key)]
	return v, ok
}

func (d *DataInstance) baseVertices(key DeformKey) []float32 {
	if key.Slot < 0 || key.Slot >= len(d.definition.Slots) {
		return nil
	}
	att := d.definition.GetAttachment(key.Skin, d.definition.Slots[key.Slot].ID, key.Attachment)
	if att == nil {
		return nil
	}
	var src []float32
	switch att.Type {
	case AttachmentTypeMesh:
		src = att.Mesh.Vertices
	case AttachmentTypePath:
		src = att.Path.Vertices
	default:
		return nil
	}
	out := make([]float32, len(src))
	copy(out, src)
	return out
}

// ApplyCache resolves the accumulated timeline samples into world
// transforms (parents before children), blends slot colors, then runs
// transform and path constraints in definition order.
func (d *DataInstance) ApplyCache() {
	for _, i := range d.definition.UpdateOrder() {
		b := &d.definition.Bones[i]
		local := d.cache.ResolveBone(b, i)
		var parent *math.Matrix2x3
		if b.Parent >= 0 {
			parent = &d.world[b.Parent]
		}
		d.world[i] = composeWorld(local, b.TransformMode, parent)
	}
	for i := range d.slots {
		s := &d.definition.Slots[i]
		d.slots[i].Color = d.cache.ResolveColor(s.Color, i)
		if s.HasSecondaryColor {
			d.slots[i].SecondaryColor = d.cache.ResolveSecondaryColor(s.SecondaryColor, i)
		}
	}
	for i := range d.definition.Transforms {
		d.applyTransformConstraint(&d.definition.Transforms[i])
	}
	for i := range d.definition.Paths {
		d.applyPathConstraint(&d.definition.Paths[i])
	}
}

// PoseSkinningPalette refreshes the GPU skinning palette. Only bones
// flagged as skin-required get a world * inverse-bind-pose entry;
// the rest stay identity.
func (d *DataInstance) PoseSkinningPalette() {
	inv := d.definition.InverseBindPose()
	for i := range d.definition.Bones {
		if d.definition.Bones[i].SkinRequired {
			d.palette[i] = d.world[i].Mul(inv[i])
		} else {
			d.palette[i] = math.NewMatrix2x3Identity()
		}
	}
}

func (d *DataInstance) applyTransformConstraint(t *TransformConstraint) {
	tPos, tRot, tScale, tShearY := d.world[t.Target].Decompose()
	for _, bi := range t.Bones {
		pos, rot, scale, shearY := d.world[bi].Decompose()
		pos[0] = math.Lerp(pos[0], tPos[0]+t.DeltaPositionX, t.PositionMix)
		pos[1] = math.Lerp(pos[1], tPos[1]+t.DeltaPositionY, t.PositionMix)
		rot = math.LerpDegrees(rot, tRot+t.DeltaRotationInDegrees, t.RotationMix)
		scale[0] = math.Lerp(scale[0], tScale[0]+t.DeltaScaleX, t.ScaleMix)
		scale[1] = math.Lerp(scale[1], tScale[1]+t.DeltaScaleY, t.ScaleMix)
		shearY = math.LerpDegrees(shearY, tShearY+t.DeltaShearY, t.ShearMix)
		d.world[bi] = math.NewMatrix2x3(pos, rot, scale, mgl32.Vec2{0, shearY})
	}
}

func (d *DataInstance) applyPathConstraint(p *PathConstraint) {
	slotDef := &d.definition.Slots[p.Target]
	att := d.definition.GetAttachment(d.skin, slotDef.ID, d.slots[p.Target].AttachmentID)
	if att == nil || att.Type != AttachmentTypePath {
		return
	}
	sampler := d.buildPathSampler(att.Path, p.Target)
	if sampler == nil || sampler.totalLength <= math.K_ZERO_TOLERANCE {
		return
	}

	position := p.Position
	if p.PositionMode == PathPositionModePercent {
		position *= sampler.totalLength
	}

	s := position
	var prevPoint mgl32.Vec2
	for idx, bi := range p.Bones {
		if idx > 0 {
			s += d.pathSpacing(p, p.Bones[idx-1], sampler.totalLength)
		}
		point, tangentDeg := sampler.sample(s, att.Path.ConstantSpeed)

		w := d.world[bi]
		w.M02 = math.Lerp(w.M02, point[0], p.PositionMix)
		w.M12 = math.Lerp(w.M12, point[1], p.PositionMix)

		if p.RotationMix > 0 {
			target := tangentDeg + p.RotationInDegrees
			if p.RotationMode == PathRotationModeChain && idx > 0 {
				target = math.Atan2(point[1]-prevPoint[1], point[0]-prevPoint[0])*math.K_RAD2DEG_MULTIPLIER + p.RotationInDegrees
			}
			current := w.RotationInDegrees()
			delta := math.LerpDegrees(current, target, p.RotationMix) - current
			rot := math.NewMatrix2x3(mgl32.Vec2{}, delta, mgl32.Vec2{1, 1}, mgl32.Vec2{})
			tx, ty := w.M02, w.M12
			w.M02, w.M12 = 0, 0
			w = rot.Mul(w)
			w.M02, w.M12 = tx, ty
		}
		d.world[bi] = w
		prevPoint = point
	}
}

func (d *DataInstance) pathSpacing(p *PathConstraint, prevBone int, totalLength float32) float32 {
	switch p.SpacingMode {
	case PathSpacingModeFixed:
		return p.Spacing
	case PathSpacingModePercent:
		return p.Spacing * totalLength
	default:
		return d.definition.Bones[prevBone].Length + p.Spacing
	}
}

const pathCurveSamples = 10

// pathSampler is an arc-length table over a bezier path's world-space
// points, rebuilt per constraint application.
type pathSampler struct {
	points      []mgl32.Vec2
	closed      bool
	cumulative  [][]float32 // per curve, cumulative sample lengths
	curveStarts []float32   // running length at each curve's start
	totalLength float32
}

func (d *DataInstance) buildPathSampler(path *PathAttachment, slot int) *pathSampler {
	verts := path.Vertices
	if v, ok := d.Deform(DeformKey{Skin: d.skin, Slot: slot, Attachment: d.slots[slot].AttachmentID}); ok {
		verts = v
	}

	var points []mgl32.Vec2
	if path.Skinned() {
		points = d.skinnedPathPoints(path)
	} else {
		bone := d.definition.Slots[slot].Bone
		w := d.world[bone]
		points = make([]mgl32.Vec2, 0, len(verts)/2)
		for i := 0; i+1 < len(verts); i += 2 {
			points = append(points, w.TransformPosition(mgl32.Vec2{verts[i], verts[i+1]}))
		}
	}
	if len(points) < 3 {
		return nil
	}

	s := &pathSampler{points: points, closed: path.Closed}
	curves := path.CurveCount()
	s.cumulative = make([][]float32, curves)
	s.curveStarts = make([]float32, curves)
	for c := 0; c < curves; c++ {
		p0, c1, c2, p3 := s.curvePoints(c)
		table := make([]float32, pathCurveSamples+1)
		prev := p0
		var acc float32
		for k := 1; k <= pathCurveSamples; k++ {
			t := float32(k) / pathCurveSamples
			pt := bezierPoint(p0, c1, c2, p3, t)
			acc += pt.Sub(prev).Len()
			table[k] = acc
			prev = pt
		}
		s.curveStarts[c] = s.totalLength
		s.cumulative[c] = table
		s.totalLength += acc
	}
	return s
}

func (d *DataInstance) skinnedPathPoints(path *PathAttachment) []mgl32.Vec2 {
	points := make([]mgl32.Vec2, 0, len(path.BoneCounts))
	wi := 0
	for _, count := range path.BoneCounts {
		var pt mgl32.Vec2
		for j := int32(0); j < count; j++ {
			if wi+3 >= len(path.Weights) {
				return points
			}
			bone := int(path.Weights[wi])
			local := mgl32.Vec2{path.Weights[wi+1], path.Weights[wi+2]}
			weight := path.Weights[wi+3]
			wi += 4
			if bone < 0 || bone >= len(d.world) {
				continue
			}
			pt = pt.Add(d.world[bone].TransformPosition(local).Mul(weight))
		}
		points = append(points, pt)
	}
	return points
}

func (s *pathSampler) curvePoints(c int) (p0, c1, c2, p3 mgl32.Vec2) {
	n := len(s.points)
	p0 = s.points[(3*c)%n]
	c1 = s.points[(3*c+1)%n]
	c2 = s.points[(3*c+2)%n]
	p3 = s.points[(3*c+3)%n]
	return
}

// sample returns the world point and tangent angle (degrees) at arc
// distance dist along the path. Closed paths wrap; open paths clamp.
func (s *pathSampler) sample(dist float32, constantSpeed bool) (mgl32.Vec2, float32) {
	if s.closed {
		dist = math.Mod(dist, s.totalLength)
		if dist < 0 {
			dist += s.totalLength
		}
	} else {
		dist = math.Clamp(dist, 0, s.totalLength)
	}

	curve := len(s.cumulative) - 1
	for c := range s.cumulative {
		end := s.curveStarts[c] + s.cumulative[c][pathCurveSamples]
		if dist <= end || c == len(s.cumulative)-1 {
			curve = c
			break
		}
	}
	local := dist - s.curveStarts[curve]
	table := s.cumulative[curve]
	curveLen := table[pathCurveSamples]

	var t float32
	if curveLen <= math.K_ZERO_TOLERANCE {
		t = 0
	} else if constantSpeed {
		// Invert the arc-length table.
		k := 1
		for k < pathCurveSamples && table[k] < local {
			k++
		}
		lo, hi := table[k-1], table[k]
		frac := float32(0)
		if hi > lo {
			frac = (local - lo) / (hi - lo)
		}
		t = (float32(k-1) + frac) / pathCurveSamples
	} else {
		t = local / curveLen
	}

	p0, c1, c2, p3 := s.curvePoints(curve)
	point := bezierPoint(p0, c1, c2, p3, t)
	tan := bezierTangent(p0, c1, c2, p3, t)
	angle := math.Atan2(tan[1], tan[0]) * math.K_RAD2DEG_MULTIPLIER
	return point, angle
}

func bezierPoint(p0, c1, c2, p3 mgl32.Vec2, t float32) mgl32.Vec2 {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return mgl32.Vec2{
		a*p0[0] + b*c1[0] + c*c2[0] + d*p3[0],
		a*p0[1] + b*c1[1] + c*c2[1] + d*p3[1],
	}
}

func bezierTangent(p0, c1, c2, p3 mgl32.Vec2, t float32) mgl32.Vec2 {
	u := 1 - t
	a := 3 * u * u
	b := 6 * u * t
	c := 3 * t * t
	return mgl32.Vec2{
		a*(c1[0]-p0[0]) + b*(c2[0]-c1[0]) + c*(p3[0]-c2[0]),
		a*(c1[1]-p0[1]) + b*(c2[1]-c1[1]) + c*(p3[1]-c2[1]),
	}
}
