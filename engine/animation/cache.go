package animation

import (
	"github.com/spaghettifunk/marionette/engine/math"
)

/**
 * @brief Per-tick pose accumulation.
 *
 * Every active clip contributes weighted channel samples during Tick;
 * the cache keeps a running weighted average per channel so that two
 * clips at weights (1-t, t) resolve to an exact lerp of their values,
 * independent of contribution order. Translation, rotation and shear
 * samples are deltas from the setup pose; scale samples are
 * multipliers.
 */

type scalarChannel struct {
	value  float32
	weight float32
}

func (ch *scalarChannel) accumulate(v, alpha float32) {
	if alpha <= 0 {
		return
	}
	if ch.weight == 0 {
		ch.value = v
	} else {
		ch.value = math.Lerp(ch.value, v, alpha/(ch.weight+alpha))
	}
	ch.weight += alpha
}

// resolve eases from base toward the accumulated average by the total
// weight, clamped to 1. Zero weight leaves base untouched, so bones a
// clip never keys stay at their setup values.
func (ch *scalarChannel) resolve(base float32) float32 {
	if ch.weight <= 0 {
		return base
	}
	return math.Lerp(base, ch.value, math.Min(ch.weight, 1))
}

// degreesChannel averages angles along the shortest arc.
type degreesChannel struct {
	value  float32
	weight float32
}

func (ch *degreesChannel) accumulate(v, alpha float32) {
	if alpha <= 0 {
		return
	}
	if ch.weight == 0 {
		ch.value = v
	} else {
		ch.value = math.LerpDegrees(ch.value, v, alpha/(ch.weight+alpha))
	}
	ch.weight += alpha
}

func (ch *degreesChannel) resolve(base float32) float32 {
	if ch.weight <= 0 {
		return base
	}
	return base + math.LerpDegrees(0, ch.value, math.Min(ch.weight, 1))
}

type bonePoseChannels struct {
	positionX scalarChannel
	positionY scalarChannel
	rotation  degreesChannel
	scaleX    scalarChannel
	scaleY    scalarChannel
	shearX    scalarChannel
	shearY    scalarChannel
}

type colorChannels struct {
	r scalarChannel
	g scalarChannel
	b scalarChannel
	a scalarChannel
}

// PoseCache collects weighted timeline samples for one tick of one
// instance. Not safe for concurrent use.
type PoseCache struct {
	bones           []bonePoseChannels
	colors          []colorChannels
	secondaryColors []colorChannels
}

func NewPoseCache(boneCount, slotCount int) *PoseCache {
	return &PoseCache{
		bones:           make([]bonePoseChannels, boneCount),
		colors:          make([]colorChannels, slotCount),
		secondaryColors: make([]colorChannels, slotCount),
	}
}

// Clear resets all channels; called at the start of every tick.
func (pc *PoseCache) Clear() {
	for i := range pc.bones {
		pc.bones[i] = bonePoseChannels{}
	}
	for i := range pc.colors {
		pc.colors[i] = colorChannels{}
	}
	for i := range pc.secondaryColors {
		pc.secondaryColors[i] = colorChannels{}
	}
}

func (pc *PoseCache) AccumulateTranslation(bone int, x, y, alpha float32) {
	ch := &pc.bones[bone]
	ch.positionX.accumulate(x, alpha)
	ch.positionY.accumulate(y, alpha)
}

func (pc *PoseCache) AccumulateRotation(bone int, angleInDegrees, alpha float32) {
	pc.bones[bone].rotation.accumulate(angleInDegrees, alpha)
}

func (pc *PoseCache) AccumulateScale(bone int, x, y, alpha float32) {
	ch := &pc.bones[bone]
	ch.scaleX.accumulate(x, alpha)
	ch.scaleY.accumulate(y, alpha)
}

func (pc *PoseCache) AccumulateShear(bone int, x, y, alpha float32) {
	ch := &pc.bones[bone]
	ch.shearX.accumulate(x, alpha)
	ch.shearY.accumulate(y, alpha)
}

func (pc *PoseCache) AccumulateColor(slot int, c RGBA, alpha float32) {
	accumulateColor(&pc.colors[slot], c, alpha)
}

func (pc *PoseCache) AccumulateSecondaryColor(slot int, c RGBA, alpha float32) {
	accumulateColor(&pc.secondaryColors[slot], c, alpha)
}

func accumulateColor(ch *colorChannels, c RGBA, alpha float32) {
	ch.r.accumulate(float32(c.R), alpha)
	ch.g.accumulate(float32(c.G), alpha)
	ch.b.accumulate(float32(c.B), alpha)
	ch.a.accumulate(float32(c.A), alpha)
}

// ResolveBone composes the final local pose for a bone from its setup
// values and the accumulated channel deltas.
func (pc *PoseCache) ResolveBone(setup *Bone, index int) BoneLocal {
	ch := &pc.bones[index]
	return BoneLocal{
		PositionX:         setup.PositionX + ch.positionX.resolve(0),
		PositionY:         setup.PositionY + ch.positionY.resolve(0),
		RotationInDegrees: ch.rotation.resolve(setup.RotationInDegrees),
		ScaleX:            setup.ScaleX * ch.scaleX.resolve(1),
		ScaleY:            setup.ScaleY * ch.scaleY.resolve(1),
		ShearX:            setup.ShearX + ch.shearX.resolve(0),
		ShearY:            setup.ShearY + ch.shearY.resolve(0),
	}
}

// ResolveColor blends a slot's color from its setup value toward the
// accumulated average.
func (pc *PoseCache) ResolveColor(setup RGBA, index int) RGBA {
	return resolveColor(&pc.colors[index], setup)
}

func (pc *PoseCache) ResolveSecondaryColor(setup RGBA, index int) RGBA {
	return resolveColor(&pc.secondaryColors[index], setup)
}

func resolveColor(ch *colorChannels, setup RGBA) RGBA {
	return RGBA{
		R: uint8(math.Clamp(ch.r.resolve(float32(setup.R)), 0, 255) + 0.5),
		G: uint8(math.Clamp(ch.g.resolve(float32(setup.G)), 0, 255) + 0.5),
		B: uint8(math.Clamp(ch.b.resolve(float32(setup.B)), 0, 255) + 0.5),
		A: uint8(math.Clamp(ch.a.resolve(float32(setup.A)), 0, 255) + 0.5),
	}
}
