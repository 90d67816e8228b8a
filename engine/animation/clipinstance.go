package animation

import (
	"github.com/spaghettifunk/marionette/engine/math"
)

// ClipSettings tunes per-network clip evaluation behavior.
type ClipSettings struct {
	// EventMixThreshold suppresses event and draw-order firing from
	// clips whose blend weight falls below it. Zero fires everything.
	EventMixThreshold float32
}

type timedFrame interface {
	frameTime() float32
}

func (k KeyFrameRotation) frameTime() float32   { return k.Time }
func (k KeyFrame2D) frameTime() float32         { return k.Time }
func (k KeyFrameScale) frameTime() float32      { return k.Time }
func (k KeyFrameColor) frameTime() float32      { return k.Time }
func (k KeyFrameAttachment) frameTime() float32 { return k.Time }
func (k DeformKeyFrame) frameTime() float32     { return k.Time }

// frameCursor remembers the last frame index a timeline resolved to.
// Playback is mostly forward and local, so the next lookup usually
// starts where the previous one ended; a time before the cached frame
// resets the scan to the front.
type frameCursor struct {
	last int
}

func findFrames[F timedFrame](frames []F, t float32, cur *frameCursor) (i, j int, lerp float32) {
	n := len(frames)
	if cur.last >= n || frames[cur.last].frameTime() > t {
		cur.last = 0
	}
	for cur.last+1 < n && frames[cur.last+1].frameTime() <= t {
		cur.last++
	}
	i = cur.last
	j = i
	if i+1 < n {
		j = i + 1
	}
	ti, tj := frames[i].frameTime(), frames[j].frameTime()
	if tj > ti {
		lerp = math.Clamp((t-ti)/(tj-ti), 0, 1)
	}
	return
}

type evaluator interface {
	evaluate(t, alpha float32)
}

type rotationEvaluator struct {
	cache  *PoseCache
	bone   int
	frames []KeyFrameRotation
	cursor frameCursor
}

func (e *rotationEvaluator) evaluate(t, alpha float32) {
	// Continuous curves contribute nothing before their first key.
	if len(e.frames) == 0 || t < e.frames[0].Time {
		return
	}
	i, j, l := findFrames(e.frames, t, &e.cursor)
	v := math.LerpDegrees(e.frames[i].AngleInDegrees, e.frames[j].AngleInDegrees, l)
	e.cache.AccumulateRotation(e.bone, v, alpha)
}

type translationEvaluator struct {
	cache  *PoseCache
	bone   int
	frames []KeyFrame2D
	cursor frameCursor
}

func (e *translationEvaluator) evaluate(t, alpha float32) {
	if len(e.frames) == 0 || t < e.frames[0].Time {
		return
	}
	i, j, l := findFrames(e.frames, t, &e.cursor)
	x := math.Lerp(e.frames[i].X, e.frames[j].X, l)
	y := math.Lerp(e.frames[i].Y, e.frames[j].Y, l)
	e.cache.AccumulateTranslation(e.bone, x, y, alpha)
}

type scaleEvaluator struct {
	cache  *PoseCache
	bone   int
	frames []KeyFrameScale
	cursor frameCursor
}

func (e *scaleEvaluator) evaluate(t, alpha float32) {
	if len(e.frames) == 0 || t < e.frames[0].Time {
		return
	}
	i, j, l := findFrames(e.frames, t, &e.cursor)
	x := math.Lerp(e.frames[i].X, e.frames[j].X, l)
	y := math.Lerp(e.frames[i].Y, e.frames[j].Y, l)
	e.cache.AccumulateScale(e.bone, x, y, alpha)
}

type shearEvaluator struct {
	cache  *PoseCache
	bone   int
	frames []KeyFrame2D
	cursor frameCursor
}

func (e *shearEvaluator) evaluate(t, alpha float32) {
	if len(e.frames) == 0 || t < e.frames[0].Time {
		return
	}
	i, j, l := findFrames(e.frames, t, &e.cursor)
	x := math.Lerp(e.frames[i].X, e.frames[j].X, l)
	y := math.Lerp(e.frames[i].Y, e.frames[j].Y, l)
	e.cache.AccumulateShear(e.bone, x, y, alpha)
}

type colorEvaluator struct {
	cache     *PoseCache
	slot      int
	secondary bool
	frames    []KeyFrameColor
	cursor    frameCursor
}

func (e *colorEvaluator) evaluate(t, alpha float32) {
	if len(e.frames) == 0 || t < e.frames[0].Time {
		return
	}
	i, j, l := findFrames(e.frames, t, &e.cursor)
	a, b := e.frames[i].Color, e.frames[j].Color
	c := RGBA{
		R: uint8(math.Lerp(float32(a.R), float32(b.R), l) + 0.5),
		G: uint8(math.Lerp(float32(a.G), float32(b.G), l) + 0.5),
		B: uint8(math.Lerp(float32(a.B), float32(b.B), l) + 0.5),
		A: uint8(math.Lerp(float32(a.A), float32(b.A), l) + 0.5),
	}
	if e.secondary {
		e.cache.AccumulateSecondaryColor(e.slot, c, alpha)
	} else {
		e.cache.AccumulateColor(e.slot, c, alpha)
	}
}

type deformEvaluator struct {
	instance *DataInstance
	key      DeformKey
	frames   []DeformKeyFrame
	cursor   frameCursor
	scratch  []float32
}

func (e *deformEvaluator) evaluate(t, alpha float32) {
	if len(e.frames) == 0 || t < e.frames[0].Time {
		return
	}
	i, j, l := findFrames(e.frames, t, &e.cursor)
	a, b := &e.frames[i], &e.frames[j]
	if i == j || a.Offset != b.Offset || len(a.Vertices) != len(b.Vertices) {
		e.instance.ApplyDeform(e.key, a.Offset, a.Vertices)
		return
	}
	if cap(e.scratch) < len(a.Vertices) {
		e.scratch = make([]float32, len(a.Vertices))
	}
	e.scratch = e.scratch[:len(a.Vertices)]
	for k := range a.Vertices {
		e.scratch[k] = math.Lerp(a.Vertices[k], b.Vertices[k], l)
	}
	e.instance.ApplyDeform(e.key, a.Offset, e.scratch)
}

// attachmentEvaluator is discrete: the most recent key at or before t
// wins outright, no blending.
type attachmentEvaluator struct {
	instance *DataInstance
	slot     int
	frames   []KeyFrameAttachment
	cursor   frameCursor
}

func (e *attachmentEvaluator) evaluate(t, _ float32) {
	if len(e.frames) == 0 || t < e.frames[0].Time {
		return
	}
	i, _, _ := findFrames(e.frames, t, &e.cursor)
	e.instance.SetAttachment(e.slot, e.frames[i].ID)
}

// ClipInstance evaluates one clip against one skeleton instance. The
// evaluator set is built once from the clip's timelines; timelines that
// reference unknown bones or slots are dropped at construction.
type ClipInstance struct {
	instance   *DataInstance
	clip       *Clip
	settings   ClipSettings
	continuous []evaluator
	discrete   []evaluator
}

func NewClipInstance(instance *DataInstance, clip *Clip, settings ClipSettings) *ClipInstance {
	ci := &ClipInstance{
		instance: instance,
		clip:     clip,
		settings: settings,
	}
	def := instance.Definition()
	cache := instance.Cache()

	for id, tl := range clip.Bones {
		bone := def.BoneIndex(id)
		if bone < 0 {
			continue
		}
		if len(tl.Rotation) > 0 {
			ci.continuous = append(ci.continuous, &rotationEvaluator{cache: cache, bone: bone, frames: tl.Rotation})
		}
		if len(tl.Translation) > 0 {
			ci.continuous = append(ci.continuous, &translationEvaluator{cache: cache, bone: bone, frames: tl.Translation})
		}
		if len(tl.Scale) > 0 {
			ci.continuous = append(ci.continuous, &scaleEvaluator{cache: cache, bone: bone, frames: tl.Scale})
		}
		if len(tl.Shear) > 0 {
			ci.continuous = append(ci.continuous, &shearEvaluator{cache: cache, bone: bone, frames: tl.Shear})
		}
	}
	for id, tl := range clip.Slots {
		slot := def.SlotIndex(id)
		if slot < 0 {
			continue
		}
		if len(tl.Color) > 0 {
			ci.continuous = append(ci.continuous, &colorEvaluator{cache: cache, slot: slot, frames: tl.Color})
		}
		if len(tl.SecondaryColor) > 0 {
			ci.continuous = append(ci.continuous, &colorEvaluator{cache: cache, slot: slot, secondary: true, frames: tl.SecondaryColor})
		}
		if len(tl.Attachment) > 0 {
			ci.discrete = append(ci.discrete, &attachmentEvaluator{instance: instance, slot: slot, frames: tl.Attachment})
		}
	}
	for skin, slots := range clip.Deforms {
		for slotID, attachments := range slots {
			slot := def.SlotIndex(slotID)
			if slot < 0 {
				continue
			}
			for attachmentID, frames := range attachments {
				if len(frames) == 0 {
					continue
				}
				ci.continuous = append(ci.continuous, &deformEvaluator{
					instance: instance,
					key:      DeformKey{Skin: skin, Slot: slot, Attachment: attachmentID},
					frames:   frames,
				})
			}
		}
	}
	return ci
}

func (ci *ClipInstance) MaxTime() float32 {
	return ci.clip.MaxTime()
}

// Evaluate samples all continuous timelines at t with weight alpha.
// Discrete state (attachment swaps) applies only when requested, so a
// cross-fade's outgoing clip stops flipping attachments while its
// continuous channels still blend out.
func (ci *ClipInstance) Evaluate(t, alpha float32, applyDiscreteState bool) {
	for _, e := range ci.continuous {
		e.evaluate(t, alpha)
	}
	if applyDiscreteState {
		for _, e := range ci.discrete {
			e.evaluate(t, alpha)
		}
	}
}

// EvaluateRange fires events and applies draw-order keys whose time
// falls in (from, to]. A range starting at exactly zero also includes
// keys at time zero, so the first tick of a clip fires its t=0 keys.
// Clips mixed below the event threshold fire nothing.
func (ci *ClipInstance) EvaluateRange(from, to, alpha float32, events EventInterface) {
	if alpha < ci.settings.EventMixThreshold {
		return
	}
	inRange := func(t float32) bool {
		if t > from && t <= to {
			return true
		}
		return from == 0 && t == 0
	}
	if events != nil {
		for i := range ci.clip.Events {
			e := &ci.clip.Events[i]
			if inRange(e.Time) {
				events.DispatchEvent(e.ID, e.IntValue, e.FloatValue, e.StringValue)
			}
		}
	}
	for i := range ci.clip.DrawOrder {
		k := &ci.clip.DrawOrder[i]
		if !inRange(k.Time) {
			continue
		}
		if len(k.Offsets) == 0 {
			ci.instance.ResetDrawOrder()
		} else {
			ci.instance.ApplyDrawOrderOffsets(k.Offsets)
		}
	}
}

// NextEventTime reports the seconds until the next occurrence of the
// named event, measured from current playback time t. Only looping
// playback wraps around the clip end; an event already behind a
// non-looping clock will never fire again. On a miss the out pointer
// is left untouched.
func (ci *ClipInstance) NextEventTime(name string, t float32, looping bool, out *float32) bool {
	found := false
	var best float32
	maxTime := ci.clip.MaxTime()
	for i := range ci.clip.Events {
		e := &ci.clip.Events[i]
		if e.ID != name {
			continue
		}
		var dt float32
		if e.Time >= t {
			dt = e.Time - t
		} else if looping {
			dt = (maxTime - t) + e.Time
		} else {
			continue
		}
		if !found || dt < best {
			found = true
			best = dt
		}
	}
	if found && out != nil {
		*out = best
	}
	return found
}
