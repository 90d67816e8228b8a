package animation

import (
	"encoding/json"

	"github.com/spaghettifunk/marionette/engine/math"
)

/**
 * @brief Keyframe and timeline types for a single animation clip.
 *
 * All times are in seconds from the start of the clip. Frames within a
 * timeline are sorted ascending by time; interpolation between frames
 * is linear, with rotation interpolated along the shortest arc.
 */

type KeyFrameRotation struct {
	Time           float32 `json:"time"`
	AngleInDegrees float32 `json:"angle"`
}

type KeyFrame2D struct {
	Time float32 `json:"time"`
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
}

// KeyFrameScale defaults to the identity multiplier, not zero.
type KeyFrameScale struct {
	Time float32 `json:"time"`
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
}

func (k *KeyFrameScale) UnmarshalJSON(data []byte) error {
	type plain KeyFrameScale
	tmp := plain{X: 1, Y: 1}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*k = KeyFrameScale(tmp)
	return nil
}

type KeyFrameColor struct {
	Time  float32 `json:"time"`
	Color RGBA    `json:"color"`
}

func (k *KeyFrameColor) UnmarshalJSON(data []byte) error {
	type plain KeyFrameColor
	tmp := plain{Color: RGBAWhite()}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*k = KeyFrameColor(tmp)
	return nil
}

// KeyFrameAttachment is a discrete timeline frame; an empty ID detaches
// the slot's attachment.
type KeyFrameAttachment struct {
	Time float32 `json:"time"`
	ID   string  `json:"id"`
}

// EventKeyFrame fires a named event with its payload when playback
// crosses Time.
type EventKeyFrame struct {
	Time        float32 `json:"time"`
	ID          string  `json:"id"`
	IntValue    int32   `json:"i"`
	FloatValue  float32 `json:"f"`
	StringValue string  `json:"s"`
}

// DrawOrderOffset moves one slot by Offset positions relative to its
// setup index.
type DrawOrderOffset struct {
	SlotID string `json:"slot"`
	Slot   int    `json:"-"`
	Offset int    `json:"offset"`
}

type DrawOrderKeyFrame struct {
	Time    float32           `json:"time"`
	Offsets []DrawOrderOffset `json:"offsets"`
}

// DeformKeyFrame replaces a span of mesh vertex positions starting at
// float offset Offset.
type DeformKeyFrame struct {
	Time     float32   `json:"time"`
	Offset   int       `json:"offset"`
	Vertices []float32 `json:"vertices"`
}

// BoneTimelines groups the continuous curves that animate one bone.
// Translation, rotation and shear frames are deltas from the setup
// pose; scale frames are multipliers against the setup scale.
type BoneTimelines struct {
	Rotation    []KeyFrameRotation `json:"rotation"`
	Translation []KeyFrame2D       `json:"translation"`
	Scale       []KeyFrameScale    `json:"scale"`
	Shear       []KeyFrame2D       `json:"shear"`
}

// SlotTimelines groups a slot's discrete attachment swaps and its
// continuous color curves. The secondary curve only applies to slots
// authored with a secondary color.
type SlotTimelines struct {
	Attachment     []KeyFrameAttachment `json:"attachment"`
	Color          []KeyFrameColor      `json:"color"`
	SecondaryColor []KeyFrameColor      `json:"dark"`
}

// Clip is one named animation. Deforms are keyed skin -> slot ->
// attachment. Immutable after load.
type Clip struct {
	Bones     map[string]*BoneTimelines                         `json:"bones"`
	Slots     map[string]*SlotTimelines                         `json:"slots"`
	Events    []EventKeyFrame                                   `json:"events"`
	DrawOrder []DrawOrderKeyFrame                               `json:"drawOrder"`
	Deforms   map[string]map[string]map[string][]DeformKeyFrame `json:"deforms"`

	maxTime float32
}

// MaxTime is the time of the clip's last keyframe across every
// timeline, computed once at load.
func (c *Clip) MaxTime() float32 {
	return c.maxTime
}

func lastTime2D(frames []KeyFrame2D) float32 {
	if len(frames) == 0 {
		return 0
	}
	return frames[len(frames)-1].Time
}

func (c *Clip) computeMaxTime() {
	var t float32
	for _, bone := range c.Bones {
		if n := len(bone.Rotation); n > 0 {
			t = math.Max(t, bone.Rotation[n-1].Time)
		}
		t = math.Max(t, lastTime2D(bone.Translation))
		if n := len(bone.Scale); n > 0 {
			t = math.Max(t, bone.Scale[n-1].Time)
		}
		t = math.Max(t, lastTime2D(bone.Shear))
	}
	for _, slot := range c.Slots {
		if n := len(slot.Attachment); n > 0 {
			t = math.Max(t, slot.Attachment[n-1].Time)
		}
		if n := len(slot.Color); n > 0 {
			t = math.Max(t, slot.Color[n-1].Time)
		}
		if n := len(slot.SecondaryColor); n > 0 {
			t = math.Max(t, slot.SecondaryColor[n-1].Time)
		}
	}
	if n := len(c.Events); n > 0 {
		t = math.Max(t, c.Events[n-1].Time)
	}
	if n := len(c.DrawOrder); n > 0 {
		t = math.Max(t, c.DrawOrder[n-1].Time)
	}
	for _, slots := range c.Deforms {
		for _, attachments := range slots {
			for _, frames := range attachments {
				if n := len(frames); n > 0 {
					t = math.Max(t, frames[n-1].Time)
				}
			}
		}
	}
	c.maxTime = t
}

func (c *Clip) resolve(d *DataDefinition) {
	for i := range c.DrawOrder {
		for j := range c.DrawOrder[i].Offsets {
			o := &c.DrawOrder[i].Offsets[j]
			o.Slot = d.SlotIndex(o.SlotID)
		}
	}
	c.computeMaxTime()
}
