package animation

import (
	"testing"
)

type recordedEvent struct {
	Name        string
	IntValue    int32
	FloatValue  float32
	StringValue string
}

type eventRecorder struct {
	events []recordedEvent
}

func (r *eventRecorder) DispatchEvent(name string, intValue int32, floatValue float32, stringValue string) {
	r.events = append(r.events, recordedEvent{name, intValue, floatValue, stringValue})
}

const (
	walkDuration = float32(1.0666)
	runDuration  = float32(0.5333)
)

func testSkeleton(t *testing.T) *DataDefinition {
	t.Helper()
	def := &DataDefinition{
		Bones: []Bone{
			{ID: "root", ParentID: "", ScaleX: 1, ScaleY: 1},
			{ID: "arm", ParentID: "root", ScaleX: 1, ScaleY: 1},
		},
		Slots: []Slot{
			{ID: "body", BoneID: "root", AttachmentID: "a", Color: RGBAWhite()},
		},
		Clips: map[string]*Clip{
			"Walk": {
				Bones: map[string]*BoneTimelines{
					"arm": {Rotation: []KeyFrameRotation{{Time: 0, AngleInDegrees: 0}, {Time: walkDuration, AngleInDegrees: 90}}},
				},
				Events: []EventKeyFrame{
					{Time: 0, ID: "Footstep", IntValue: 4, FloatValue: 4.5, StringValue: "Test4"},
					{Time: runDuration, ID: "Footstep", IntValue: 8, FloatValue: 8.5, StringValue: "Test3"},
					{Time: walkDuration, ID: "Footstep", IntValue: 5, FloatValue: 5.5, StringValue: "Test"},
				},
			},
			"Run": {
				Bones: map[string]*BoneTimelines{
					"arm": {Rotation: []KeyFrameRotation{{Time: 0, AngleInDegrees: 0}, {Time: runDuration, AngleInDegrees: 45}}},
				},
			},
			"Idle": {
				Bones: map[string]*BoneTimelines{
					"arm": {Rotation: []KeyFrameRotation{{Time: 0, AngleInDegrees: 0}, {Time: 1.0, AngleInDegrees: 10}}},
				},
				Events: []EventKeyFrame{
					{Time: 0.5, ID: "Fidget"},
				},
			},
			"Attack": {
				Bones: map[string]*BoneTimelines{
					"arm": {Rotation: []KeyFrameRotation{{Time: 0, AngleInDegrees: 0}, {Time: 0.4, AngleInDegrees: 20}}},
				},
			},
			"Pose": {
				Bones: map[string]*BoneTimelines{
					"arm": {Rotation: []KeyFrameRotation{{Time: 0, AngleInDegrees: 15}}},
				},
			},
			"Headturn": {
				Bones: map[string]*BoneTimelines{
					"arm": {Rotation: []KeyFrameRotation{{Time: 0.5, AngleInDegrees: 30}}},
				},
				Slots: map[string]*SlotTimelines{
					"body": {Attachment: []KeyFrameAttachment{{Time: 0, ID: "a"}, {Time: 0.25, ID: "b"}}},
				},
			},
		},
	}
	if err := def.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return def
}
