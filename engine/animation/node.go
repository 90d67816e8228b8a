package animation

import (
	"encoding/json"
	"fmt"
)

// NodeType discriminates the closed set of blend-graph node variants.
type NodeType int

const (
	NodeTypePlayClip NodeType = iota
	NodeTypeBlend
	NodeTypeStateMachine
)

func (t NodeType) String() string {
	switch t {
	case NodeTypePlayClip:
		return "clip"
	case NodeTypeBlend:
		return "blend"
	case NodeTypeStateMachine:
		return "statemachine"
	default:
		return "unknown"
	}
}

// NodeDefinition is a tagged variant; exactly one of the pointer
// fields is non-nil, selected by Type.
type NodeDefinition struct {
	Type         NodeType
	PlayClip     *PlayClipDefinition
	Blend        *BlendDefinition
	StateMachine *StateMachineDefinition
}

func (n *NodeDefinition) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch probe.Type {
	case "", "clip":
		n.Type = NodeTypePlayClip
		n.PlayClip = &PlayClipDefinition{}
		return json.Unmarshal(data, n.PlayClip)
	case "blend":
		n.Type = NodeTypeBlend
		n.Blend = &BlendDefinition{}
		return json.Unmarshal(data, n.Blend)
	case "statemachine":
		n.Type = NodeTypeStateMachine
		n.StateMachine = &StateMachineDefinition{}
		return json.Unmarshal(data, n.StateMachine)
	default:
		return fmt.Errorf("unknown node type %q", probe.Type)
	}
}

// PlayClipDefinition plays one named clip, optionally looping. A
// non-looping clip fires OnCompleteTrigger into the network the tick
// after it reaches its end.
type PlayClipDefinition struct {
	Name              string `json:"name"`
	Loop              bool   `json:"loop"`
	OnCompleteTrigger string `json:"onComplete"`
}

// BlendDefinition mixes two children by a network parameter. With
// SynchronizeTime the lighter child's clock is scaled so both children
// stay phase locked.
type BlendDefinition struct {
	ParameterID     string          `json:"parameter"`
	ChildA          *NodeDefinition `json:"childA"`
	ChildB          *NodeDefinition `json:"childB"`
	SynchronizeTime bool            `json:"synchronizeTime"`
}

// TransitionDefinition is one outgoing edge of a state.
// TimeInSeconds is the cross-fade duration once the transition fires.
// A transition with no triggers is eligible every tick its conditions
// hold; otherwise one of Triggers must arrive.
type TransitionDefinition struct {
	Target             string   `json:"target"`
	TimeInSeconds      float32  `json:"time"`
	Triggers           []string `json:"triggers"`
	Conditions         []string `json:"conditions"`
	NegativeConditions []string `json:"negativeConditions"`
}

type StateDefinition struct {
	Transitions []TransitionDefinition `json:"transitions"`
	Child       *NodeDefinition        `json:"child"`
}

type StateMachineDefinition struct {
	DefaultState string                      `json:"default"`
	States       map[string]*StateDefinition `json:"states"`
}

// ParameterDefinition declares a float parameter with its default and
// clamping range.
type ParameterDefinition struct {
	Default float32 `json:"default"`
	Min     float32 `json:"min"`
	Max     float32 `json:"max"`
}

// NodeInstance is the runtime counterpart of a NodeDefinition. Alpha
// is the node's blend weight for the tick; applyDiscreteState marks
// the single path through the tree allowed to set winner-take-all
// state such as attachment swaps.
type NodeInstance interface {
	Tick(deltaTimeInSeconds, alpha float32, applyDiscreteState bool)
	CurrentMaxTime() float32
	AllDonePlaying() (done, looping bool)
	IsInStateTransition() bool
	TriggerTransition(name string)
	TimeToEvent(name string, out *float32) bool
	AppendViableTriggers(out *[]string)
}

func newNodeInstance(network *NetworkInstance, def *NodeDefinition) (NodeInstance, error) {
	if def == nil {
		return nil, fmt.Errorf("nil node definition")
	}
	switch def.Type {
	case NodeTypePlayClip:
		return newPlayClipInstance(network, def.PlayClip)
	case NodeTypeBlend:
		return newBlendInstance(network, def.Blend)
	case NodeTypeStateMachine:
		return newStateMachineInstance(network, def.StateMachine)
	default:
		return nil, fmt.Errorf("unknown node type %d", def.Type)
	}
}
