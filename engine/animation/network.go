package animation

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/marionette/engine/math"
)

// NetworkDefinition is the immutable description of one blend graph:
// its condition and parameter tables and the root node.
type NetworkDefinition struct {
	Conditions        map[string]bool                 `json:"conditions"`
	Parameters        map[string]*ParameterDefinition `json:"parameters"`
	Root              *NodeDefinition                 `json:"root"`
	EventMixThreshold float32                         `json:"eventMixThreshold"`
}

// ParseNetworkDefinition decodes a network definition from JSON.
func ParseNetworkDefinition(data []byte) (*NetworkDefinition, error) {
	def := &NetworkDefinition{}
	if err := json.Unmarshal(data, def); err != nil {
		return nil, err
	}
	if def.Root == nil {
		return nil, fmt.Errorf("network definition has no root node")
	}
	return def, nil
}

// NetworkInstance is one playing animation network: a skeleton pose
// instance plus the instantiated node tree and the mutable condition
// and parameter tables.
//
// Mutations requested from inside an event callback (triggers,
// condition or parameter writes) are deferred until the tick that
// raised the callback completes, so a callback can never reenter the
// node tree mid evaluation.
type NetworkInstance struct {
	id           uuid.UUID
	definition   *NetworkDefinition
	data         *DataInstance
	events       EventInterface
	clipSettings ClipSettings
	root         NodeInstance

	conditions map[string]bool
	parameters map[string]float32

	inTick   bool
	deferred []func()
}

func NewNetworkInstance(definition *NetworkDefinition, data *DataInstance, events EventInterface) (*NetworkInstance, error) {
	return NewNetworkInstanceWithSettings(definition, data, events, ClipSettings{
		EventMixThreshold: definition.EventMixThreshold,
	})
}

// NewNetworkInstanceWithSettings overrides the clip settings the
// definition would otherwise supply.
func NewNetworkInstanceWithSettings(definition *NetworkDefinition, data *DataInstance, events EventInterface, settings ClipSettings) (*NetworkInstance, error) {
	n := &NetworkInstance{
		id:           uuid.New(),
		definition:   definition,
		data:         data,
		events:       events,
		clipSettings: settings,
		conditions:   make(map[string]bool, len(definition.Conditions)),
		parameters:   make(map[string]float32, len(definition.Parameters)),
	}
	for name, v := range definition.Conditions {
		n.conditions[name] = v
	}
	for name, p := range definition.Parameters {
		n.parameters[name] = math.Clamp(p.Default, p.Min, p.Max)
	}
	root, err := newNodeInstance(n, definition.Root)
	if err != nil {
		return nil, err
	}
	n.root = root
	return n, nil
}

// ID is the unique identifier of this instance.
func (n *NetworkInstance) ID() uuid.UUID { return n.id }

func (n *NetworkInstance) GetNetwork() *NetworkDefinition { return n.definition }

// GetState is the skeleton pose state driven by this network.
func (n *NetworkInstance) GetState() *DataInstance { return n.data }

func (n *NetworkInstance) GetRoot() NodeInstance { return n.root }

// GetConditions returns a snapshot of the condition table.
func (n *NetworkInstance) GetConditions() map[string]bool {
	out := make(map[string]bool, len(n.conditions))
	for k, v := range n.conditions {
		out[k] = v
	}
	return out
}

// GetParameters returns a snapshot of the parameter table.
func (n *NetworkInstance) GetParameters() map[string]float32 {
	out := make(map[string]float32, len(n.parameters))
	for k, v := range n.parameters {
		out[k] = v
	}
	return out
}

// Tick advances the network by deltaTimeInSeconds: resets per-tick
// pose state, evaluates the node tree at full weight, resolves the
// accumulated pose, runs constraints and refreshes the skinning
// palette. A zero delta settles queued triggers without firing events.
func (n *NetworkInstance) Tick(deltaTimeInSeconds float32) {
	n.inTick = true
	n.data.PrepareTick()
	n.root.Tick(deltaTimeInSeconds, 1, true)
	n.data.ApplyCache()
	n.data.PoseSkinningPalette()
	n.inTick = false

	for _, fn := range n.deferred {
		fn()
	}
	n.deferred = n.deferred[:0]
}

// TriggerTransition hands a trigger to the node tree. During a tick
// the trigger is queued and delivered when the tick finishes, which
// means state machines act on it at the start of the next tick.
func (n *NetworkInstance) TriggerTransition(name string) {
	if n.inTick {
		n.deferred = append(n.deferred, func() { n.root.TriggerTransition(name) })
		return
	}
	n.root.TriggerTransition(name)
}

// SetCondition sets a boolean transition condition.
func (n *NetworkInstance) SetCondition(name string, value bool) {
	if n.inTick {
		n.deferred = append(n.deferred, func() { n.conditions[name] = value })
		return
	}
	n.conditions[name] = value
}

func (n *NetworkInstance) GetCondition(name string) bool {
	return n.conditions[name]
}

// SetParameter sets a float parameter, clamped to the declared range
// when the network declares one.
func (n *NetworkInstance) SetParameter(name string, value float32) {
	if p, ok := n.definition.Parameters[name]; ok {
		value = math.Clamp(value, p.Min, p.Max)
	}
	if n.inTick {
		n.deferred = append(n.deferred, func() { n.parameters[name] = value })
		return
	}
	n.parameters[name] = value
}

func (n *NetworkInstance) GetParameter(name string) float32 {
	return n.parameters[name]
}

// GetTimeToEvent reports the seconds until the named event would next
// fire, querying the currently dominant clips. The out pointer is left
// untouched when no playing clip carries the event.
func (n *NetworkInstance) GetTimeToEvent(name string, out *float32) bool {
	return n.root.TimeToEvent(name, out)
}

// GetCurrentMaxTime is the duration of whatever the network is
// currently playing.
func (n *NetworkInstance) GetCurrentMaxTime() float32 {
	return n.root.CurrentMaxTime()
}

// IsInStateTransition reports whether any state machine in the tree is
// mid cross-fade.
func (n *NetworkInstance) IsInStateTransition() bool {
	return n.root.IsInStateTransition()
}

// AllDonePlaying reports whether every one-shot clip has finished and
// whether anything in the tree loops forever.
func (n *NetworkInstance) AllDonePlaying() (done, looping bool) {
	return n.root.AllDonePlaying()
}

// GetViableTriggers lists the triggers that would currently cause a
// state change somewhere in the tree.
func (n *NetworkInstance) GetViableTriggers() []string {
	var out []string
	n.root.AppendViableTriggers(&out)
	return out
}

func (n *NetworkInstance) conditionsMet(conditions, negativeConditions []string) bool {
	for _, c := range conditions {
		if !n.conditions[c] {
			return false
		}
	}
	for _, c := range negativeConditions {
		if n.conditions[c] {
			return false
		}
	}
	return true
}
