package animation

import (
	"fmt"
	"slices"

	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/math"
)

// StateMachineInstance runs one state machine: a current state, an
// optional outgoing state being cross-faded away, and a queue of
// pending triggers consumed at the start of every tick.
type StateMachineInstance struct {
	network    *NetworkInstance
	definition *StateMachineDefinition

	old   NodeInstance
	new   NodeInstance
	oldID string
	newID string

	// transitionTarget is the cross-fade duration of the active
	// transition; transitionTime is how far into it we are.
	transitionTarget float32
	transitionTime   float32
	transitionCount  int

	pendingTriggers []string
}

func newStateMachineInstance(network *NetworkInstance, def *StateMachineDefinition) (*StateMachineInstance, error) {
	sm := &StateMachineInstance{
		network:    network,
		definition: def,
	}
	if def.DefaultState != "" {
		if !sm.GotoState(def.DefaultState) {
			return nil, fmt.Errorf("unknown default state %q", def.DefaultState)
		}
		// Entering the default state is not a cross-fade.
		sm.old = nil
		sm.oldID = ""
		sm.transitionCount = 0
	}
	return sm, nil
}

func (sm *StateMachineInstance) GetOld() NodeInstance { return sm.old }
func (sm *StateMachineInstance) GetNew() NodeInstance { return sm.new }
func (sm *StateMachineInstance) GetOldID() string     { return sm.oldID }
func (sm *StateMachineInstance) GetNewID() string     { return sm.newID }

// TransitionCount is the number of state changes since construction.
func (sm *StateMachineInstance) TransitionCount() int { return sm.transitionCount }

// InTransition reports whether a cross-fade is active. It stays true
// on the tick the fade reaches its full duration; the outgoing state
// is released one tick later.
func (sm *StateMachineInstance) InTransition() bool {
	return sm.old != nil && sm.transitionTarget > 0 && sm.transitionTime <= sm.transitionTarget
}

// mix is the incoming state's weight, in [0, 1].
func (sm *StateMachineInstance) mix() float32 {
	if sm.transitionTarget <= 0 {
		return 1
	}
	return math.Clamp(sm.transitionTime/sm.transitionTarget, 0, 1)
}

// GotoState makes name the current state, cross-fading from whatever
// was playing. Interrupting an active fade keeps whichever side is
// currently dominant as the outgoing state. Returns false and changes
// nothing if the state is unknown or its child fails to instantiate.
func (sm *StateMachineInstance) GotoState(name string) bool {
	state, ok := sm.definition.States[name]
	if !ok {
		return false
	}
	child, err := newNodeInstance(sm.network, state.Child)
	if err != nil {
		core.LogError("state %q: %v", name, err)
		return false
	}
	if !sm.InTransition() || sm.mix() >= 0.5 {
		sm.old = sm.new
		sm.oldID = sm.newID
	}
	sm.new = child
	sm.newID = name
	sm.transitionTime = 0
	sm.transitionCount++
	return true
}

// TriggerTransition queues a trigger for this machine's next tick and
// forwards it to the current state's child for nested machines.
func (sm *StateMachineInstance) TriggerTransition(name string) {
	sm.pendingTriggers = append(sm.pendingTriggers, name)
	if sm.new != nil {
		sm.new.TriggerTransition(name)
	}
}

func (sm *StateMachineInstance) Tick(deltaTimeInSeconds, alpha float32, applyDiscreteState bool) {
	sm.checkTransitions()

	if sm.InTransition() {
		sm.transitionTime += deltaTimeInSeconds
	}
	mix := sm.mix()
	if !sm.InTransition() {
		sm.old = nil
		sm.oldID = ""
	}

	if sm.old != nil {
		sm.old.Tick(deltaTimeInSeconds, (1-mix)*alpha, applyDiscreteState)
	}
	if sm.new != nil {
		// Ticked last so the incoming state wins discrete state.
		sm.new.Tick(deltaTimeInSeconds, mix*alpha, applyDiscreteState)
	}
}

// checkTransitions consumes pending triggers against the current
// state's transitions in declaration order. An empty trigger is
// appended every tick so that condition-only transitions are evaluated
// even when nothing fired.
func (sm *StateMachineInstance) checkTransitions() {
	sm.pendingTriggers = append(sm.pendingTriggers, "")

	for _, trigger := range sm.pendingTriggers {
		state, ok := sm.definition.States[sm.newID]
		if !ok {
			break
		}
		matched := false
		for i := range state.Transitions {
			tr := &state.Transitions[i]
			if trigger == "" {
				if len(tr.Triggers) != 0 {
					continue
				}
			} else if !slices.Contains(tr.Triggers, trigger) {
				continue
			}
			if !sm.network.conditionsMet(tr.Conditions, tr.NegativeConditions) {
				continue
			}
			from := sm.newID
			if !sm.GotoState(tr.Target) {
				continue
			}
			sm.transitionTarget = tr.TimeInSeconds
			matched = true
			core.LogDebug("state machine: %q -> %q (trigger %q)", from, tr.Target, trigger)
			break
		}
		if !matched && trigger != "" {
			core.LogDebug("state machine: dropped trigger %q in state %q", trigger, sm.newID)
		}
	}
	sm.pendingTriggers = sm.pendingTriggers[:0]
}

// CurrentMaxTime is the current state's duration; an outgoing
// cross-fade does not extend it.
func (sm *StateMachineInstance) CurrentMaxTime() float32 {
	if sm.new == nil {
		return 0
	}
	return sm.new.CurrentMaxTime()
}

// AllDonePlaying folds both sides of an active cross-fade: done only
// when old and new agree, looping if either side loops.
func (sm *StateMachineInstance) AllDonePlaying() (done, looping bool) {
	done = true
	if sm.new != nil {
		d, l := sm.new.AllDonePlaying()
		done = done && d
		looping = looping || l
	}
	if sm.old != nil {
		d, l := sm.old.AllDonePlaying()
		done = done && d
		looping = looping || l
	}
	return done, looping
}

func (sm *StateMachineInstance) IsInStateTransition() bool {
	if sm.InTransition() {
		return true
	}
	return sm.new != nil && sm.new.IsInStateTransition()
}

func (sm *StateMachineInstance) TimeToEvent(name string, out *float32) bool {
	return sm.new != nil && sm.new.TimeToEvent(name, out)
}

// AppendViableTriggers collects the triggers that would currently be
// honored: those of the current state's transitions whose conditions
// hold, plus any from nested machines.
func (sm *StateMachineInstance) AppendViableTriggers(out *[]string) {
	if state, ok := sm.definition.States[sm.newID]; ok {
		for i := range state.Transitions {
			tr := &state.Transitions[i]
			if len(tr.Triggers) == 0 {
				continue
			}
			if !sm.network.conditionsMet(tr.Conditions, tr.NegativeConditions) {
				continue
			}
			for _, t := range tr.Triggers {
				if !slices.Contains(*out, t) {
					*out = append(*out, t)
				}
			}
		}
	}
	if sm.new != nil {
		sm.new.AppendViableTriggers(out)
	}
}
