package animation

import (
	"github.com/spaghettifunk/marionette/engine/math"
)

// BlendInstance mixes two children by a network parameter. Each child
// keeps its own playback clock; only SynchronizeTime couples them, by
// scaling the follower's delta so both children cross their clip
// boundaries together.
type BlendInstance struct {
	network    *NetworkInstance
	definition *BlendDefinition
	childA     NodeInstance
	childB     NodeInstance
	mix        float32
}

func newBlendInstance(network *NetworkInstance, def *BlendDefinition) (*BlendInstance, error) {
	childA, err := newNodeInstance(network, def.ChildA)
	if err != nil {
		return nil, err
	}
	childB, err := newNodeInstance(network, def.ChildB)
	if err != nil {
		return nil, err
	}
	return &BlendInstance{
		network:    network,
		definition: def,
		childA:     childA,
		childB:     childB,
	}, nil
}

// Mix is the parameter value sampled during the last Tick.
func (b *BlendInstance) Mix() float32 { return b.mix }

func (b *BlendInstance) ChildA() NodeInstance { return b.childA }

func (b *BlendInstance) ChildB() NodeInstance { return b.childB }

func (b *BlendInstance) Tick(deltaTimeInSeconds, alpha float32, applyDiscreteState bool) {
	mix := b.network.GetParameter(b.definition.ParameterID)
	b.mix = mix

	dtA, dtB := deltaTimeInSeconds, deltaTimeInSeconds
	if b.definition.SynchronizeTime {
		maxA, maxB := b.childA.CurrentMaxTime(), b.childB.CurrentMaxTime()
		// The dominant child keeps real time; the other is rescaled to
		// stay phase locked.
		if mix < 0.5 {
			if maxA > math.K_ZERO_TOLERANCE {
				dtB = deltaTimeInSeconds * (maxB / maxA)
			}
		} else {
			if maxB > math.K_ZERO_TOLERANCE {
				dtA = deltaTimeInSeconds * (maxA / maxB)
			}
		}
	}

	b.childA.Tick(dtA, alpha*(1-mix), applyDiscreteState && mix < 0.5)
	b.childB.Tick(dtB, alpha*mix, applyDiscreteState && mix >= 0.5)
}

func (b *BlendInstance) CurrentMaxTime() float32 {
	return math.Max(b.childA.CurrentMaxTime(), b.childB.CurrentMaxTime())
}

func (b *BlendInstance) AllDonePlaying() (done, looping bool) {
	aDone, aLooping := b.childA.AllDonePlaying()
	bDone, bLooping := b.childB.AllDonePlaying()
	return aDone && bDone, aLooping || bLooping
}

func (b *BlendInstance) IsInStateTransition() bool {
	return b.childA.IsInStateTransition() || b.childB.IsInStateTransition()
}

func (b *BlendInstance) TriggerTransition(name string) {
	b.childA.TriggerTransition(name)
	b.childB.TriggerTransition(name)
}

func (b *BlendInstance) TimeToEvent(name string, out *float32) bool {
	if b.childA.TimeToEvent(name, out) {
		return true
	}
	return b.childB.TimeToEvent(name, out)
}

func (b *BlendInstance) AppendViableTriggers(out *[]string) {
	b.childA.AppendViableTriggers(out)
	b.childB.AppendViableTriggers(out)
}
