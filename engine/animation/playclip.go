package animation

import (
	"fmt"

	"github.com/spaghettifunk/marionette/engine/math"
)

// PlayClipInstance advances one clip's playback clock. Looping wraps
// the clock and refires each pass's keyframes; a finished non-looping
// clip clamps at its end and fires its completion trigger once.
type PlayClipInstance struct {
	network     *NetworkInstance
	definition  *PlayClipDefinition
	clip        *ClipInstance
	currentTime float32
	completed   bool
}

func newPlayClipInstance(network *NetworkInstance, def *PlayClipDefinition) (*PlayClipInstance, error) {
	clip := network.data.Definition().GetClip(def.Name)
	if clip == nil {
		return nil, fmt.Errorf("unknown clip %q", def.Name)
	}
	return &PlayClipInstance{
		network:    network,
		definition: def,
		clip:       NewClipInstance(network.data, clip, network.clipSettings),
	}, nil
}

func (p *PlayClipInstance) Tick(deltaTimeInSeconds, alpha float32, applyDiscreteState bool) {
	prev := p.currentTime
	next := prev + deltaTimeInSeconds
	maxTime := p.clip.MaxTime()

	if p.definition.Loop {
		if maxTime <= math.K_ZERO_TOLERANCE {
			// A clip without duration pins its clock to the start.
			next = 0
		} else {
			for next > maxTime {
				if maxTime > prev {
					p.clip.EvaluateRange(prev, maxTime, alpha, p.network.events)
				}
				next -= maxTime
				prev = 0
			}
		}
	} else {
		next = math.Min(next, maxTime)
	}

	if next > prev {
		p.clip.EvaluateRange(prev, next, alpha, p.network.events)
	}
	p.clip.Evaluate(next, alpha, applyDiscreteState)
	p.currentTime = next

	if !p.definition.Loop && next >= maxTime && !p.completed {
		p.completed = true
		if p.definition.OnCompleteTrigger != "" {
			p.network.TriggerTransition(p.definition.OnCompleteTrigger)
		}
	}
}

func (p *PlayClipInstance) CurrentMaxTime() float32 {
	return p.clip.MaxTime()
}

// CurrentTime is the playback clock, in [0, MaxTime].
func (p *PlayClipInstance) CurrentTime() float32 {
	return p.currentTime
}

// AllDonePlaying: a looping clip never finishes but does not block
// done, which tracks one-shots only.
func (p *PlayClipInstance) AllDonePlaying() (done, looping bool) {
	if p.definition.Loop {
		return true, true
	}
	return p.completed, false
}

func (p *PlayClipInstance) IsInStateTransition() bool { return false }

func (p *PlayClipInstance) TriggerTransition(string) {}

func (p *PlayClipInstance) TimeToEvent(name string, out *float32) bool {
	return p.clip.NextEventTime(name, p.currentTime, p.definition.Loop, out)
}

func (p *PlayClipInstance) AppendViableTriggers(*[]string) {}
