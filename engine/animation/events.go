package animation

// EventInterface receives animation event callbacks fired while a tick
// advances playback across event keyframes. Implementations must not
// mutate the network instance from inside the callback; mutations made
// through the instance's public API during a tick are deferred until
// the tick completes.
type EventInterface interface {
	DispatchEvent(name string, intValue int32, floatValue float32, stringValue string)
}
