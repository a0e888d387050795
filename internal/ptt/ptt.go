// Package ptt implements the push-to-talk transmit gate: a single relaxed
// atomic boolean shared by the key listener (writer) and the DSP engine
// (reader). The key listener itself — the global OS keyboard hook — is an
// external collaborator; this package exposes only the gate state and the
// key-edge entry points a caller wires a real hook library to.
package ptt

import "sync/atomic"

// Gate holds the global transmit state plus the {target_key, enabled}
// settings snapshot read on every key event.
type Gate struct {
	enabled      atomic.Bool
	targetKey    atomic.Value // string
	transmitting atomic.Bool

	// OnTransmitStart, if set, is invoked on the false->true edge of
	// is_transmitting — the "user indication" the spec calls for (e.g. a
	// mic-hot UI cue). Called from the key-event goroutine.
	OnTransmitStart func()
}

// New returns a Gate with PTT disabled, which per spec forces transmit on
// permanently until a caller enables PTT mode.
func New() *Gate {
	g := &Gate{}
	g.enabled.Store(false)
	g.transmitting.Store(true)
	g.targetKey.Store("")
	return g
}

// SetEnabled enables or disables PTT mode. Disabling forces transmit on
// permanently, matching the "ptt_enabled=false" configuration option.
// Enabling turns transmit off until the target key goes down.
func (g *Gate) SetEnabled(enabled bool) {
	wasEnabled := g.enabled.Swap(enabled)
	if !enabled {
		g.transmitting.Store(true)
	} else if !wasEnabled {
		g.transmitting.Store(false)
	}
}

// Enabled reports whether PTT mode is currently enabled.
func (g *Gate) Enabled() bool {
	return g.enabled.Load()
}

// SetTargetKey sets the key identifier whose press/release toggles
// transmit.
func (g *Gate) SetTargetKey(key string) {
	g.targetKey.Store(key)
}

// TargetKey returns the current target key identifier.
func (g *Gate) TargetKey() string {
	return g.targetKey.Load().(string)
}

// KeyEvent processes a single key event from the OS hook. key is the key
// identifier; down is true for key-down, false for key-up. Reads the
// current {target_key, enabled} snapshot per event, as the spec requires.
func (g *Gate) KeyEvent(key string, down bool) {
	if !g.enabled.Load() {
		g.transmitting.Store(true)
		return
	}
	if key != g.TargetKey() {
		return
	}
	if down {
		wasTransmitting := g.transmitting.Swap(true)
		if !wasTransmitting && g.OnTransmitStart != nil {
			g.OnTransmitStart()
		}
		return
	}
	g.transmitting.Store(false)
}

// IsTransmitting reports the current transmit gate state. Read by the DSP
// worker at frame granularity (10 ms); relaxed ordering is sufficient since
// gate decisions are per-frame, not per-sample.
func (g *Gate) IsTransmitting() bool {
	return g.transmitting.Load()
}
