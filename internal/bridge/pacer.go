package bridge

import "time"

// Pacer controls the deliberate pauses between visual updates so spectators
// can follow the discussion. Tests use NopPacer.
type Pacer interface {
	Pause(d time.Duration)
}

// NopPacer skips all pauses.
type NopPacer struct{}

func (NopPacer) Pause(time.Duration) {}

// DelayPacer sleeps for the requested duration, scaled by a factor so
// operators can speed up or slow down the whole discussion.
type DelayPacer struct {
	Scale float64
}

func (p DelayPacer) Pause(d time.Duration) {
	scale := p.Scale
	if scale <= 0 {
		scale = 1
	}
	time.Sleep(time.Duration(float64(d) * scale))
}
