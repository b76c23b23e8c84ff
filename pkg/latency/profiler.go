package latency

import (
	"time"
)

// Observer receives measured durations.
type Observer interface {
	Observe(label string, d time.Duration)
}

type ObserverFunc func(label string, d time.Duration)

func (f ObserverFunc) Observe(label string, d time.Duration) { f(label, d) }

type Profiler struct {
	start time.Time
	label string
	obs   Observer
}

// Start begins timing label. obs may be nil.
func Start(label string, obs Observer) Profiler {
	return Profiler{start: time.Now(), label: label, obs: obs}
}

// Stop reports the elapsed time to the observer and returns it.
func (p Profiler) Stop() time.Duration {
	elapsed := time.Since(p.start)
	if p.obs != nil {
		p.obs.Observe(p.label, elapsed)
	}
	return elapsed
}
