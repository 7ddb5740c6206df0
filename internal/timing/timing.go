package timing

import (
	"sync"
	"time"
)

// Phase is the recorded duration of one named pipeline phase.
type Phase struct {
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
}

// Stopwatch records phase durations in the order they finish.
type Stopwatch struct {
	mu     sync.Mutex
	start  time.Time
	phases []Phase
	now    func() time.Time
}

func NewStopwatch() *Stopwatch {
	return newStopwatch(time.Now)
}

func newStopwatch(now func() time.Time) *Stopwatch {
	return &Stopwatch{start: now(), now: now}
}

// Track starts a phase and returns the function that ends it.
//
//	done := sw.Track("extract")
//	defer done()
func (s *Stopwatch) Track(name string) func() {
	began := s.now()
	return func() {
		elapsed := s.now().Sub(began)
		s.mu.Lock()
		s.phases = append(s.phases, Phase{Name: name, Seconds: round(elapsed.Seconds())})
		s.mu.Unlock()
	}
}

func (s *Stopwatch) Phases() []Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Phase, len(s.phases))
	copy(out, s.phases)
	return out
}

// Total returns the seconds since the stopwatch was created.
func (s *Stopwatch) Total() float64 {
	return round(s.now().Sub(s.start).Seconds())
}

func round(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
