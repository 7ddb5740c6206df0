package timing

import (
	"reflect"
	"testing"
	"time"
)

func TestStopwatchPhases(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	sw := newStopwatch(now)

	done := sw.Track("extract")
	clock = clock.Add(1500 * time.Millisecond)
	done()

	done = sw.Track("analytics")
	clock = clock.Add(250 * time.Millisecond)
	done()

	want := []Phase{{Name: "extract", Seconds: 1.5}, {Name: "analytics", Seconds: 0.25}}
	if got := sw.Phases(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Phases() = %v, want %v", got, want)
	}
	if got := sw.Total(); got != 1.75 {
		t.Fatalf("Total() = %v, want 1.75", got)
	}
}
