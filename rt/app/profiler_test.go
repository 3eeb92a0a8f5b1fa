package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Unix(1000, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestProfilerScopes(t *testing.T) {
	p := NewProfiler()
	p.now = fakeClock(2 * time.Millisecond)

	p.Begin("frame")
	p.End("frame")
	p.Begin("reload")
	p.End("reload")
	p.Begin("frame")
	p.End("frame")

	assert.Equal(t, 2*time.Millisecond, p.Last("frame"))
	assert.Equal(t, 2*time.Millisecond, p.Average("frame"))
	assert.Equal(t, []string{"frame", "reload"}, p.order)
	assert.Zero(t, p.Last("missing"))
	assert.Zero(t, p.Average("missing"))
}

func TestProfilerEndWithoutBegin(t *testing.T) {
	p := NewProfiler()
	p.End("frame")
	assert.Empty(t, p.Summary())

	p.now = fakeClock(time.Millisecond)
	p.Begin("frame")
	p.End("frame")
	p.End("frame")
	assert.Equal(t, time.Millisecond, p.Average("frame"))
}

func TestProfilerSummary(t *testing.T) {
	p := NewProfiler()
	p.now = fakeClock(1500 * time.Microsecond)
	p.Begin("frame")
	p.End("frame")
	assert.Contains(t, p.Summary(), "frame")
	assert.Contains(t, p.Summary(), "1.50 ms")
}
