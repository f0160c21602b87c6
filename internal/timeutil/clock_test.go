package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_NowAndSince(t *testing.T) {
	t.Parallel()
	var c Clock = RealClock{}
	start := c.Now()
	c.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, c.Since(start), time.Millisecond)
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	t.Parallel()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(5 * time.Second)
	assert.Equal(t, 5*time.Second, c.Since(start))

	later := start.Add(time.Hour)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestMockClock_SleepRecordsAndAdvances(t *testing.T) {
	t.Parallel()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	c.Sleep(10 * time.Millisecond)
	c.Sleep(0)
	c.Sleep(-time.Millisecond)

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 0, -time.Millisecond}, c.Sleeps())
	assert.Equal(t, 10*time.Millisecond, c.Since(start))

	// Returned slice is a copy.
	got := c.Sleeps()
	got[0] = time.Hour
	assert.Equal(t, 10*time.Millisecond, c.Sleeps()[0])
}
