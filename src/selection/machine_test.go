package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleek/src/screenshot"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1000, 0)} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMachine(c *fakeClock) *Machine {
	return NewMachine(1920, 1080, WithClock(c.Now))
}

func pt(x, y int) screenshot.Point { return screenshot.Point{X: x, Y: y} }

func region(x, y, w, h int) screenshot.Region {
	return screenshot.Region{X: x, Y: y, Width: w, Height: h}
}

func TestThrottleInterval(t *testing.T) {
	th := NewThrottle(60, time.Time{})
	assert.Equal(t, time.Duration(8333333), th.Interval())

	assert.Equal(t, time.Duration(0), NewThrottle(0, time.Time{}).Interval())
}

func TestThrottleAllowsAtMostOneInsideInterval(t *testing.T) {
	start := time.Unix(0, 0)
	th := NewThrottle(60, start)

	first := start.Add(th.Interval() + time.Millisecond)
	require.True(t, th.Allow(first))
	th.Mark(first)

	second := first.Add(th.Interval() / 2)
	assert.False(t, th.Allow(second), "requests closer than the interval must collapse")

	third := first.Add(th.Interval() + time.Nanosecond)
	assert.True(t, th.Allow(third), "requests further apart must both pass")
}

func TestThrottleDoesNotSelfAdvance(t *testing.T) {
	start := time.Unix(0, 0)
	th := NewThrottle(60, start)
	now := start.Add(time.Second)

	assert.True(t, th.Allow(now))
	assert.True(t, th.Allow(now), "Allow alone must not move the gate")
}

func TestMachineStartsNotCreated(t *testing.T) {
	m := newTestMachine(newFakeClock())
	assert.Equal(t, NotCreated, m.State())
	assert.Equal(t, region(0, 0, 1920, 1080), m.Region())
}

func TestConfirmWithoutDragCapturesFullScreen(t *testing.T) {
	m := newTestMachine(newFakeClock())

	out := m.Handle(Key{Action: KeyConfirm})
	assert.Equal(t, Confirm, out.Action)
	assert.Equal(t, region(0, 0, 1920, 1080), out.Region)
}

func TestCancel(t *testing.T) {
	m := newTestMachine(newFakeClock())
	assert.Equal(t, Outcome{Action: Cancel}, m.Handle(Key{Action: KeyCancel}))

	m.Handle(Press{Pos: pt(1, 1), Button: PrimaryButton})
	assert.Equal(t, Cancel, m.Handle(Key{Action: KeyCancel}).Action)
}

func TestDragReleaseConfirm(t *testing.T) {
	c := newFakeClock()
	m := newTestMachine(c)

	assert.Equal(t, None, m.Handle(Press{Pos: pt(10, 10), Button: PrimaryButton}).Action)
	assert.Equal(t, Selecting, m.State())

	c.Advance(time.Second)
	out := m.Handle(Motion{Pos: pt(50, 40)})
	assert.Equal(t, Outcome{Action: Redraw, Region: region(10, 10, 40, 30)}, out)

	c.Advance(time.Second)
	out = m.Handle(Release{Pos: pt(110, 60), Button: PrimaryButton})
	assert.Equal(t, Outcome{Action: Redraw, Region: region(10, 10, 100, 50)}, out)
	assert.Equal(t, Selected, m.State())

	out = m.Handle(Key{Action: KeyConfirm})
	assert.Equal(t, Outcome{Action: Confirm, Region: region(10, 10, 100, 50)}, out)
}

func TestDragUpLeftNormalizes(t *testing.T) {
	m := newTestMachine(newFakeClock())
	m.Handle(Press{Pos: pt(110, 60), Button: PrimaryButton})
	m.Handle(Release{Pos: pt(10, 10), Button: PrimaryButton})
	assert.Equal(t, region(10, 10, 100, 50), m.Handle(Key{Action: KeyConfirm}).Region)
}

func TestMotionIgnoredUnlessSelecting(t *testing.T) {
	c := newFakeClock()
	m := newTestMachine(c)
	c.Advance(time.Second)
	assert.Equal(t, None, m.Handle(Motion{Pos: pt(5, 5)}).Action)

	m.Handle(Press{Pos: pt(0, 0), Button: PrimaryButton})
	m.Handle(Release{Pos: pt(20, 20), Button: PrimaryButton})
	c.Advance(time.Second)
	assert.Equal(t, None, m.Handle(Motion{Pos: pt(90, 90)}).Action)
	assert.Equal(t, region(0, 0, 20, 20), m.Region(), "motion after release must not move the selection")
}

func TestMotionToSamePositionIsNoop(t *testing.T) {
	c := newFakeClock()
	m := newTestMachine(c)
	m.Handle(Press{Pos: pt(3, 3), Button: PrimaryButton})
	c.Advance(time.Second)
	assert.Equal(t, None, m.Handle(Motion{Pos: pt(3, 3)}).Action)
}

func TestThrottledMotionStillRecordsCursor(t *testing.T) {
	c := newFakeClock()
	m := newTestMachine(c)
	m.Handle(Press{Pos: pt(0, 0), Button: PrimaryButton})

	c.Advance(time.Second)
	require.Equal(t, Redraw, m.Handle(Motion{Pos: pt(10, 10)}).Action)

	c.Advance(time.Millisecond)
	assert.Equal(t, None, m.Handle(Motion{Pos: pt(20, 20)}).Action, "inside interval")
	assert.Equal(t, region(0, 0, 20, 20), m.Region(), "throttled position must still be recorded")

	c.Advance(10 * time.Millisecond)
	out := m.Handle(Motion{Pos: pt(30, 25)})
	assert.Equal(t, Outcome{Action: Redraw, Region: region(0, 0, 30, 25)}, out)
}

func TestReleaseAlwaysRedraws(t *testing.T) {
	c := newFakeClock()
	m := newTestMachine(c)
	m.Handle(Press{Pos: pt(0, 0), Button: PrimaryButton})
	c.Advance(time.Second)
	require.Equal(t, Redraw, m.Handle(Motion{Pos: pt(10, 10)}).Action)

	// No time passes: the throttle would reject a motion redraw now.
	out := m.Handle(Release{Pos: pt(15, 12), Button: PrimaryButton})
	assert.Equal(t, Outcome{Action: Redraw, Region: region(0, 0, 15, 12)}, out)
}

func TestPressRestartsSelection(t *testing.T) {
	c := newFakeClock()
	m := newTestMachine(c)
	m.Handle(Press{Pos: pt(0, 0), Button: PrimaryButton})
	m.Handle(Release{Pos: pt(50, 50), Button: PrimaryButton})
	require.Equal(t, Selected, m.State())

	m.Handle(Press{Pos: pt(100, 100), Button: PrimaryButton})
	assert.Equal(t, Selecting, m.State())
	assert.Equal(t, region(100, 100, 0, 0), m.Region())
}

func TestNonPrimaryButtonsIgnored(t *testing.T) {
	m := newTestMachine(newFakeClock())
	assert.Equal(t, None, m.Handle(Press{Pos: pt(1, 1), Button: 3}).Action)
	assert.Equal(t, NotCreated, m.State())

	m.Handle(Press{Pos: pt(1, 1), Button: PrimaryButton})
	assert.Equal(t, None, m.Handle(Release{Pos: pt(9, 9), Button: 2}).Action)
	assert.Equal(t, Selecting, m.State())
}

func TestReleaseWithoutPressAnchorsAtOrigin(t *testing.T) {
	m := newTestMachine(newFakeClock())

	out := m.Handle(Release{Pos: pt(300, 200), Button: PrimaryButton})
	assert.Equal(t, Outcome{Action: Redraw, Region: region(0, 0, 300, 200)}, out)
	assert.Equal(t, Selected, m.State())

	out = m.Handle(Key{Action: KeyConfirm})
	assert.Equal(t, Outcome{Action: Confirm, Region: region(0, 0, 300, 200)}, out)
}

func TestReleaseDoesNotMoveThrottle(t *testing.T) {
	c := newFakeClock()
	m := newTestMachine(c)
	m.Handle(Press{Pos: pt(0, 0), Button: PrimaryButton})
	c.Advance(time.Second)
	require.Equal(t, Redraw, m.Handle(Motion{Pos: pt(10, 10)}).Action)

	c.Advance(time.Millisecond)
	require.Equal(t, Redraw, m.Handle(Release{Pos: pt(12, 12), Button: PrimaryButton}).Action)

	// 9ms after the last motion redraw but only 8ms after the release.
	m.Handle(Press{Pos: pt(0, 0), Button: PrimaryButton})
	c.Advance(8 * time.Millisecond)
	assert.Equal(t, Redraw, m.Handle(Motion{Pos: pt(20, 20)}).Action)
}

func TestClickWithoutDragGivesZeroRegion(t *testing.T) {
	m := newTestMachine(newFakeClock())
	m.Handle(Press{Pos: pt(7, 8), Button: PrimaryButton})
	m.Handle(Release{Pos: pt(7, 8), Button: PrimaryButton})
	out := m.Handle(Key{Action: KeyConfirm})
	assert.Equal(t, Outcome{Action: Confirm, Region: region(7, 8, 0, 0)}, out)
}

func TestOtherKeysIgnored(t *testing.T) {
	m := newTestMachine(newFakeClock())
	assert.Equal(t, None, m.Handle(Key{Action: KeyOther}).Action)
	assert.Equal(t, None, m.Handle(nil).Action)
}

func TestWithRefreshRate(t *testing.T) {
	c := newFakeClock()
	m := NewMachine(100, 100, WithRefreshRate(1), WithClock(c.Now))
	m.Handle(Press{Pos: pt(0, 0), Button: PrimaryButton})

	c.Advance(400 * time.Millisecond)
	assert.Equal(t, None, m.Handle(Motion{Pos: pt(1, 1)}).Action)
	c.Advance(200 * time.Millisecond)
	assert.Equal(t, Redraw, m.Handle(Motion{Pos: pt(2, 2)}).Action)
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "selecting", Selecting.String())
	assert.Equal(t, "confirm", Confirm.String())
}
