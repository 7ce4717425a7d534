package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/eventvision/internal/events"
)

func ev(x, y uint16, p events.Polarity, ts uint64) events.Event {
	return events.Event{X: x, Y: y, Polarity: p, Timestamp: ts}
}

func TestSortByTimestamp_StableTies(t *testing.T) {
	t.Parallel()

	in := events.NewStream([]events.Event{
		ev(1, 0, events.On, 30),
		ev(2, 0, events.On, 10),
		ev(3, 0, events.Off, 30),
		ev(4, 0, events.On, 10),
		ev(5, 0, events.Off, 20),
	}, 34, 34)
	before := in.Events()

	out := SortByTimestamp(in)

	var xs []uint16
	for _, e := range out.Events() {
		xs = append(xs, e.X)
	}
	assert.Equal(t, []uint16{2, 4, 5, 1, 3}, xs)
	assert.True(t, IsSorted(out))
	assert.Equal(t, uint32(34), out.Width())

	if diff := cmp.Diff(before, in.Events()); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestSortByTimestamp_Empty(t *testing.T) {
	t.Parallel()

	out := SortByTimestamp(events.NewStream(nil, 2, 3))
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, uint32(2), out.Width())
	assert.Equal(t, uint32(3), out.Height())
	assert.True(t, IsSorted(out))
}

func TestIsSorted(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSorted(events.NewStream([]events.Event{ev(0, 0, events.On, 1), ev(0, 0, events.On, 1)}, 1, 1)))
	assert.False(t, IsSorted(events.NewStream([]events.Event{ev(0, 0, events.On, 2), ev(0, 0, events.On, 1)}, 1, 1)))
}

func TestExtractROI(t *testing.T) {
	t.Parallel()

	in := events.NewStream([]events.Event{
		ev(4, 4, events.On, 1),   // outside: left of box
		ev(5, 5, events.On, 2),   // top-left corner, kept
		ev(14, 9, events.Off, 3), // bottom-right pixel, kept
		ev(15, 9, events.On, 4),  // x == max, excluded
		ev(10, 10, events.On, 5), // y == max, excluded
	}, 34, 34)

	t.Run("pass through", func(t *testing.T) {
		out := ExtractROI(in, events.Point{X: 5, Y: 5}, events.Point{X: 10, Y: 5}, false)
		want := []events.Event{ev(5, 5, events.On, 2), ev(14, 9, events.Off, 3)}
		if diff := cmp.Diff(want, out.Events()); diff != "" {
			t.Errorf("roi mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, uint32(34), out.Width(), "dims are not shrunk without normalize")
		assert.Equal(t, uint32(34), out.Height())
	})

	t.Run("normalize", func(t *testing.T) {
		out := ExtractROI(in, events.Point{X: 5, Y: 5}, events.Point{X: 10, Y: 5}, true)
		want := []events.Event{ev(0, 0, events.On, 2), ev(9, 4, events.Off, 3)}
		if diff := cmp.Diff(want, out.Events()); diff != "" {
			t.Errorf("roi mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, uint32(10), out.Width())
		assert.Equal(t, uint32(5), out.Height())
		for _, e := range out.Events() {
			assert.True(t, out.Contains(e.X, e.Y))
		}
	})

	t.Run("input untouched", func(t *testing.T) {
		_ = ExtractROI(in, events.Point{X: 5, Y: 5}, events.Point{X: 10, Y: 5}, true)
		assert.Equal(t, uint16(5), in.At(1).X)
		assert.Equal(t, uint32(34), in.Width())
	})
}

func TestExtractROI_PermissiveClip(t *testing.T) {
	t.Parallel()

	in := events.NewStream([]events.Event{
		ev(0, 0, events.On, 1),
		ev(2, 1, events.On, 2),
		ev(33, 33, events.Off, 3),
	}, 34, 34)

	t.Run("negative origin", func(t *testing.T) {
		out := ExtractROI(in, events.Point{X: -2, Y: -2}, events.Point{X: 5, Y: 4}, true)
		want := []events.Event{ev(2, 2, events.On, 1), ev(4, 3, events.On, 2)}
		if diff := cmp.Diff(want, out.Events()); diff != "" {
			t.Errorf("roi mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("box past the frame", func(t *testing.T) {
		out := ExtractROI(in, events.Point{X: 30, Y: 30}, events.Point{X: 100, Y: 100}, false)
		require.Equal(t, 1, out.Len())
		assert.Equal(t, uint16(33), out.At(0).X)
	})

	t.Run("box entirely outside", func(t *testing.T) {
		out := ExtractROI(in, events.Point{X: 100, Y: 100}, events.Point{X: 5, Y: 5}, true)
		assert.Equal(t, 0, out.Len())
		assert.Equal(t, uint32(5), out.Width())
	})

	t.Run("non-positive size", func(t *testing.T) {
		out := ExtractROI(in, events.Point{X: 0, Y: 0}, events.Point{X: -3, Y: 0}, true)
		assert.Equal(t, 0, out.Len())
		assert.Equal(t, uint32(0), out.Width())
	})
}

func TestExtractROI_NormalizeBeyond16Bits(t *testing.T) {
	t.Parallel()

	in := events.NewStream([]events.Event{
		ev(65535, 0, events.On, 1),
		ev(10, 0, events.Off, 2),
	}, 65536, 1)

	out := ExtractROI(in, events.Point{X: -100, Y: 0}, events.Point{X: 70000, Y: 1}, true)

	// 65535+100 has no 16-bit address; it must not wrap onto x=99.
	want := []events.Event{ev(110, 0, events.Off, 2)}
	if diff := cmp.Diff(want, out.Events()); diff != "" {
		t.Errorf("roi mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint32(65536), out.Width())
	assert.Equal(t, uint32(1), out.Height())

	raw := ExtractROI(in, events.Point{X: -100, Y: 0}, events.Point{X: 70000, Y: 1}, false)
	assert.Equal(t, 2, raw.Len(), "pass-through keeps both events")
}

func TestApplyRefractory(t *testing.T) {
	t.Parallel()

	in := events.NewStream([]events.Event{
		ev(1, 1, events.On, 0),    // first at pixel: kept
		ev(1, 1, events.Off, 50),  // 50 < 100: dropped
		ev(2, 2, events.On, 60),   // other pixel: kept
		ev(1, 1, events.On, 100),  // exactly window: kept
		ev(1, 1, events.Off, 150), // 50 since last kept: dropped
		ev(1, 1, events.Off, 199), // 99: dropped
		ev(1, 1, events.On, 200),  // 100: kept
	}, 34, 34)

	out := ApplyRefractory(in, 100)
	want := []events.Event{
		ev(1, 1, events.On, 0),
		ev(2, 2, events.On, 60),
		ev(1, 1, events.On, 100),
		ev(1, 1, events.On, 200),
	}
	if diff := cmp.Diff(want, out.Events()); diff != "" {
		t.Errorf("refractory mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 7, in.Len(), "input must not be filtered in place")
}

func TestApplyRefractory_ZeroWindowKeepsForwardEvents(t *testing.T) {
	t.Parallel()

	in := events.NewStream([]events.Event{
		ev(0, 0, events.On, 5),
		ev(0, 0, events.On, 5),
		ev(0, 0, events.On, 6),
	}, 1, 1)
	assert.Equal(t, 3, ApplyRefractory(in, 0).Len())
}

func TestApplyRefractory_OrderGiven(t *testing.T) {
	t.Parallel()

	// Unsorted input: the later-in-stream but earlier-in-time event is
	// measured against the last kept event and rejected.
	in := events.NewStream([]events.Event{
		ev(3, 3, events.On, 1000),
		ev(3, 3, events.On, 10),
	}, 34, 34)
	out := ApplyRefractory(in, 100)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, uint64(1000), out.At(0).Timestamp)

	// Sorting first gives the causal result.
	out = ApplyRefractory(SortByTimestamp(in), 100)
	assert.Equal(t, 2, out.Len())
}

func TestApplyRefractory_EventsOutsideDeclaredBounds(t *testing.T) {
	t.Parallel()

	in := events.NewStream([]events.Event{
		ev(40, 50, events.On, 0),
		ev(40, 50, events.On, 10),
	}, 34, 34)
	out := ApplyRefractory(in, 100)
	assert.Equal(t, 1, out.Len())
	assert.Equal(t, uint32(34), out.Width())
}

func TestApplyRefractory_FarCornerEvent(t *testing.T) {
	t.Parallel()

	in := events.NewStream([]events.Event{
		ev(65535, 65535, events.On, 0),
		ev(65535, 65535, events.Off, 10),
		ev(0, 0, events.On, 20),
		ev(65535, 65535, events.On, 200),
	}, 34, 34)
	out := ApplyRefractory(in, 100)
	want := []events.Event{
		ev(65535, 65535, events.On, 0),
		ev(0, 0, events.On, 20),
		ev(65535, 65535, events.On, 200),
	}
	if diff := cmp.Diff(want, out.Events()); diff != "" {
		t.Errorf("ApplyRefractory mismatch (-want +got):\n%s", diff)
	}
}
