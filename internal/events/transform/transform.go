// Package transform implements the pure stream-to-stream operations:
// temporal sorting, region-of-interest extraction and per-pixel refractory
// filtering. Every function returns a new stream and leaves its input alone.
package transform

import (
	"cmp"
	"math"
	"slices"

	"github.com/banshee-data/eventvision/internal/events"
	"github.com/banshee-data/eventvision/internal/monitoring"
)

// SortByTimestamp returns the events ordered by ascending timestamp. Events
// with equal timestamps keep their input order, which matters when several
// recordings have been merged.
func SortByTimestamp(s *events.Stream) *events.Stream {
	evs := s.Events()
	slices.SortStableFunc(evs, func(a, b events.Event) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return events.Wrap(evs, s.Width(), s.Height())
}

// IsSorted reports whether timestamps never decrease in stream order.
func IsSorted(s *events.Stream) bool {
	var prev uint64
	for i, ev := range s.All() {
		if i > 0 && ev.Timestamp < prev {
			return false
		}
		prev = ev.Timestamp
	}
	return true
}

// ExtractROI keeps the events inside the half-open box starting at topLeft
// with the given size. With normalize set the kept events are shifted so
// topLeft becomes the origin and the result is sized to the box; otherwise
// coordinates and frame bounds are passed through unchanged.
//
// Boxes that reach outside the sensor are not an error: the result is
// whatever falls inside the intersection, possibly nothing. When normalizing,
// events whose shifted coordinate does not fit in 16 bits are dropped and the
// frame bounds are capped at 65536.
func ExtractROI(s *events.Stream, topLeft, size events.Point, normalize bool) *events.Stream {
	minX, minY := topLeft.X, topLeft.Y
	maxX, maxY := minX+size.X, minY+size.Y

	var kept []events.Event
	for _, ev := range s.All() {
		x, y := int(ev.X), int(ev.Y)
		if x < minX || x >= maxX || y < minY || y >= maxY {
			continue
		}
		if normalize {
			if x-minX > math.MaxUint16 || y-minY > math.MaxUint16 {
				continue
			}
			ev.X = uint16(x - minX)
			ev.Y = uint16(y - minY)
		}
		kept = append(kept, ev)
	}

	monitoring.Debugf("transform: roi %+v size %+v kept %d/%d events", topLeft, size, len(kept), s.Len())

	if !normalize {
		return events.Wrap(kept, s.Width(), s.Height())
	}
	return events.Wrap(kept, clampDim(size.X), clampDim(size.Y))
}

// clampDim maps a box size to a frame bound: negative sizes are empty and
// nothing beyond the 16-bit address space is representable.
func clampDim(v int) uint32 {
	return uint32(min(max(v, 0), math.MaxUint16+1))
}

// refractoryCell is the per-pixel clock used by ApplyRefractory.
type refractoryCell struct {
	seen bool
	last uint64
}

// ApplyRefractory drops every event that follows the previously kept event
// at the same pixel by less than window microseconds. The stream is scanned
// once in the order given, so callers wanting causal filtering sort first.
// The first event at a pixel is always kept; polarity plays no part.
//
// An event older than the last kept event at its pixel is dropped: the gap
// is negative and therefore below any window.
func ApplyRefractory(s *events.Stream, window uint64) *events.Stream {
	grid := events.NewPixelState[refractoryCell](s)

	kept := make([]events.Event, 0, s.Len())
	for _, ev := range s.All() {
		cell := grid.At(ev.X, ev.Y)
		if cell.seen && (ev.Timestamp < cell.last || ev.Timestamp-cell.last < window) {
			continue
		}
		cell.seen = true
		cell.last = ev.Timestamp
		kept = append(kept, ev)
	}

	monitoring.Debugf("transform: refractory %dus kept %d/%d events", window, len(kept), s.Len())
	return events.Wrap(kept, s.Width(), s.Height())
}
