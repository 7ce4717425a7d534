package events

import (
	"errors"
	"fmt"
	"iter"
)

// Error kinds shared by the codec packages. Callers match with errors.Is;
// the concrete error always wraps one of these with context.
var (
	// ErrFormat reports input bytes or a stream that cannot be represented in
	// the requested wire format.
	ErrFormat = errors.New("event format error")
	// ErrIO reports an open, read or write failure on the underlying file.
	ErrIO = errors.New("event io error")
)

// Polarity is the sign of a brightness change.
type Polarity bool

const (
	Off Polarity = false // brightness decrease
	On  Polarity = true  // brightness increase
)

func (p Polarity) String() string {
	if p {
		return "on"
	}
	return "off"
}

// Event is a single pixel-level change report.
type Event struct {
	X         uint16
	Y         uint16
	Polarity  Polarity
	Timestamp uint64 // microseconds
}

func (e Event) String() string {
	return fmt.Sprintf("(%d,%d %s @%dus)", e.X, e.Y, e.Polarity, e.Timestamp)
}

// Point is a signed pixel coordinate or extent. It is signed so that region
// origins left of or above the sensor can be expressed.
type Point struct {
	X int
	Y int
}

// Stream is an ordered, read-only snapshot of events plus the bounds of the
// sensor frame they belong to. Order is arrival order unless a transform
// reorders it. A Stream is never modified after construction: transforms
// return new streams.
type Stream struct {
	events []Event
	width  uint32
	height uint32
}

// NewStream copies evs into a new Stream with the given frame bounds.
// Bounds are not checked against the events.
func NewStream(evs []Event, width, height uint32) *Stream {
	cp := make([]Event, len(evs))
	copy(cp, evs)
	return &Stream{events: cp, width: width, height: height}
}

// Wrap adopts evs without copying. The caller must not retain or modify evs
// afterwards; it exists so transforms can hand over freshly built slices.
func Wrap(evs []Event, width, height uint32) *Stream {
	return &Stream{events: evs, width: width, height: height}
}

// Len returns the number of events.
func (s *Stream) Len() int {
	if s == nil {
		return 0
	}
	return len(s.events)
}

// At returns the i-th event in stream order.
func (s *Stream) At(i int) Event { return s.events[i] }

// Width returns the frame width in pixels.
func (s *Stream) Width() uint32 { return s.width }

// Height returns the frame height in pixels.
func (s *Stream) Height() uint32 { return s.height }

// Events returns a copy of the events in stream order.
func (s *Stream) Events() []Event {
	if s == nil {
		return nil
	}
	cp := make([]Event, len(s.events))
	copy(cp, s.events)
	return cp
}

// All iterates events in stream order with their index.
func (s *Stream) All() iter.Seq2[int, Event] {
	return func(yield func(int, Event) bool) {
		if s == nil {
			return
		}
		for i, ev := range s.events {
			if !yield(i, ev) {
				return
			}
		}
	}
}

// Contains reports whether (x, y) lies inside the declared frame bounds.
func (s *Stream) Contains(x, y uint16) bool {
	return uint32(x) < s.width && uint32(y) < s.height
}

// MinTimestamp returns the smallest timestamp and false if the stream is empty.
func (s *Stream) MinTimestamp() (uint64, bool) {
	if s.Len() == 0 {
		return 0, false
	}
	m := s.events[0].Timestamp
	for _, ev := range s.events[1:] {
		if ev.Timestamp < m {
			m = ev.Timestamp
		}
	}
	return m, true
}

// MaxTimestamp returns the largest timestamp and false if the stream is empty.
func (s *Stream) MaxTimestamp() (uint64, bool) {
	if s.Len() == 0 {
		return 0, false
	}
	m := s.events[0].Timestamp
	for _, ev := range s.events[1:] {
		if ev.Timestamp > m {
			m = ev.Timestamp
		}
	}
	return m, true
}

// Extent returns one past the largest x and y present, which is at least the
// declared bounds. Per-pixel state is sized with it (see PixelState) so that
// events outside the declared bounds never index out of range.
func (s *Stream) Extent() (w, h uint32) {
	w, h = s.width, s.height
	for _, ev := range s.events {
		if uint32(ev.X) >= w {
			w = uint32(ev.X) + 1
		}
		if uint32(ev.Y) >= h {
			h = uint32(ev.Y) + 1
		}
	}
	return w, h
}

func (s *Stream) String() string {
	return fmt.Sprintf("Stream{%d events, %dx%d}", s.Len(), s.width, s.height)
}
