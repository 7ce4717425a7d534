// Package render turns a time-ordered event stream into dense raster frames.
//
// Two modalities are supported. TD frames show the polarity of the last
// event per pixel inside each time window; EM frames reconstruct grey levels
// from the time between an OFF event and the following ON event at each
// pixel. Both renderers return a lazy, finite sequence that restarts from
// scratch every time it is ranged over.
//
// Windowing: the first window starts at the smallest timestamp in the
// stream and covers [start, start+length). The next window starts one
// microsecond after the previous end, so an event stamped exactly at a
// window end is shown in no frame. Windows are produced while the start does
// not exceed the largest timestamp.
package render

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"github.com/banshee-data/eventvision/internal/config"
	"github.com/banshee-data/eventvision/internal/events"
)

// Frame is one rendered window. Pixels are row-major, index y*Width+x.
type Frame struct {
	Index  int    // window number counted from the first window
	Start  uint64 // first microsecond covered
	End    uint64 // first microsecond not covered
	Events int    // events applied in this window
	Width  int
	Height int
	Pixels []uint8
}

// At returns the pixel value at (x, y).
func (f Frame) At(x, y int) uint8 {
	return f.Pixels[y*f.Width+x]
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame#%d[%d,%d) %dx%d %d events", f.Index, f.Start, f.End, f.Width, f.Height, f.Events)
}

// Renderer produces frames from a stream.
type Renderer interface {
	Frames(s *events.Stream) iter.Seq[Frame]
}

// Mode selects a renderer.
type Mode string

const (
	ModeTD Mode = "td"
	ModeEM Mode = "em"
)

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeTD, ModeEM:
		return Mode(name), nil
	}
	return "", fmt.Errorf("unknown render mode %q (want td or em)", name)
}

// New builds the renderer for mode with parameters from cfg.
func New(mode Mode, cfg *config.Config) (Renderer, error) {
	switch mode {
	case ModeTD:
		return NewTDRenderer(cfg), nil
	case ModeEM:
		return NewEMRenderer(cfg), nil
	}
	return nil, fmt.Errorf("unknown render mode %q", mode)
}

// Collect materializes a frame sequence.
func Collect(seq iter.Seq[Frame]) []Frame {
	return slices.Collect(seq)
}

// window is one slice of the time axis together with the indices of the
// stream events that fall in it, in stream order.
type window struct {
	index   uint64
	start   uint64
	end     uint64
	members []int
}

type membership struct {
	window uint64
	event  int
}

// windows yields the time windows of s in order. With skipEmpty set, windows
// holding no events are passed over without being yielded.
func windows(s *events.Stream, length uint64, skipEmpty bool) iter.Seq[window] {
	return func(yield func(window) bool) {
		if s.Len() == 0 || length == 0 {
			return
		}
		first, _ := s.MinTimestamp()
		last, _ := s.MaxTimestamp()
		stride := length + 1

		// Bucket events by window. The stable sort keeps stream order inside
		// each window so last-writer-wins follows arrival order.
		members := make([]membership, 0, s.Len())
		for i, ev := range s.All() {
			off := ev.Timestamp - first
			if off%stride >= length {
				continue // in the gap after a window end
			}
			members = append(members, membership{window: off / stride, event: i})
		}
		slices.SortStableFunc(members, func(a, b membership) int {
			return cmp.Compare(a.window, b.window)
		})

		lastWindow := (last - first) / stride
		mi := 0
		for k := uint64(0); k <= lastWindow; k++ {
			if skipEmpty {
				if mi >= len(members) {
					return
				}
				k = members[mi].window
			}
			w := window{index: k, start: first + k*stride}
			w.end = w.start + length
			for mi < len(members) && members[mi].window == k {
				w.members = append(w.members, members[mi].event)
				mi++
			}
			if !yield(w) {
				return
			}
		}
	}
}
