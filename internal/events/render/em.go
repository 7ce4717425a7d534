package render

import (
	"iter"

	"github.com/banshee-data/eventvision/internal/config"
	"github.com/banshee-data/eventvision/internal/events"
	"github.com/banshee-data/eventvision/internal/monitoring"
)

// emCell is the per-pixel exposure state. A pixel is exposing between an
// OFF event (which records low) and the next ON event (which records the
// exposure time in high). high survives across windows until replaced.
type emCell struct {
	valid bool
	low   uint64
	high  uint64
}

// EMRenderer reconstructs grey levels from OFF->ON exposure times. Shorter
// exposures are brighter. Every window is emitted, including empty ones.
type EMRenderer struct {
	FrameLengthUs uint64
	MinVal        float64 // exposure in us mapped to 255
	MaxVal        float64 // exposure in us mapped to 0
}

// NewEMRenderer builds an EMRenderer from cfg; nil means defaults.
func NewEMRenderer(cfg *config.Config) *EMRenderer {
	if cfg == nil {
		cfg = config.EmptyConfig()
	}
	return &EMRenderer{
		FrameLengthUs: cfg.GetFrameLengthUs(),
		MinVal:        cfg.GetEMMinVal(),
		MaxVal:        cfg.GetEMMaxVal(),
	}
}

// Intensity maps an exposure time to a pixel value:
// clamp(255 * (1 - (high-min)/(max-min)), 0, 255), truncated.
func (r *EMRenderer) Intensity(high uint64) uint8 {
	v := 255 * (1 - (float64(high)-r.MinVal)/(r.MaxVal-r.MinVal))
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// Frames returns the EM frames of s. Exposure state carries over from one
// window to the next; only event intake is windowed.
func (r *EMRenderer) Frames(s *events.Stream) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		width, height := int(s.Width()), int(s.Height())
		cells := make([]emCell, width*height)
		skipped := 0
		defer func() {
			if skipped > 0 {
				monitoring.Debugf("render: em skipped %d events outside %dx%d", skipped, width, height)
			}
		}()

		for w := range windows(s, r.FrameLengthUs, false) {
			applied := 0
			for _, idx := range w.members {
				ev := s.At(idx)
				if !s.Contains(ev.X, ev.Y) {
					skipped++
					continue
				}
				c := &cells[int(ev.Y)*width+int(ev.X)]
				switch {
				case ev.Polarity == events.Off:
					c.valid = true
					c.low = ev.Timestamp
				case c.valid:
					c.valid = false
					c.high = 0
					if ev.Timestamp > c.low {
						c.high = ev.Timestamp - c.low
					}
				}
				applied++
			}

			f := Frame{
				Index:  int(w.index),
				Start:  w.start,
				End:    w.end,
				Events: applied,
				Width:  width,
				Height: height,
				Pixels: make([]uint8, width*height),
			}
			for i := range cells {
				f.Pixels[i] = r.Intensity(cells[i].high)
			}
			if !yield(f) {
				return
			}
		}
	}
}
