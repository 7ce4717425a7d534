package render

import (
	"iter"

	"github.com/banshee-data/eventvision/internal/config"
	"github.com/banshee-data/eventvision/internal/events"
	"github.com/banshee-data/eventvision/internal/monitoring"
)

// TD pixel values.
const (
	TDOff uint8 = 0
	TDOn  uint8 = 255
)

// TDRenderer shows the polarity of the last event at each pixel per window.
// Windows without events are skipped.
type TDRenderer struct {
	FrameLengthUs uint64
	Neutral       uint8 // value of pixels without an event
}

// NewTDRenderer builds a TDRenderer from cfg; nil means defaults.
func NewTDRenderer(cfg *config.Config) *TDRenderer {
	if cfg == nil {
		cfg = config.EmptyConfig()
	}
	return &TDRenderer{
		FrameLengthUs: cfg.GetFrameLengthUs(),
		Neutral:       cfg.GetTDNeutral(),
	}
}

// Frames returns the TD frames of s.
func (r *TDRenderer) Frames(s *events.Stream) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		width, height := int(s.Width()), int(s.Height())
		skipped := 0
		defer func() {
			if skipped > 0 {
				monitoring.Debugf("render: td skipped %d events outside %dx%d", skipped, width, height)
			}
		}()

		for w := range windows(s, r.FrameLengthUs, true) {
			f := Frame{
				Index:  int(w.index),
				Start:  w.start,
				End:    w.end,
				Width:  width,
				Height: height,
				Pixels: make([]uint8, width*height),
			}
			for i := range f.Pixels {
				f.Pixels[i] = r.Neutral
			}
			for _, idx := range w.members {
				ev := s.At(idx)
				if !s.Contains(ev.X, ev.Y) {
					skipped++
					continue
				}
				v := TDOff
				if ev.Polarity {
					v = TDOn
				}
				f.Pixels[int(ev.Y)*width+int(ev.X)] = v
				f.Events++
			}
			// Members may all lie outside the frame.
			if f.Events == 0 {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}
