// Package sink presents rendered frames. A Sink decides how and where a
// frame is shown; the renderer only hands over pixels and a minimum display
// time hint.
package sink

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/banshee-data/eventvision/internal/events/render"
	"github.com/banshee-data/eventvision/internal/monitoring"
	"github.com/banshee-data/eventvision/internal/timeutil"
)

// Sink shows frames. minDisplay is a hint; sinks that are not interactive
// may ignore it.
type Sink interface {
	Show(f render.Frame, minDisplay time.Duration) error
}

// Play pulls frames and hands each one to s in order. It stops at the first
// sink error or when ctx is cancelled and returns the number of frames
// shown.
func Play(ctx context.Context, frames iter.Seq[render.Frame], s Sink, minDisplay time.Duration) (int, error) {
	shown := 0
	for f := range frames {
		if err := ctx.Err(); err != nil {
			return shown, err
		}
		if err := s.Show(f, minDisplay); err != nil {
			return shown, fmt.Errorf("show frame %d: %w", f.Index, err)
		}
		shown++
		monitoring.Debugf("sink: shown %s", f)
	}
	return shown, nil
}

// MemorySink keeps every frame it is shown.
type MemorySink struct {
	mu     sync.Mutex
	frames []render.Frame
	hints  []time.Duration
}

// Show records f. The pixel buffer is copied.
func (m *MemorySink) Show(f render.Frame, minDisplay time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.Pixels = append([]uint8(nil), f.Pixels...)
	m.frames = append(m.frames, f)
	m.hints = append(m.hints, minDisplay)
	return nil
}

// Frames returns the recorded frames in the order shown.
func (m *MemorySink) Frames() []render.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]render.Frame(nil), m.frames...)
}

// Hints returns the display hints passed with each frame.
func (m *MemorySink) Hints() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.hints...)
}

// PacedSink forwards frames to Next and then holds each one on screen until
// at least minDisplay has passed since it was handed over.
type PacedSink struct {
	Next  Sink
	Clock timeutil.Clock
}

// NewPacedSink wraps next using the wall clock.
func NewPacedSink(next Sink) *PacedSink {
	return &PacedSink{Next: next, Clock: timeutil.RealClock{}}
}

func (p *PacedSink) Show(f render.Frame, minDisplay time.Duration) error {
	start := p.Clock.Now()
	if err := p.Next.Show(f, minDisplay); err != nil {
		return err
	}
	if remaining := minDisplay - p.Clock.Since(start); remaining > 0 {
		p.Clock.Sleep(remaining)
	}
	return nil
}
