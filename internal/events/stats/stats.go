// Package stats summarizes event streams: polarity balance, activity over
// time and pixel coverage. Summaries feed the CLI, the recording catalogue
// and an HTML activity report.
package stats

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/eventvision/internal/events"
)

// Summary describes one stream.
type Summary struct {
	Width, Height uint32

	Events int
	On     int
	Off    int

	First      uint64 // smallest timestamp, us
	Last       uint64 // largest timestamp, us
	DurationUs uint64

	// WindowUs is the bin width used for WindowCounts. Bins are contiguous
	// and start at First.
	WindowUs        uint64
	WindowCounts    []int
	MeanPerWindow   float64
	StdDevPerWindow float64

	ActivePixels int // pixels with at least one event
}

// Duration returns the recording span as a time.Duration.
func (s Summary) Duration() time.Duration {
	return time.Duration(s.DurationUs) * time.Microsecond
}

// EventRate returns events per second over the recording span, or 0 for
// streams without a span.
func (s Summary) EventRate() float64 {
	if s.DurationUs == 0 {
		return 0
	}
	return float64(s.Events) / (float64(s.DurationUs) / 1e6)
}

func (s Summary) String() string {
	return fmt.Sprintf("%dx%d, %d events (%d on / %d off) over %s, %d active pixels",
		s.Width, s.Height, s.Events, s.On, s.Off, s.Duration(), s.ActivePixels)
}

// Summarize computes the summary of st. windowUs of 0 skips the per-window
// counts.
func Summarize(st *events.Stream, windowUs uint64) Summary {
	sum := Summary{
		Width:    st.Width(),
		Height:   st.Height(),
		Events:   st.Len(),
		WindowUs: windowUs,
	}
	if st.Len() == 0 {
		return sum
	}
	sum.First, _ = st.MinTimestamp()
	sum.Last, _ = st.MaxTimestamp()
	sum.DurationUs = sum.Last - sum.First

	seen := events.NewPixelState[bool](st)
	for _, ev := range st.All() {
		if ev.Polarity == events.On {
			sum.On++
		} else {
			sum.Off++
		}
		if p := seen.At(ev.X, ev.Y); !*p {
			*p = true
			sum.ActivePixels++
		}
	}

	if windowUs > 0 {
		sum.WindowCounts = make([]int, sum.DurationUs/windowUs+1)
		for _, ev := range st.All() {
			sum.WindowCounts[(ev.Timestamp-sum.First)/windowUs]++
		}
		counts := make([]float64, len(sum.WindowCounts))
		for i, c := range sum.WindowCounts {
			counts[i] = float64(c)
		}
		if len(counts) > 1 {
			sum.MeanPerWindow, sum.StdDevPerWindow = stat.MeanStdDev(counts, nil)
		} else {
			sum.MeanPerWindow = counts[0]
		}
	}
	return sum
}
