package nmnist

import (
	"bytes"
	"fmt"
	"io"

	"github.com/banshee-data/eventvision/internal/events"
	"github.com/banshee-data/eventvision/internal/fsutil"
	"github.com/banshee-data/eventvision/internal/monitoring"
)

/*
N-MNIST / N-CALTECH101 Recording Format

Each recording is a flat byte sequence of fixed 5-byte records. There is no
header, footer or length prefix.

RECORD STRUCTURE (5 bytes):
├── byte 0: x address (0-255)
├── byte 1: y address (0-255); 240 marks a timestamp overflow record
├── byte 2: bit 7 polarity (1 = ON), bits 0-6 timestamp bits 22..16
├── byte 3: timestamp bits 15..8
└── byte 4: timestamp bits 7..0

The 23-bit timestamp counter wraps during long saccades. The recorder emits
an overflow record instead of an event whenever that happens; every event
after it is shifted by OVERFLOW_INCREMENT. Several overflow records stack.
The increment is 2^13, not 2^23: that is what the dataset tooling applies,
and the published recordings depend on it.
*/

const (
	RECORD_SIZE        = 5       // Bytes per record
	OVERFLOW_Y         = 240     // y address reserved for overflow records
	OVERFLOW_INCREMENT = 1 << 13 // Microseconds added per preceding overflow record
	POLARITY_MASK      = 0x80    // Polarity bit in byte 2
	TS_HIGH_MASK       = 0x7f    // Timestamp bits 22..16 in byte 2

	DefaultWidth  = 34 // N-MNIST sensor crop
	DefaultHeight = 34
)

// Options controls output sizing.
type Options struct {
	// Width and Height force the output frame bounds. Zero means size the
	// frame to the largest observed coordinate plus one. Explicit bounds must
	// contain every decoded event.
	Width  uint32
	Height uint32

	// EmptyWidth and EmptyHeight are used when nothing was decoded and no
	// explicit bounds were given. Zero means DefaultWidth/DefaultHeight.
	EmptyWidth  uint32
	EmptyHeight uint32
}

// Result carries decode diagnostics alongside the stream.
type Result struct {
	Stream    *events.Stream
	Records   int // records read, overflow records included
	Overflows int // overflow records seen
}

// Decoder decodes N-MNIST recordings with fixed options.
type Decoder struct {
	opts Options
}

// NewDecoder returns a Decoder using opts.
func NewDecoder(opts Options) *Decoder {
	return &Decoder{opts: opts}
}

// Decode decodes a complete recording held in memory.
func Decode(data []byte, opts Options) (*events.Stream, error) {
	res, err := NewDecoder(opts).Decode(data)
	if err != nil {
		return nil, err
	}
	return res.Stream, nil
}

// Decode decodes a complete recording held in memory.
func (d *Decoder) Decode(data []byte) (*Result, error) {
	if len(data)%RECORD_SIZE != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", events.ErrFormat, len(data), RECORD_SIZE)
	}

	records := len(data) / RECORD_SIZE
	evs := make([]events.Event, 0, records)

	var offset uint64
	var maxX, maxY uint16
	overflows := 0

	for i := 0; i < len(data); i += RECORD_SIZE {
		rec := data[i : i+RECORD_SIZE : i+RECORD_SIZE]
		if rec[1] == OVERFLOW_Y {
			overflows++
			offset += OVERFLOW_INCREMENT
			continue
		}

		ev := events.Event{
			X:        uint16(rec[0]),
			Y:        uint16(rec[1]),
			Polarity: events.Polarity(rec[2]&POLARITY_MASK != 0),
			Timestamp: (uint64(rec[2]&TS_HIGH_MASK)<<16 |
				uint64(rec[3])<<8 |
				uint64(rec[4])) + offset,
		}
		if ev.X > maxX {
			maxX = ev.X
		}
		if ev.Y > maxY {
			maxY = ev.Y
		}
		evs = append(evs, ev)
	}

	width, height, err := d.bounds(len(evs), maxX, maxY)
	if err != nil {
		return nil, err
	}

	monitoring.Debugf("nmnist: decoded %d events from %d records (%d overflows), frame %dx%d",
		len(evs), records, overflows, width, height)

	return &Result{
		Stream:    events.Wrap(evs, width, height),
		Records:   records,
		Overflows: overflows,
	}, nil
}

func (d *Decoder) bounds(n int, maxX, maxY uint16) (uint32, uint32, error) {
	if d.opts.Width != 0 || d.opts.Height != 0 {
		w, h := d.opts.Width, d.opts.Height
		if w == 0 {
			w = DefaultWidth
		}
		if h == 0 {
			h = DefaultHeight
		}
		if n > 0 && (uint32(maxX) >= w || uint32(maxY) >= h) {
			return 0, 0, fmt.Errorf("%w: event at (%d,%d) outside declared frame %dx%d",
				events.ErrFormat, maxX, maxY, w, h)
		}
		return w, h, nil
	}

	if n == 0 {
		w, h := d.opts.EmptyWidth, d.opts.EmptyHeight
		if w == 0 {
			w = DefaultWidth
		}
		if h == 0 {
			h = DefaultHeight
		}
		return w, h, nil
	}
	return uint32(maxX) + 1, uint32(maxY) + 1, nil
}

// DecodeReader reads r to EOF and decodes the result.
func (d *Decoder) DecodeReader(r io.Reader) (*Result, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: read recording: %w", events.ErrIO, err)
	}
	return d.Decode(buf.Bytes())
}

// ReadFile reads and decodes the recording at path.
func (d *Decoder) ReadFile(fsys fsutil.FileSystem, path string) (*Result, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", events.ErrIO, err)
	}
	res, err := d.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
