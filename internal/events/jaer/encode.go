// Package jaer writes event streams in the AER-DAT2.0 format read by the
// jAER viewer.
package jaer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/eventvision/internal/events"
	"github.com/banshee-data/eventvision/internal/fsutil"
	"github.com/banshee-data/eventvision/internal/monitoring"
	"github.com/banshee-data/eventvision/internal/timeutil"
)

// AER-DAT2.0 word layout. Addresses are packed against a DAVIS640 frame so
// that the full ATIS 304x240 address space fits.
const (
	VERSION_TAG = "#!AER-DAT2.0"
	LINE_END    = "\r\n"

	Y_SHIFT  = 22 + 32 // 10 bits
	X_SHIFT  = 12 + 32 // 10 bits
	P_SHIFT  = 11 + 32 // 1 bit
	TS_SHIFT = 0       // 43 bits

	MAX_TIMESTAMP = 1<<43 - 1
	MAX_REF_DIM   = 1 << 10 // x' and y' are 10 bits wide

	DefaultRefWidth  = 640
	DefaultRefHeight = 480
)

var fixedComments = []string{
	"This is a raw AE data file - do not edit",
	"Data format is int32 address, int32 timestamp (8 bytes total), repeated for each event",
	"Timestamps tick is 1 us",
}

const davisNote = "This file fakes the format of DAVIS640 to allow for the full ATIS address space to be used (304x240)"

// Encoder writes AER-DAT2.0 files.
type Encoder struct {
	// RefWidth and RefHeight define the reference frame the addresses are
	// flipped against. Zero means 640x480.
	RefWidth  uint32
	RefHeight uint32

	// Comments are extra free-form header lines, written without the
	// leading "# ".
	Comments []string

	// Creator names the producing program on the "created" line.
	Creator string

	// Clock stamps the "created" line. Nil means the wall clock.
	Clock timeutil.Clock
}

// NewEncoder returns an Encoder using the default 640x480 reference frame.
func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) refFrame() (uint32, uint32, error) {
	w, h := e.RefWidth, e.RefHeight
	if w == 0 {
		w = DefaultRefWidth
	}
	if h == 0 {
		h = DefaultRefHeight
	}
	return w, h, checkRefFrame(w, h)
}

func checkRefFrame(refW, refH uint32) error {
	if refW == 0 || refW > MAX_REF_DIM || refH == 0 || refH > MAX_REF_DIM {
		return fmt.Errorf("%w: reference frame %dx%d not in 1..%d per axis",
			events.ErrFormat, refW, refH, MAX_REF_DIM)
	}
	return nil
}

// Header returns the ASCII header Encode would write now.
func (e *Encoder) Header() (string, error) {
	var b strings.Builder
	b.WriteString(VERSION_TAG + LINE_END)
	for _, c := range fixedComments {
		b.WriteString("# " + c + LINE_END)
	}
	for _, c := range e.Comments {
		if strings.ContainsAny(c, "\r\n") {
			return "", fmt.Errorf("%w: header comment %q contains a line break", events.ErrFormat, c)
		}
		b.WriteString("# " + c + LINE_END)
	}

	clock := e.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	creator := e.Creator
	if creator == "" {
		creator = "eventvision"
	}
	if strings.ContainsAny(creator, "\r\n") {
		return "", fmt.Errorf("%w: creator %q contains a line break", events.ErrFormat, creator)
	}
	fmt.Fprintf(&b, "# created %s by %s%s", clock.Now().Format("02/01/2006 15:04:05"), creator, LINE_END)
	b.WriteString("# " + davisNote + LINE_END)
	return b.String(), nil
}

// Word packs ev into a single AER-DAT2.0 word against a refW x refH frame.
func Word(ev events.Event, refW, refH uint32) (uint64, error) {
	if err := checkRefFrame(refW, refH); err != nil {
		return 0, err
	}
	if uint32(ev.X) >= refW || uint32(ev.Y) >= refH {
		return 0, fmt.Errorf("%w: event at (%d,%d) outside %dx%d reference frame",
			events.ErrFormat, ev.X, ev.Y, refW, refH)
	}
	if ev.Timestamp > MAX_TIMESTAMP {
		return 0, fmt.Errorf("%w: timestamp %d exceeds 43 bits", events.ErrFormat, ev.Timestamp)
	}
	x := uint64(refW - 1 - uint32(ev.X))
	y := uint64(refH - 1 - uint32(ev.Y))
	p := uint64(1)
	if ev.Polarity {
		p = 2
	}
	return y<<Y_SHIFT | x<<X_SHIFT | p<<P_SHIFT | ev.Timestamp<<TS_SHIFT, nil
}

// Encode writes the header and one big-endian word per event to w. Every
// event is validated before anything is written, so a FormatError leaves w
// untouched.
func (e *Encoder) Encode(w io.Writer, s *events.Stream) error {
	header, err := e.Header()
	if err != nil {
		return err
	}

	refW, refH, err := e.refFrame()
	if err != nil {
		return err
	}
	words := make([]uint64, 0, s.Len())
	for _, ev := range s.All() {
		word, err := Word(ev, refW, refH)
		if err != nil {
			return err
		}
		words = append(words, word)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(header); err != nil {
		return fmt.Errorf("%w: write header: %w", events.ErrIO, err)
	}
	var buf [8]byte
	for _, word := range words {
		binary.BigEndian.PutUint64(buf[:], word)
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("%w: write events: %w", events.ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", events.ErrIO, err)
	}
	return nil
}

// WriteFile encodes s into a new file at path.
func (e *Encoder) WriteFile(fsys fsutil.FileSystem, path string, s *events.Stream) (err error) {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", events.ErrIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", events.ErrIO, path, cerr)
		}
	}()

	if err := e.Encode(f, s); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	monitoring.Logf("Exported %d events to %s", s.Len(), path)
	return nil
}
