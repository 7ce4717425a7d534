package sink

import (
	"fmt"
	"image/color"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/eventvision/internal/events"
	"github.com/banshee-data/eventvision/internal/events/render"
	"github.com/banshee-data/eventvision/internal/fsutil"
	"github.com/banshee-data/eventvision/internal/monitoring"
)

// DefaultPNGSize is the edge length of written images.
const DefaultPNGSize = 4 * vg.Inch

// PNGSink writes every frame as a grey heat map PNG named
// <Prefix>_<index>.png under Dir. It ignores the display hint.
type PNGSink struct {
	FS     fsutil.FileSystem
	Dir    string
	Prefix string
	Size   vg.Length

	prepared bool
	written  []string
}

// NewPNGSink writes into dir on fsys.
func NewPNGSink(fsys fsutil.FileSystem, dir, prefix string) *PNGSink {
	if prefix == "" {
		prefix = "frame"
	}
	return &PNGSink{FS: fsys, Dir: dir, Prefix: prefix, Size: DefaultPNGSize}
}

// Written lists the files created so far.
func (p *PNGSink) Written() []string {
	return append([]string(nil), p.written...)
}

// FileName returns the path a frame with the given index is written to.
func (p *PNGSink) FileName(index int) string {
	return filepath.Join(p.Dir, fmt.Sprintf("%s_%06d.png", p.Prefix, index))
}

func (p *PNGSink) Show(f render.Frame, _ time.Duration) (err error) {
	if !p.prepared {
		if err := p.FS.MkdirAll(p.Dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", events.ErrIO, err)
		}
		p.prepared = true
	}

	pl, err := framePlot(f)
	if err != nil {
		return err
	}
	size := p.Size
	if size == 0 {
		size = DefaultPNGSize
	}
	// Keep the sensor aspect ratio.
	height := size
	if f.Width > 0 {
		height = size * vg.Length(f.Height) / vg.Length(f.Width)
	}
	wt, err := pl.WriterTo(size, height, "png")
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", f.Index, err)
	}

	name := p.FileName(f.Index)
	out, err := p.FS.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %w", events.ErrIO, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", events.ErrIO, name, cerr)
		}
	}()
	if _, err := wt.WriteTo(out); err != nil {
		return fmt.Errorf("%w: write %s: %w", events.ErrIO, name, err)
	}
	p.written = append(p.written, name)
	monitoring.Debugf("sink: wrote %s", name)
	return nil
}

// framePlot builds an axis-free plot showing f as a heat map with row 0 at
// the top.
func framePlot(f render.Frame) (*plot.Plot, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("%w: frame %d has no pixels", events.ErrFormat, f.Index)
	}
	hm := plotter.NewHeatMap(frameGrid{f}, grayPalette())
	hm.Min = 0
	hm.Max = 255
	hm.Rasterized = true

	pl := plot.New()
	pl.HideAxes()
	pl.Add(hm)
	return pl, nil
}

// frameGrid adapts a Frame to plotter.GridXYZ. Grid rows grow upwards, so
// grid row r holds image row Height-1-r.
type frameGrid struct{ f render.Frame }

func (g frameGrid) Dims() (c, r int) { return g.f.Width, g.f.Height }
func (g frameGrid) X(c int) float64  { return float64(c) }
func (g frameGrid) Y(r int) float64  { return float64(r) }
func (g frameGrid) Z(c, r int) float64 {
	return float64(g.f.At(c, g.f.Height-1-r))
}

type grayColors []color.Color

func (p grayColors) Colors() []color.Color { return p }

func grayPalette() palette.Palette {
	p := make(grayColors, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}
