package events

// denseCellLimit is the largest dense arena built regardless of event count.
// 256x256 covers every decoded ATIS recording.
const denseCellLimit = 1 << 16

// PixelState holds per-pixel working state for one pass over a stream. It is
// a dense slice indexed y*w+x while the stream's extent is small or well
// populated, and a map keyed by address otherwise, so a few events at far
// coordinates do not allocate a 65536x65536 arena.
type PixelState[T any] struct {
	width  uint32
	dense  []T
	sparse map[uint32]*T
}

// NewPixelState sizes per-pixel state for s.
func NewPixelState[T any](s *Stream) *PixelState[T] {
	w, h := s.Extent()
	cells := uint64(w) * uint64(h)
	if cells <= denseCellLimit || cells <= 4*uint64(s.Len()) {
		return &PixelState[T]{width: w, dense: make([]T, cells)}
	}
	return &PixelState[T]{width: w, sparse: make(map[uint32]*T, s.Len())}
}

// At returns the state of pixel (x, y), creating it zeroed on first use.
func (p *PixelState[T]) At(x, y uint16) *T {
	if p.sparse == nil {
		return &p.dense[int(y)*int(p.width)+int(x)]
	}
	key := uint32(y)<<16 | uint32(x)
	c, ok := p.sparse[key]
	if !ok {
		c = new(T)
		p.sparse[key] = c
	}
	return c
}

// Sparse reports whether the map representation is in use.
func (p *PixelState[T]) Sparse() bool {
	return p.sparse != nil
}
