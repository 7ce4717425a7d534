package events

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStream_CopiesInput(t *testing.T) {
	t.Parallel()

	in := []Event{{X: 1, Y: 2, Polarity: On, Timestamp: 10}}
	s := NewStream(in, 34, 34)
	in[0].X = 9

	require.Equal(t, 1, s.Len())
	assert.Equal(t, uint16(1), s.At(0).X)

	out := s.Events()
	out[0].Y = 33
	assert.Equal(t, uint16(2), s.At(0).Y, "Events must return a copy")
}

func TestStream_Timestamps(t *testing.T) {
	t.Parallel()

	t.Run("empty stream", func(t *testing.T) {
		t.Parallel()
		s := NewStream(nil, 34, 34)
		_, ok := s.MinTimestamp()
		assert.False(t, ok)
		_, ok = s.MaxTimestamp()
		assert.False(t, ok)
	})

	t.Run("unordered stream", func(t *testing.T) {
		t.Parallel()
		s := NewStream([]Event{{Timestamp: 40}, {Timestamp: 5}, {Timestamp: 90}, {Timestamp: 7}}, 1, 1)
		lo, ok := s.MinTimestamp()
		require.True(t, ok)
		hi, _ := s.MaxTimestamp()
		assert.Equal(t, uint64(5), lo)
		assert.Equal(t, uint64(90), hi)
	})
}

func TestStream_ContainsAndExtent(t *testing.T) {
	t.Parallel()

	s := NewStream([]Event{{X: 3, Y: 1}, {X: 40, Y: 2}}, 34, 34)
	assert.True(t, s.Contains(33, 33))
	assert.False(t, s.Contains(34, 0))

	w, h := s.Extent()
	assert.Equal(t, uint32(41), w)
	assert.Equal(t, uint32(34), h)
}

func TestStream_AllStopsEarly(t *testing.T) {
	t.Parallel()

	s := NewStream([]Event{{Timestamp: 1}, {Timestamp: 2}, {Timestamp: 3}}, 1, 1)
	var seen []uint64
	for i, ev := range s.All() {
		seen = append(seen, ev.Timestamp)
		if i == 1 {
			break
		}
	}
	assert.Equal(t, []uint64{1, 2}, seen)
}

func TestNilStream(t *testing.T) {
	t.Parallel()

	var s *Stream
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Events())
	for range s.All() {
		t.Fatal("nil stream yielded an event")
	}
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("%w: length 7 is not a multiple of 5", ErrFormat)
	assert.True(t, errors.Is(err, ErrFormat))
	assert.False(t, errors.Is(err, ErrIO))
}

func TestPolarityString(t *testing.T) {
	assert.Equal(t, "on", On.String())
	assert.Equal(t, "off", Off.String())
	assert.Equal(t, "(1,2 on @5us)", Event{X: 1, Y: 2, Polarity: On, Timestamp: 5}.String())
}

func TestPixelState(t *testing.T) {
	t.Parallel()

	t.Run("dense for small frames", func(t *testing.T) {
		s := NewStream([]Event{{X: 3, Y: 1}}, 34, 34)
		p := NewPixelState[int](s)
		assert.False(t, p.Sparse())
		*p.At(3, 1) += 2
		*p.At(3, 1)++
		assert.Equal(t, 3, *p.At(3, 1))
		assert.Zero(t, *p.At(1, 3))
	})

	t.Run("sparse for far coordinates", func(t *testing.T) {
		s := NewStream([]Event{{X: 0, Y: 0}, {X: 65535, Y: 65535}}, 34, 34)
		p := NewPixelState[int](s)
		require.True(t, p.Sparse())
		*p.At(65535, 65535) = 7
		assert.Equal(t, 7, *p.At(65535, 65535))
		assert.Zero(t, *p.At(65535, 0))
		assert.Zero(t, *p.At(0, 65535))
	})
}
