package nmnist

import (
	"fmt"

	"github.com/banshee-data/eventvision/internal/events"
)

// MaxRecordTimestamp is the largest timestamp a single record can carry.
const MaxRecordTimestamp = 1<<23 - 1

// AppendRecord appends the wire record for ev to dst. The timestamp must fit
// in 23 bits and y must not collide with the overflow marker.
func AppendRecord(dst []byte, ev events.Event) ([]byte, error) {
	if ev.X > 0xff || ev.Y > 0xff || ev.Y == OVERFLOW_Y {
		return dst, fmt.Errorf("%w: address (%d,%d) not encodable", events.ErrFormat, ev.X, ev.Y)
	}
	if ev.Timestamp > MaxRecordTimestamp {
		return dst, fmt.Errorf("%w: timestamp %d exceeds 23 bits", events.ErrFormat, ev.Timestamp)
	}
	b2 := byte(ev.Timestamp>>16) & TS_HIGH_MASK
	if ev.Polarity {
		b2 |= POLARITY_MASK
	}
	return append(dst, byte(ev.X), byte(ev.Y), b2, byte(ev.Timestamp>>8), byte(ev.Timestamp)), nil
}

// AppendOverflow appends an overflow marker record to dst.
func AppendOverflow(dst []byte) []byte {
	return append(dst, 0, OVERFLOW_Y, 0, 0, 0)
}
