package multirange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange   = errors.New("invalid range")
	ErrMalformedRange = errors.New("malformed range")
)

// Range is a closed interval [From, To]; both ends are included.
type Range struct {
	From uint64
	To   uint64
}

func RangeFrom(from, to uint64) Range {
	return Range{From: from, To: to}
}

// ParseRange parses "<from>-<to>". Whitespace around the upper bound is
// tolerated, the lower bound must be bare digits.
func ParseRange(s string) (Range, error) {
	var r Range
	h := strings.IndexByte(s, '-')
	if h == -1 {
		return r, fmt.Errorf("%w: no hyphen in range %q", ErrMalformedRange, s)
	}
	from, to := s[:h], strings.TrimSpace(s[h+1:])
	fromUint64, err := strconv.ParseUint(from, 10, 64)
	if err != nil {
		return r, fmt.Errorf("%w: invalid from %q in range %q", ErrMalformedRange, from, s)
	}
	toUint64, err := strconv.ParseUint(to, 10, 64)
	if err != nil {
		return r, fmt.Errorf("%w: invalid to %q in range %q", ErrMalformedRange, to, s)
	}
	return Range{From: fromUint64, To: toUint64}, nil
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

func (r Range) IsValid() bool {
	return r.From <= r.To
}

// Contains reports whether id lies within r.
func (r Range) Contains(id uint64) bool {
	return r.From <= id && id <= r.To
}

// Overlaps reports whether r and other share at least one integer.
// Ranges that are merely consecutive (5 and 6) do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.From <= other.To && other.From <= r.To
}

// Size returns the number of integers in r. The full uint64 domain wraps
// to 0.
func (r Range) Size() uint64 {
	return r.To - r.From + 1
}
