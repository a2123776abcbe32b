// Package kitchen answers which ingredients are still fresh. Fresh ID ranges
// are imported into a multirange.Set, which is then queried per ingredient.
package kitchen

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/henderiw/multirange/pkg/multirange"
)

type Kitchen struct {
	log   logr.Logger
	fresh *multirange.Set
}

type Option func(*Kitchen)

func WithLogger(log logr.Logger) Option {
	return func(r *Kitchen) {
		r.log = log
	}
}

func newKitchen(opts ...Option) *Kitchen {
	r := &Kitchen{log: logr.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	r.fresh = multirange.New(multirange.WithLogger(r.log.WithName("fresh")))
	return r
}

// ImportFreshRanges builds a Kitchen from lines of the form "<from>-<to>".
// The first line that fails to parse aborts the import.
func ImportFreshRanges(lines iter.Seq[string], opts ...Option) (*Kitchen, error) {
	r := newKitchen(opts...)
	n := 0
	for line := range lines {
		n++
		if err := r.importLine(n, line); err != nil {
			return nil, err
		}
	}
	r.log.V(1).Info("imported fresh ranges", "lines", n, "ranges", r.fresh.Len())
	return r, nil
}

func (r *Kitchen) importLine(n int, line string) error {
	rr, err := multirange.ParseRange(line)
	if err != nil {
		return fmt.Errorf("line %d: %w", n, err)
	}
	if err := r.fresh.InsertRange(rr); err != nil {
		return fmt.Errorf("line %d: %w", n, err)
	}
	return nil
}

// Parse reads a full inventory: fresh ranges up to the first empty line,
// then one available ingredient ID per line. Only a truly empty line ends
// the ranges; a line holding just whitespace is a malformed range. Blank
// lines among the IDs are skipped.
func Parse(in io.Reader, opts ...Option) (*Kitchen, []uint64, error) {
	r := newKitchen(opts...)

	scanner := bufio.NewScanner(in)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Text()
		if line == "" {
			break
		}
		if err := r.importLine(n, line); err != nil {
			return nil, nil, err
		}
	}
	r.log.V(1).Info("imported fresh ranges", "lines", n, "ranges", r.fresh.Len())

	var ids []uint64
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: invalid ingredient id %q", n, line)
		}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading inventory: %w", err)
	}
	r.log.V(1).Info("read available ingredients", "count", len(ids))
	return r, ids, nil
}

func (r *Kitchen) IsFresh(id uint64) bool {
	return r.fresh.Contains(id)
}

// FreshIngredients yields every fresh ingredient ID in ascending order.
func (r *Kitchen) FreshIngredients() iter.Seq[uint64] {
	return r.fresh.All()
}

// FreshRanges yields the merged fresh ranges.
func (r *Kitchen) FreshRanges() iter.Seq[multirange.Range] {
	return r.fresh.Ranges()
}

// CountFresh returns how many of ids are fresh.
func (r *Kitchen) CountFresh(ids []uint64) int {
	fresh := 0
	for _, id := range ids {
		if r.IsFresh(id) {
			r.log.V(2).Info("fresh", "id", id)
			fresh++
		}
	}
	r.log.Info("available fresh ingredients", "count", fresh)
	return fresh
}

// TotalFresh returns the number of distinct fresh IDs.
func (r *Kitchen) TotalFresh() uint64 {
	total := r.fresh.Count()
	r.log.Info("total fresh ingredients", "count", total)
	return total
}
