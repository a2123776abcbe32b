package multirange

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/btree"
)

const defaultDegree = 16

// bound is one entry of an index: the forward index keys on the start of a
// range, the reverse index keys on its end.
type bound struct {
	key uint64
	val uint64
}

func lessBound(a, b bound) bool { return a.key < b.key }

// Set holds the union of every range inserted into it as a minimal
// collection of disjoint closed ranges.
//
// Two ordered indexes are kept in sync: forward maps start to end and
// reverse maps end to start. The reverse index is what finds ranges that
// begin before an incoming range but end inside or after it.
//
// A Set is not safe for concurrent mutation. Build it from one goroutine;
// once building is done it can be read from many.
type Set struct {
	log     logr.Logger
	degree  int
	forward *btree.BTreeG[bound]
	reverse *btree.BTreeG[bound]
}

type Option func(*Set)

func WithLogger(log logr.Logger) Option {
	return func(r *Set) {
		r.log = log
	}
}

// WithDegree sets the degree of both underlying B-trees.
func WithDegree(degree int) Option {
	return func(r *Set) {
		if degree >= 2 {
			r.degree = degree
		}
	}
}

func New(opts ...Option) *Set {
	r := &Set{
		log:    logr.Discard(),
		degree: defaultDegree,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.init()
	return r
}

// Collect folds Insert over seq. The first invalid range stops the fold.
func Collect(seq iter.Seq[Range], opts ...Option) (*Set, error) {
	r := New(opts...)
	for rr := range seq {
		if err := r.InsertRange(rr); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func FromRanges(ranges []Range, opts ...Option) (*Set, error) {
	return Collect(slices.Values(ranges), opts...)
}

// init makes the zero Set usable.
func (r *Set) init() {
	if r.forward != nil {
		return
	}
	if r.degree < 2 {
		r.degree = defaultDegree
	}
	if r.log.GetSink() == nil {
		r.log = logr.Discard()
	}
	r.forward = btree.NewG(r.degree, lessBound)
	r.reverse = btree.NewG(r.degree, lessBound)
}

// Insert adds [from, to] to the set, coalescing it with every stored range
// it overlaps. It returns ErrInvalidRange when from > to and leaves the set
// untouched.
func (r *Set) Insert(from, to uint64) error {
	if from > to {
		return fmt.Errorf("%w: %d-%d, from is bigger than to", ErrInvalidRange, from, to)
	}
	r.init()

	overlapping := r.overlapping(from, to)

	merged := Range{From: from, To: to}
	for _, o := range overlapping {
		merged.From = min(merged.From, o.From)
		merged.To = max(merged.To, o.To)
	}
	if log := r.log.V(4); log.Enabled() {
		log.Info("insert", "range", RangeFrom(from, to).String(), "overlapping", len(overlapping), "merged", merged.String())
	}

	for _, o := range overlapping {
		r.forward.Delete(bound{key: o.From})
		r.reverse.Delete(bound{key: o.To})
	}
	r.forward.ReplaceOrInsert(bound{key: merged.From, val: merged.To})
	r.reverse.ReplaceOrInsert(bound{key: merged.To, val: merged.From})
	return nil
}

func (r *Set) InsertRange(rr Range) error {
	return r.Insert(rr.From, rr.To)
}

// overlapping returns the stored ranges that share an integer with
// [from, to], without duplicates.
func (r *Set) overlapping(from, to uint64) []Range {
	var out []Range
	seen := map[uint64]struct{}{}
	add := func(o Range) {
		if _, ok := seen[o.From]; ok {
			return
		}
		seen[o.From] = struct{}{}
		out = append(out, o)
	}

	// ranges ending in [from, to], then the first one ending beyond to. That
	// last one either starts inside [from, to] or encloses it entirely.
	r.reverse.AscendGreaterOrEqual(bound{key: from}, func(b bound) bool {
		if b.key <= to {
			add(Range{From: b.val, To: b.key})
			return true
		}
		if b.val <= to {
			add(Range{From: b.val, To: b.key})
		}
		return false
	})
	// ranges starting in [from, to]
	r.forward.AscendGreaterOrEqual(bound{key: from}, func(b bound) bool {
		if b.key > to {
			return false
		}
		add(Range{From: b.key, To: b.val})
		return true
	})
	return out
}

// Contains reports whether id is covered by a stored range. It looks up the
// range with the greatest start not above id.
func (r *Set) Contains(id uint64) bool {
	if r.forward == nil {
		return false
	}
	found := false
	r.forward.DescendLessOrEqual(bound{key: id}, func(b bound) bool {
		found = b.val >= id
		return false
	})
	return found
}

// Ranges yields the stored ranges in ascending order.
func (r *Set) Ranges() iter.Seq[Range] {
	return func(yield func(Range) bool) {
		if r.forward == nil {
			return
		}
		r.forward.Ascend(func(b bound) bool {
			return yield(Range{From: b.key, To: b.val})
		})
	}
}

// All yields every covered integer in ascending order. Nothing is
// materialized; the sequence can be ranged over any number of times as long
// as the set is not modified meanwhile.
func (r *Set) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for rr := range r.Ranges() {
			for id := rr.From; ; id++ {
				if !yield(id) {
					return
				}
				if id == rr.To {
					break
				}
			}
		}
	}
}

// Len returns the number of stored ranges.
func (r *Set) Len() int {
	if r.forward == nil {
		return 0
	}
	return r.forward.Len()
}

// Count returns the number of covered integers. A set covering the whole
// uint64 domain reports 0.
func (r *Set) Count() uint64 {
	var n uint64
	for rr := range r.Ranges() {
		n += rr.Size()
	}
	return n
}

func (r *Set) Clone() *Set {
	c := &Set{
		log:    r.log,
		degree: r.degree,
	}
	if r.forward == nil {
		c.init()
		return c
	}
	c.forward = r.forward.Clone()
	c.reverse = r.reverse.Clone()
	return c
}

func (r *Set) String() string {
	var sb strings.Builder
	for rr := range r.Ranges() {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(rr.String())
	}
	return sb.String()
}
