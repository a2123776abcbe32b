// Package rangetable keeps labeled range claims and answers which integers
// are covered by the claims matching a label selector.
package rangetable

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/henderiw/multirange/pkg/multirange"
	"k8s.io/apimachinery/pkg/labels"
)

type Table interface {
	Get(r multirange.Range) (Entry, error)
	Claim(r multirange.Range, labels labels.Set) error
	Release(r multirange.Range) error
	Update(r multirange.Range, labels labels.Set) error

	Count() int
	Has(r multirange.Range) bool

	GetAll() Entries
	GetByLabel(selector labels.Selector) Entries

	Coverage(selector labels.Selector) (*multirange.Set, error)
	Contains(id uint64, selector labels.Selector) bool
}

func New(initEntries Entries, opts ...multirange.Option) (Table, error) {
	r := &table{
		m:     new(sync.RWMutex),
		table: map[multirange.Range]labels.Set{},
		opts:  opts,
	}

	var errm error
	for _, e := range initEntries {
		if err := r.add(e.Range(), e.Labels()); err != nil {
			errm = errors.Join(errm, err)
		}
	}

	return r, errm
}

type table struct {
	m     *sync.RWMutex
	table map[multirange.Range]labels.Set
	opts  []multirange.Option
}

func (r *table) Get(rr multirange.Range) (Entry, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	l, ok := r.table[rr]
	if !ok {
		return nil, fmt.Errorf("no match found for: %s", rr.String())
	}
	return NewEntry(rr, l), nil
}

func (r *table) Claim(rr multirange.Range, labels labels.Set) error {
	r.m.Lock()
	defer r.m.Unlock()

	return r.add(rr, labels)
}

func (r *table) Release(rr multirange.Range) error {
	r.m.Lock()
	defer r.m.Unlock()

	if _, ok := r.table[rr]; !ok {
		return fmt.Errorf("entry %s not found", rr.String())
	}
	delete(r.table, rr)
	return nil
}

func (r *table) Update(rr multirange.Range, labels labels.Set) error {
	r.m.Lock()
	defer r.m.Unlock()

	if _, ok := r.table[rr]; !ok {
		return fmt.Errorf("entry %s not found", rr.String())
	}
	r.table[rr] = labels
	return nil
}

func (r *table) Count() int {
	r.m.RLock()
	defer r.m.RUnlock()

	return len(r.table)
}

func (r *table) Has(rr multirange.Range) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	_, ok := r.table[rr]
	return ok
}

// GetAll returns every claim ordered by range.
func (r *table) GetAll() Entries {
	return r.GetByLabel(labels.Everything())
}

func (r *table) GetByLabel(selector labels.Selector) Entries {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.getByLabel(selector)
}

func (r *table) getByLabel(selector labels.Selector) Entries {
	if selector == nil {
		selector = labels.Everything()
	}
	entries := make(Entries, 0, len(r.table))
	for rr, l := range r.table {
		if selector.Matches(l) {
			entries = append(entries, NewEntry(rr, l))
		}
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.Range().From, b.Range().From); c != 0 {
			return c
		}
		return cmp.Compare(a.Range().To, b.Range().To)
	})
	return entries
}

// Coverage merges the ranges of every claim matching selector.
func (r *table) Coverage(selector labels.Selector) (*multirange.Set, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	set := multirange.New(r.opts...)
	for _, e := range r.getByLabel(selector) {
		if err := set.InsertRange(e.Range()); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (r *table) Contains(id uint64, selector labels.Selector) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	if selector == nil {
		selector = labels.Everything()
	}
	for rr, l := range r.table {
		if rr.Contains(id) && selector.Matches(l) {
			return true
		}
	}
	return false
}

func (r *table) add(rr multirange.Range, labels labels.Set) error {
	if !rr.IsValid() {
		return fmt.Errorf("%w: %s, from is bigger than to", multirange.ErrInvalidRange, rr.String())
	}
	if _, ok := r.table[rr]; ok {
		return fmt.Errorf("entry %s already exists", rr.String())
	}
	r.table[rr] = labels
	return nil
}
