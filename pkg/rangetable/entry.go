package rangetable

import (
	"fmt"

	"github.com/henderiw/multirange/pkg/multirange"
	"k8s.io/apimachinery/pkg/labels"
)

type Entry interface {
	Range() multirange.Range
	Labels() labels.Set
	String() string
}

type entry struct {
	r      multirange.Range
	labels labels.Set
}

type Entries []Entry

func (r entry) Range() multirange.Range { return r.r }
func (r entry) Labels() labels.Set      { return r.labels }
func (r entry) String() string {
	return fmt.Sprintf("range: %s, labels: %s", r.r.String(), r.labels.String())
}

func NewEntry(r multirange.Range, labels labels.Set) Entry {
	return entry{
		r:      r,
		labels: labels,
	}
}
