package rangetable

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/henderiw/multirange/pkg/multirange"
	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"
)

var initEntries = Entries{
	NewEntry(multirange.RangeFrom(3, 5), labels.Set{"supplier": "north"}),
	NewEntry(multirange.RangeFrom(10, 14), labels.Set{"supplier": "north"}),
	NewEntry(multirange.RangeFrom(16, 20), labels.Set{"supplier": "south"}),
	NewEntry(multirange.RangeFrom(12, 18), labels.Set{"supplier": "south"}),
}

func TestNew(t *testing.T) {
	cases := map[string]struct {
		initEntries     Entries
		expectedEntries int
		expectedErr     bool
	}{
		"NewWithoutInitEntries": {
			initEntries:     nil,
			expectedEntries: 0,
		},
		"NewWithInitEntries": {
			initEntries:     initEntries,
			expectedEntries: 4,
		},
		"NewErrorInvalidRange": {
			initEntries: Entries{
				NewEntry(multirange.RangeFrom(5, 3), nil),
			},
			expectedErr: true,
		},
		"NewErrorDuplicate": {
			initEntries: Entries{
				NewEntry(multirange.RangeFrom(3, 5), nil),
				NewEntry(multirange.RangeFrom(3, 5), nil),
			},
			expectedErr: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := New(tc.initEntries)
			if tc.expectedErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if r.Count() != tc.expectedEntries {
				t.Errorf("%s: -want %d, +got: %d\n", name, tc.expectedEntries, len(r.GetAll()))
			}
		})
	}
}

func TestClaim(t *testing.T) {
	cases := map[string]struct {
		initEntries       Entries
		newSuccessEntries []multirange.Range
		newFailedEntries  []multirange.Range
		expectedEntries   int
	}{
		"Normal": {
			initEntries:       initEntries,
			newSuccessEntries: []multirange.Range{{From: 30, To: 40}, {From: 3, To: 4}},
			newFailedEntries:  []multirange.Range{{From: 3, To: 5}, {From: 9, To: 1}},
			expectedEntries:   6,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := New(tc.initEntries)
			assert.NoError(t, err)

			for _, rr := range tc.newSuccessEntries {
				err := r.Claim(rr, labels.Set{"supplier": "east"})
				assert.NoError(t, err)
			}
			for _, rr := range tc.newFailedEntries {
				err := r.Claim(rr, nil)
				assert.Error(t, err)
			}
			for _, rr := range tc.newSuccessEntries {
				if !r.Has(rr) {
					t.Errorf("%s expecting success claim entry: %s\n", name, rr)
				}
			}
			if r.Has(multirange.RangeFrom(9, 1)) {
				t.Errorf("%s not expecting failed claim entry: 9-1\n", name)
			}
			if r.Count() != tc.expectedEntries {
				t.Errorf("%s: -want %d, +got: %d\n", name, tc.expectedEntries, len(r.GetAll()))
			}
		})
	}
}

func TestGetUpdateRelease(t *testing.T) {
	r, err := New(initEntries)
	assert.NoError(t, err)

	e, err := r.Get(multirange.RangeFrom(16, 20))
	assert.NoError(t, err)
	assert.Equal(t, "south", e.Labels()["supplier"])

	_, err = r.Get(multirange.RangeFrom(16, 21))
	assert.Error(t, err)

	assert.NoError(t, r.Update(multirange.RangeFrom(16, 20), labels.Set{"supplier": "west"}))
	e, err = r.Get(multirange.RangeFrom(16, 20))
	assert.NoError(t, err)
	assert.Equal(t, "west", e.Labels()["supplier"])
	assert.Error(t, r.Update(multirange.RangeFrom(1, 1), nil))

	assert.NoError(t, r.Release(multirange.RangeFrom(16, 20)))
	assert.False(t, r.Has(multirange.RangeFrom(16, 20)))
	assert.Error(t, r.Release(multirange.RangeFrom(16, 20)))
	assert.Equal(t, 3, r.Count())
}

func TestGetByLabel(t *testing.T) {
	r, err := New(initEntries)
	assert.NoError(t, err)

	got := []string{}
	for _, e := range r.GetByLabel(labels.SelectorFromSet(labels.Set{"supplier": "south"})) {
		got = append(got, e.Range().String())
	}
	if diff := cmp.Diff([]string{"12-18", "16-20"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	got = []string{}
	for _, e := range r.GetAll() {
		got = append(got, e.Range().String())
	}
	if diff := cmp.Diff([]string{"3-5", "10-14", "12-18", "16-20"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCoverage(t *testing.T) {
	r, err := New(initEntries)
	assert.NoError(t, err)

	notNorth, err := labels.NewRequirement("supplier", selection.NotEquals, []string{"north"})
	assert.NoError(t, err)

	cases := map[string]struct {
		selector       labels.Selector
		expectedRanges []multirange.Range
		included       []uint64
		excluded       []uint64
	}{
		"Everything": {
			selector:       labels.Everything(),
			expectedRanges: []multirange.Range{{From: 3, To: 5}, {From: 10, To: 20}},
			included:       []uint64{3, 11, 15, 20},
			excluded:       []uint64{6, 9, 21},
		},
		"Nil": {
			selector:       nil,
			expectedRanges: []multirange.Range{{From: 3, To: 5}, {From: 10, To: 20}},
			included:       []uint64{3},
			excluded:       []uint64{2},
		},
		"North": {
			selector:       labels.SelectorFromSet(labels.Set{"supplier": "north"}),
			expectedRanges: []multirange.Range{{From: 3, To: 5}, {From: 10, To: 14}},
			included:       []uint64{4, 14},
			excluded:       []uint64{15, 20},
		},
		"NotNorth": {
			selector:       labels.NewSelector().Add(*notNorth),
			expectedRanges: []multirange.Range{{From: 12, To: 20}},
			included:       []uint64{12, 20},
			excluded:       []uint64{3, 11},
		},
		"Nothing": {
			selector: labels.Nothing(),
			excluded: []uint64{3, 12},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			set, err := r.Coverage(tc.selector)
			assert.NoError(t, err)
			if diff := cmp.Diff(tc.expectedRanges, slices.Collect(set.Ranges())); diff != "" {
				t.Errorf("%s: (-want +got):\n%s", name, diff)
			}
			for _, id := range tc.included {
				assert.True(t, set.Contains(id), "id %d", id)
				assert.True(t, r.Contains(id, tc.selector), "id %d", id)
			}
			for _, id := range tc.excluded {
				assert.False(t, set.Contains(id), "id %d", id)
				assert.False(t, r.Contains(id, tc.selector), "id %d", id)
			}
		})
	}
}
