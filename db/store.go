package db

import (
	"iter"
	"log/slog"
	"sort"

	"github.com/cjkunselman18/pycalphad/lang"
	"github.com/cjkunselman18/pycalphad/log"
)

// entry is one secondary-index record: an index key and the insertion
// sequence number of the parameter it points at. Entries order by
// (key, seq), so parameters sharing a key keep insertion order.
type entry struct {
	key string
	seq int
}

// insertEntry places e into index, which is kept sorted by (key, seq).
func insertEntry(index []entry, e entry) []entry {
	i := sort.Search(len(index), func(i int) bool {
		if index[i].key != e.key {
			return index[i].key > e.key
		}

		return index[i].seq > e.seq
	})

	index = append(index, entry{})
	copy(index[i+1:], index[i:])
	index[i] = e

	return index
}

// searchKey returns the half-open range [lo, hi) of index positions
// whose key equals key.
func searchKey(index []entry, key string) (lo, hi int) {
	lo = sort.Search(len(index), func(i int) bool { return index[i].key >= key })
	hi = sort.Search(len(index), func(i int) bool { return index[i].key > key })

	return lo, hi
}

// collect gathers the parameters behind an index key range.
func collect(params []*Parameter, index []entry, key string) []*Parameter {
	lo, hi := searchKey(index, key)
	if lo == hi {
		return nil
	}

	out := make([]*Parameter, 0, hi-lo)
	for _, e := range index[lo:hi] {
		out = append(out, params[e.seq])
	}

	return out
}

// ParameterStore is an append-only collection of parameters ordered two
// ways at once: by derived phase key and by type tag. Both orderings
// are non-unique and tie-broken by insertion order, so either answers
// a range query without scanning the other.
type ParameterStore struct {
	params  []*Parameter
	byPhase []entry
	byType  []entry
	logger  log.Logger
}

// StoreOption is a functional option for configuring a ParameterStore.
type StoreOption func(*ParameterStore)

// WithStoreLogger sets the structured logger for trace-level debugging.
func WithStoreLogger(logger log.Logger) StoreOption {
	return func(s *ParameterStore) {
		s.logger = logger
	}
}

// NewParameterStore creates an empty store.
func NewParameterStore(opts ...StoreOption) *ParameterStore {
	s := &ParameterStore{}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Insert adds a parameter to both orderings.
func (s *ParameterStore) Insert(p *Parameter) {
	seq := len(s.params)
	s.params = append(s.params, p)

	s.byPhase = insertEntry(s.byPhase, entry{key: p.PhaseName(), seq: seq})
	s.byType = insertEntry(s.byType, entry{key: p.Type(), seq: seq})

	s.logger.Trace("parameter inserted",
		slog.String("phase", p.PhaseName()),
		slog.String("type", p.Type()),
		slog.Int("seq", seq))
}

// Len returns the number of stored parameters.
func (s *ParameterStore) Len() int { return len(s.params) }

// RangeByPhase returns all parameters whose derived phase key equals
// name, in insertion order.
func (s *ParameterStore) RangeByPhase(name string) []*Parameter {
	return collect(s.params, s.byPhase, lang.NormalizeName(name))
}

// RangeByType returns all parameters whose type tag equals ptype, in
// insertion order.
func (s *ParameterStore) RangeByType(ptype string) []*Parameter {
	return collect(s.params, s.byType, lang.NormalizeName(ptype))
}

// All returns an iterator over all parameters in insertion order.
func (s *ParameterStore) All() iter.Seq[*Parameter] {
	return func(yield func(*Parameter) bool) {
		for _, p := range s.params {
			if !yield(p) {
				return
			}
		}
	}
}

// BuildView collects the parameters matching pred into a view ordered
// the same two ways as the store. A nil pred matches everything.
//
// The view borrows the store's parameters rather than copying them; it
// remains valid only as long as the backing store is not mutated.
func (s *ParameterStore) BuildView(pred func(*Parameter) bool) *ParameterView {
	v := new(ParameterView)

	for _, p := range s.params {
		if pred != nil && !pred(p) {
			continue
		}

		seq := len(v.params)
		v.params = append(v.params, p)
		v.byPhase = insertEntry(v.byPhase, entry{key: p.PhaseName(), seq: seq})
		v.byType = insertEntry(v.byType, entry{key: p.Type(), seq: seq})
	}

	s.logger.Trace("view built",
		slog.Int("matched", len(v.params)),
		slog.Int("total", len(s.params)))

	return v
}

// ParameterView is a non-owning filtered subset of a ParameterStore
// with the same dual ordering.
type ParameterView struct {
	params  []*Parameter // borrowed from the backing store
	byPhase []entry
	byType  []entry
}

// Len returns the number of parameters in the view.
func (v *ParameterView) Len() int { return len(v.params) }

// RangeByPhase returns the view's parameters whose derived phase key
// equals name, in insertion order.
func (v *ParameterView) RangeByPhase(name string) []*Parameter {
	return collect(v.params, v.byPhase, lang.NormalizeName(name))
}

// RangeByType returns the view's parameters whose type tag equals
// ptype, in insertion order.
func (v *ParameterView) RangeByType(ptype string) []*Parameter {
	return collect(v.params, v.byType, lang.NormalizeName(ptype))
}

// All returns an iterator over the view's parameters in insertion
// order.
func (v *ParameterView) All() iter.Seq[*Parameter] {
	return func(yield func(*Parameter) bool) {
		for _, p := range v.params {
			if !yield(p) {
				return
			}
		}
	}
}
