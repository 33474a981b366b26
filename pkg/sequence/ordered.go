package sequence

import "iter"

// Ordered is a map that remembers insertion order. Re-setting an existing key
// keeps its original position. It is not safe for concurrent use.
type Ordered[K comparable, V any] struct {
	index   map[K]int
	entries []entry[K, V]
	dead    int
	walking int
}

type entry[K comparable, V any] struct {
	key   K
	value V
	alive bool
}

func NewOrdered[K comparable, V any]() *Ordered[K, V] {
	return &Ordered[K, V]{
		index: make(map[K]int),
	}
}

// Set inserts or replaces the value under key. It reports whether the key was new.
func (o *Ordered[K, V]) Set(key K, value V) bool {
	if i, ok := o.index[key]; ok {
		o.entries[i].value = value
		return false
	}
	o.index[key] = len(o.entries)
	o.entries = append(o.entries, entry[K, V]{key: key, value: value, alive: true})
	return true
}

func (o *Ordered[K, V]) Get(key K) (V, bool) {
	if i, ok := o.index[key]; ok {
		return o.entries[i].value, true
	}
	var zero V
	return zero, false
}

func (o *Ordered[K, V]) Has(key K) bool {
	_, ok := o.index[key]
	return ok
}

// Delete removes key and reports whether it was present.
func (o *Ordered[K, V]) Delete(key K) bool {
	i, ok := o.index[key]
	if !ok {
		return false
	}
	delete(o.index, key)
	var zero V
	o.entries[i].value = zero
	o.entries[i].alive = false
	o.dead++
	o.maybeCompact()
	return true
}

func (o *Ordered[K, V]) Len() int {
	return len(o.index)
}

// Clear drops every entry but keeps the allocated capacity.
func (o *Ordered[K, V]) Clear() {
	clear(o.index)
	clear(o.entries)
	o.entries = o.entries[:0]
	o.dead = 0
}

// All yields live entries in insertion order. Entries deleted during iteration
// are skipped; entries added during iteration are visited.
func (o *Ordered[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		o.walking++
		defer func() {
			o.walking--
			o.maybeCompact()
		}()
		for i := 0; i < len(o.entries); i++ {
			e := o.entries[i]
			if !e.alive {
				continue
			}
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

func (o *Ordered[K, V]) Keys() []K {
	out := make([]K, 0, o.Len())
	for k := range o.All() {
		out = append(out, k)
	}
	return out
}

func (o *Ordered[K, V]) Values() []V {
	out := make([]V, 0, o.Len())
	for _, v := range o.All() {
		out = append(out, v)
	}
	return out
}

// compaction shifts positions, so it waits until no All iteration is in flight.
func (o *Ordered[K, V]) maybeCompact() {
	if o.walking == 0 && o.dead > len(o.entries)/2 {
		o.compact()
	}
}

func (o *Ordered[K, V]) compact() {
	live := o.entries[:0]
	for _, e := range o.entries {
		if e.alive {
			o.index[e.key] = len(live)
			live = append(live, e)
		}
	}
	clear(o.entries[len(live):])
	o.entries = live
	o.dead = 0
}
