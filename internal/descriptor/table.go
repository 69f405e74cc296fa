// Package descriptor implements a generic, chunked bitmap table mapping a
// small integer descriptor to an item — the data structure underlying a
// guest's file-descriptor table (internal/openfiles).
//
// Its source was not present in the retrieval pack this was grounded on;
// this implementation was written to match the chunk-growth behavior
// observed in that package's own tests (64 slots per chunk, lowest-free
// allocation, explicit-index insertion growing the table to cover the
// requested index).
package descriptor

import "math/bits"

// Index is the constraint on a Table's descriptor type: an integer type
// (uint32, uint64, int or int32, or a type based on one of them) that is
// converted to int to index a Go slice.
type Index interface {
	~uint32 | ~uint64 | ~int | ~int32
}

const chunkSize = 64

// Table maps a descriptor of type I to an Item, backed by one uint64
// occupancy mask per 64-slot chunk. The zero value is an empty table
// ready to use.
type Table[I Index, Item any] struct {
	masks []uint64
	items []Item
}

// Insert places item at the lowest unused descriptor and returns it.
func (t *Table[I, Item]) Insert(item Item) I {
	idx := t.findFree()
	t.setAt(idx, item)
	return I(idx)
}

// InsertAt places item at the exact descriptor idx, growing the table if
// needed. Any previous occupant at idx is overwritten.
func (t *Table[I, Item]) InsertAt(item Item, idx I) {
	t.setAt(int(idx), item)
}

// Lookup returns the item at idx, if occupied.
func (t *Table[I, Item]) Lookup(idx I) (item Item, ok bool) {
	i := int(idx)
	if !t.inBounds(i) || !t.bitSet(i) {
		return item, false
	}
	return t.items[i], true
}

// Delete frees the slot at idx. Deleting an already-free or out-of-range
// slot is a no-op.
func (t *Table[I, Item]) Delete(idx I) {
	i := int(idx)
	if !t.inBounds(i) || !t.bitSet(i) {
		return
	}
	t.masks[i/chunkSize] &^= 1 << uint(i%chunkSize)
	var zero Item
	t.items[i] = zero
}

// Range calls fn for every occupied descriptor in ascending order. fn
// returning false stops iteration early.
func (t *Table[I, Item]) Range(fn func(idx I, item Item) bool) {
	for c, mask := range t.masks {
		for mask != 0 {
			b := bits.TrailingZeros64(mask)
			i := c*chunkSize + b
			if !fn(I(i), t.items[i]) {
				return
			}
			mask &^= 1 << uint(b)
		}
	}
}

func (t *Table[I, Item]) inBounds(i int) bool {
	return i >= 0 && i < len(t.items)
}

func (t *Table[I, Item]) bitSet(i int) bool {
	return t.masks[i/chunkSize]&(1<<uint(i%chunkSize)) != 0
}

func (t *Table[I, Item]) findFree() int {
	for c, mask := range t.masks {
		if mask == ^uint64(0) {
			continue
		}
		b := bits.TrailingZeros64(^mask)
		return c*chunkSize + b
	}
	t.growTo(len(t.masks) + 1)
	return (len(t.masks) - 1) * chunkSize
}

func (t *Table[I, Item]) setAt(i int, item Item) {
	chunk := i/chunkSize + 1
	if chunk > len(t.masks) {
		t.growTo(chunk)
	}
	t.masks[i/chunkSize] |= 1 << uint(i%chunkSize)
	t.items[i] = item
}

func (t *Table[I, Item]) growTo(chunks int) {
	for len(t.masks) < chunks {
		t.masks = append(t.masks, 0)
		var zeros [chunkSize]Item
		t.items = append(t.items, zeros[:]...)
	}
}
