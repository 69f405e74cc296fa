package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableChunkGrowth(t *testing.T) {
	tests := []struct {
		name         string
		operation    func(*Table[int32, string])
		expectedSize int
	}{
		{"empty table", func(table *Table[int32, string]) {}, 0},
		{"1 insert", func(table *Table[int32, string]) { table.Insert("a") }, 1},
		{"32 inserts", func(table *Table[int32, string]) {
			for i := 0; i < 32; i++ {
				table.Insert("a")
			}
		}, 1},
		{"257 inserts", func(table *Table[int32, string]) {
			for i := 0; i < 257; i++ {
				table.Insert("a")
			}
		}, 5},
		{"1 insert at 63", func(table *Table[int32, string]) { table.InsertAt("a", 63) }, 1},
		{"1 insert at 64", func(table *Table[int32, string]) { table.InsertAt("a", 64) }, 2},
		{"1 insert at 257", func(table *Table[int32, string]) { table.InsertAt("a", 257) }, 5},
		{"insert at until 320", func(table *Table[int32, string]) {
			for i := int32(0); i < 320; i++ {
				table.InsertAt("a", i)
			}
		}, 5},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			table := new(Table[int32, string])
			tc.operation(table)
			require.Equal(t, tc.expectedSize, len(table.masks))
			require.Equal(t, tc.expectedSize*64, len(table.items))
		})
	}
}

func TestTableInsertFindsLowestFreeSlot(t *testing.T) {
	table := new(Table[uint32, string])
	a := table.Insert("a")
	b := table.Insert("b")
	require.Equal(t, uint32(0), a)
	require.Equal(t, uint32(1), b)

	table.Delete(a)
	c := table.Insert("c")
	require.Equal(t, uint32(0), c, "delete should free the lowest slot for reuse")

	v, ok := table.Lookup(b)
	require.True(t, ok)
	require.Equal(t, "b", v)
}

func TestTableDeleteIsIdempotent(t *testing.T) {
	table := new(Table[uint32, string])
	idx := table.Insert("a")
	table.Delete(idx)
	table.Delete(idx)
	_, ok := table.Lookup(idx)
	require.False(t, ok)
}

func TestTableRangeAscending(t *testing.T) {
	table := new(Table[uint32, string])
	table.InsertAt("a", 5)
	table.InsertAt("b", 1)
	table.InsertAt("c", 70)

	var seen []uint32
	table.Range(func(idx uint32, item string) bool {
		seen = append(seen, idx)
		return true
	})
	require.Equal(t, []uint32{1, 5, 70}, seen)
}
