package quant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func entriesWithRed(values ...float64) []entry {
	entries := make([]entry, len(values))
	for i, v := range values {
		entries[i].color.R = v
		entries[i].num = 1
	}
	return entries
}

func TestMeanSort(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		members []int32
		want    []int32
	}{
		{
			name:    "orders by key",
			values:  []float64{0.1, 0.4, 0.2, 0.3},
			members: []int32{0, 1, 2, 3},
			want:    []int32{0, 2, 3, 1},
		},
		{
			name:    "equal keys come out reversed",
			values:  []float64{0.5, 0.5, 0.5},
			members: []int32{0, 1, 2},
			want:    []int32{2, 1, 0},
		},
		{
			name:    "single member",
			values:  []float64{0.5},
			members: []int32{0},
			want:    []int32{0},
		},
		{
			name:    "duplicates keep partition order",
			values:  []float64{0.2, 0.8, 0.2, 0.8},
			members: []int32{0, 1, 2, 3},
			want:    []int32{0, 2, 1, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := entriesWithRed(tt.values...)
			members := append([]int32(nil), tt.members...)
			meanSort(entries, members, byRed, make([]int32, len(members)))
			assert.Equal(t, tt.want, members)
		})
	}
}

func TestMeanSortByDirection(t *testing.T) {
	entries := []entry{
		{color: Color{R: 1, G: 0}},
		{color: Color{R: 0, G: 1}},
		{color: Color{R: 0.5, G: 0.5}},
	}
	members := []int32{0, 1, 2}
	meanSort(entries, members, byDirection(Color{R: -1}), make([]int32, 3))
	assert.Equal(t, []int32{0, 2, 1}, members)
}

func TestWidestChannel(t *testing.T) {
	e := &entry{color: Color{R: 1, G: 2, B: 3, A: 4}}
	tests := []struct {
		name string
		vc   Color
		want float64
	}{
		{"red", Color{R: 4, G: 1, B: 1, A: 1}, 1},
		{"green", Color{R: 1, G: 4, B: 1, A: 1}, 2},
		{"blue", Color{R: 1, G: 1, B: 4, A: 1}, 3},
		{"alpha", Color{R: 1, G: 1, B: 1, A: 4}, 4},
		{"red ties with green", Color{R: 4, G: 4, B: 1, A: 1}, 2},
		{"all equal", Color{R: 1, G: 1, B: 1, A: 1}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, widestChannel(tt.vc)(e))
		})
	}
}
