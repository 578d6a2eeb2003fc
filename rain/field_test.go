package rain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestColumns(t *testing.T) {
	tests := []struct {
		width, columnWidth, want int
	}{
		{80, 2, 40},
		{81, 2, 40},
		{1, 2, 1},
		{0, 2, 1},
		{0, 0, 1},
		{10, 0, 10},
		{10, -3, 10},
	}

	for _, tc := range tests {
		got := Columns(tc.width, tc.columnWidth)
		assert.Equal(t, tc.want, got, "Columns(%d, %d)", tc.width, tc.columnWidth)
		assert.GreaterOrEqual(t, got, 1)
	}
}

func TestSpawnCount(t *testing.T) {
	assert.Equal(t, 40, SpawnCount(40, 1.0))
	assert.Equal(t, 14, SpawnCount(40, 0.35))
	assert.Equal(t, 1, SpawnCount(40, 0.001))
	assert.Equal(t, 80, SpawnCount(40, 2.0))
	assert.Equal(t, 0, SpawnCount(40, 0))
}

func TestField_Seed(t *testing.T) {
	const width, height, cw = 81, 24, 2
	f := NewField(cw, 0.5, fixedRand())

	n := f.Seed(width, height)
	require.Equal(t, SpawnCount(Columns(width, cw), 0.5), n)
	require.Equal(t, n, f.Len())

	for _, d := range f.Drops() {
		assert.Zero(t, d.Column%cw, "column %d not aligned", d.Column)
		assert.Less(t, d.Column, width)
		assert.GreaterOrEqual(t, d.Column, 0)
		assert.GreaterOrEqual(t, d.Row, -height)
		assert.Less(t, d.Row, 0)
		assert.GreaterOrEqual(t, d.Speed, 1)
		assert.LessOrEqual(t, d.Speed, MaxSpeed)
	}

	assert.Equal(t, 2*n, f.Len()+f.Seed(width, height), "seeding appends")
}

func TestField_SeedNarrowScreen(t *testing.T) {
	f := NewField(4, 1.0, fixedRand())
	require.Equal(t, 1, f.Seed(3, 5))
	assert.Equal(t, 0, f.Drops()[0].Column)
}

func TestField_SeedZeroArea(t *testing.T) {
	f := NewField(2, 1.0, fixedRand())
	assert.Zero(t, f.Seed(0, 24))
	assert.Zero(t, f.Seed(80, 0))
	assert.Zero(t, f.Len())
}

func TestField_Advance(t *testing.T) {
	f := NewField(1, 1.0, fixedRand())
	f.drops = []Drop{{Row: -3, Speed: 1}, {Row: 0, Speed: 3}}

	f.Advance()
	assert.Equal(t, []Drop{{Row: -2, Speed: 1}, {Row: 3, Speed: 3}}, f.Drops())
}

func TestField_Cull(t *testing.T) {
	const height = 10
	f := NewField(1, 1.0, fixedRand())
	f.drops = []Drop{
		{Column: 0, Row: height + 4},
		{Column: 1, Row: height + 5},
		{Column: 2, Row: -1},
		{Column: 3, Row: height + 20},
	}

	assert.Equal(t, 2, f.Cull(height))
	assert.Equal(t, []Drop{{Column: 0, Row: height + 4}, {Column: 2, Row: -1}}, f.Drops())
}

func TestField_Reset(t *testing.T) {
	f := NewField(2, 1.0, fixedRand())
	f.Seed(80, 24)
	require.NotZero(t, f.Len())

	f.Reset()
	assert.Zero(t, f.Len())
}

func TestDrop_VisibleInSpawnFrame(t *testing.T) {
	const height = 5
	tests := []struct {
		name    string
		drop    Drop
		visible bool
	}{
		{"reaches top row", Drop{Row: -1, Speed: 1}, true},
		{"fast drop reaches row two", Drop{Row: -1, Speed: 3}, true},
		{"still above", Drop{Row: -3, Speed: 2}, false},
		{"lands exactly on top", Drop{Row: -3, Speed: 3}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := NewField(1, 1.0, fixedRand())
			f.drops = []Drop{tc.drop}
			f.Advance()
			assert.Equal(t, tc.visible, f.Drops()[0].Visible(height))
		})
	}
}

func TestDrop_Bounds(t *testing.T) {
	assert.False(t, Drop{Row: 10}.Visible(10))
	assert.True(t, Drop{Row: 9}.Visible(10))
	assert.False(t, Drop{Row: 14}.Expired(10))
	assert.True(t, Drop{Row: 15}.Expired(10))
}
