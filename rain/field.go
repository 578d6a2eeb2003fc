package rain

import (
	"math"
	"math/rand/v2"
)

// Columns returns the number of drop columns for a terminal width, never less than one
func Columns(width, columnWidth int) int {
	return max(1, width/max(1, columnWidth))
}

// SpawnCount returns how many drops a frame seeds for the given columns
func SpawnCount(columns int, density float64) int {
	if density <= 0 || math.IsNaN(density) {
		return 0
	}
	return int(math.Ceil(float64(columns) * density))
}

// Field is the active drop set. It is owned by a single render loop.
type Field struct {
	drops       []Drop
	columnWidth int
	density     float64
	rng         *rand.Rand
}

// NewField returns an empty field drawing randomness from rng
func NewField(columnWidth int, density float64, rng *rand.Rand) *Field {
	return &Field{
		columnWidth: max(1, columnWidth),
		density:     density,
		rng:         rng,
	}
}

// Seed appends one frame's worth of new drops above the screen and returns
// how many were added. A zero-area screen seeds nothing.
func (f *Field) Seed(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}

	columns := Columns(width, f.columnWidth)
	n := SpawnCount(columns, f.density)
	for i := 0; i < n; i++ {
		col := f.rng.IntN(columns) * f.columnWidth
		if col >= width {
			// Only reachable when width < columnWidth
			col = 0
		}
		f.drops = append(f.drops, Drop{
			Column: col,
			Row:    -(f.rng.IntN(height) + 1),
			Speed:  f.rng.IntN(MaxSpeed) + 1,
		})
	}
	return n
}

// Advance moves every drop down by its speed
func (f *Field) Advance() {
	for i := range f.drops {
		f.drops[i].Row += f.drops[i].Speed
	}
}

// Cull removes expired drops in place and returns how many were removed
func (f *Field) Cull(height int) int {
	kept := f.drops[:0]
	for _, d := range f.drops {
		if !d.Expired(height) {
			kept = append(kept, d)
		}
	}
	removed := len(f.drops) - len(kept)
	clear(f.drops[len(kept):])
	f.drops = kept
	return removed
}

// Reset drops every particle, used when the screen size changes
func (f *Field) Reset() {
	f.drops = f.drops[:0]
}

// Drops exposes the live set; callers must not retain it across frames
func (f *Field) Drops() []Drop {
	return f.drops
}

func (f *Field) Len() int {
	return len(f.drops)
}
