package rain

// CullMargin is how many rows past the bottom edge a drop survives
const CullMargin = 5

// MaxSpeed is the fastest fall speed in rows per frame
const MaxSpeed = 3

// Drop is a single falling glyph stream
type Drop struct {
	Column int // cell column, a multiple of the column width
	Row    int // negative while above the screen
	Speed  int // rows per frame, 1..MaxSpeed
}

// Visible reports whether the drop head lies on a screen of the given height
func (d Drop) Visible(height int) bool {
	return d.Row >= 0 && d.Row < height
}

// Expired reports whether the drop has fallen past the cull margin
func (d Drop) Expired(height int) bool {
	return d.Row >= height+CullMargin
}
