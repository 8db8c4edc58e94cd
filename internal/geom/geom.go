package geom

import "math"

// Vector2 is a point or offset in world space. Y grows downward.
type Vector2 struct {
	X float64
	Y float64
}

func V2(x, y float64) Vector2 { return Vector2{X: x, Y: y} }

func (v Vector2) Add(w Vector2) Vector2 { return Vector2{v.X + w.X, v.Y + w.Y} }
func (v Vector2) Sub(w Vector2) Vector2 { return Vector2{v.X - w.X, v.Y - w.Y} }

// Rect is an axis-aligned rectangle in integer world coordinates.
// All four edges are inclusive.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// NewRect builds an inclusive rectangle from a float origin and size.
// A zero or negative size collapses to a single cell at the origin.
func NewRect(x, y, width, height float64) Rect {
	l := int(math.Floor(x))
	t := int(math.Floor(y))
	r := int(math.Ceil(x + width - 1))
	b := int(math.Ceil(y + height - 1))
	if r < l {
		r = l
	}
	if b < t {
		b = t
	}
	return Rect{Left: l, Top: t, Right: r, Bottom: b}
}

func (r Rect) Width() int  { return r.Right - r.Left + 1 }
func (r Rect) Height() int { return r.Bottom - r.Top + 1 }

// Intersects reports whether two inclusive rectangles overlap.
func (r Rect) Intersects(s Rect) bool {
	return r.Left <= s.Right && s.Left <= r.Right && r.Top <= s.Bottom && s.Top <= r.Bottom
}

// Contains reports whether the integer point (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// ContainsPoint reports whether a world-space point lies inside r after
// truncation to the integer grid.
func (r Rect) ContainsPoint(p Vector2) bool {
	return r.Contains(int(math.Floor(p.X)), int(math.Floor(p.Y)))
}

// Quadrants splits r into four child rectangles that tile it exactly.
// Order: top-left, top-right, bottom-left, bottom-right.
func (r Rect) Quadrants() [4]Rect {
	mx := r.Left + (r.Right-r.Left)/2
	my := r.Top + (r.Bottom-r.Top)/2
	return [4]Rect{
		{Left: r.Left, Top: r.Top, Right: mx, Bottom: my},
		{Left: mx + 1, Top: r.Top, Right: r.Right, Bottom: my},
		{Left: r.Left, Top: my + 1, Right: mx, Bottom: r.Bottom},
		{Left: mx + 1, Top: my + 1, Right: r.Right, Bottom: r.Bottom},
	}
}
