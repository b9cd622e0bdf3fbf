package catalog

import "math"

const (
	// MapWidth and MapHeight bound the shared play area.
	MapWidth  = 1280.0
	MapHeight = 720.0

	// MaxPlayers is the fixed room capacity.
	MaxPlayers = 6

	// MinTowerSeparation is the minimum distance between two towers.
	MinTowerSeparation = 40.0
)

// Point is a map coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Section is the exclusive rectangle a player may build in.
type Section struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point lies inside the section, edges
// included.
func (s Section) Contains(x, y float64) bool {
	return x >= s.X && x <= s.X+s.Width && y >= s.Y && y <= s.Y+s.Height
}

var (
	halves = []Section{
		{X: 0, Y: 0, Width: 1280, Height: 360},
		{X: 0, Y: 360, Width: 1280, Height: 360},
	}
	quadrants = []Section{
		{X: 0, Y: 0, Width: 640, Height: 360},
		{X: 640, Y: 0, Width: 640, Height: 360},
		{X: 0, Y: 360, Width: 640, Height: 360},
		{X: 640, Y: 360, Width: 640, Height: 360},
	}
	sixths = []Section{
		{X: 0, Y: 0, Width: 426, Height: 360},
		{X: 426, Y: 0, Width: 428, Height: 360},
		{X: 854, Y: 0, Width: 426, Height: 360},
		{X: 0, Y: 360, Width: 426, Height: 360},
		{X: 426, Y: 360, Width: 428, Height: 360},
		{X: 854, Y: 360, Width: 426, Height: 360},
	}
)

// PartitionSections splits the map by player count: up to two players get
// horizontal halves, three or four get quadrants, five or six get sixths.
// The result is truncated to exactly playerCount sections.
func PartitionSections(playerCount int) []Section {
	if playerCount <= 0 {
		return nil
	}
	var layout []Section
	switch {
	case playerCount <= 2:
		layout = halves
	case playerCount <= 4:
		layout = quadrants
	default:
		layout = sixths
	}
	if playerCount > len(layout) {
		playerCount = len(layout)
	}
	out := make([]Section, playerCount)
	copy(out, layout[:playerCount])
	return out
}

// Path is a polyline enemies traverse from start to end.
type Path struct {
	points   []Point
	segments []float64
	length   float64
}

// NewPath precomputes segment lengths for the polyline.
func NewPath(points ...Point) *Path {
	p := &Path{points: append([]Point(nil), points...)}
	for i := 1; i < len(p.points); i++ {
		seg := p.points[i-1].Distance(p.points[i])
		p.segments = append(p.segments, seg)
		p.length += seg
	}
	return p
}

// DefaultPath returns the winding route of the beginner map.
func DefaultPath() *Path {
	return NewPath(
		Point{X: 0, Y: 200},
		Point{X: 200, Y: 200},
		Point{X: 200, Y: 400},
		Point{X: 600, Y: 400},
		Point{X: 600, Y: 200},
		Point{X: 1000, Y: 200},
		Point{X: 1000, Y: 600},
		Point{X: 1280, Y: 600},
	)
}

// Length returns the total arc length.
func (p *Path) Length() float64 {
	if p == nil {
		return 0
	}
	return p.length
}

// Points returns a copy of the polyline vertices.
func (p *Path) Points() []Point {
	if p == nil {
		return nil
	}
	return append([]Point(nil), p.points...)
}

// PointAt maps progress in [0,1] to the point at that fraction of the
// path's arc length. Progress outside the range is clamped.
func (p *Path) PointAt(progress float64) Point {
	if p == nil || len(p.points) == 0 {
		return Point{}
	}
	if progress <= 0 || p.length == 0 {
		return p.points[0]
	}
	if progress >= 1 {
		return p.points[len(p.points)-1]
	}
	remaining := progress * p.length
	for i, seg := range p.segments {
		if seg == 0 {
			continue
		}
		if remaining <= seg {
			from, to := p.points[i], p.points[i+1]
			t := remaining / seg
			return Point{X: from.X + (to.X-from.X)*t, Y: from.Y + (to.Y-from.Y)*t}
		}
		remaining -= seg
	}
	return p.points[len(p.points)-1]
}
