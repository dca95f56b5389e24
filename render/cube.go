package render

import "math"

// Projection constants for a 128x64 surface.
const (
	Scale   = 20
	CenterX = 64
	CenterY = 32
)

// Vertex is a point in model space.
type Vertex struct {
	X, Y, Z float64
}

// Edge joins two vertices by index.
type Edge [2]int

// Point is a projected pixel position.
type Point struct {
	X, Y uint8
}

var cubeVertices = [8]Vertex{
	{-1, -1, -1}, // 0
	{1, -1, -1},  // 1
	{1, 1, -1},   // 2
	{-1, 1, -1},  // 3
	{-1, -1, 1},  // 4
	{1, -1, 1},   // 5
	{1, 1, 1},    // 6
	{-1, 1, 1},   // 7
}

var cubeEdges = [12]Edge{
	// Back face
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	// Front face
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	// Connecting edges
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Vertices returns the corners of the unit cube.
func Vertices() [8]Vertex {
	return cubeVertices
}

// Edges returns the cube edges.
func Edges() [12]Edge {
	return cubeEdges
}

// Rotation holds the X and Y axis angles in radians, each in [0, 2π).
type Rotation struct {
	X, Y float64
}

// Apply rotates v about the X axis, then about the Y axis.
func (r Rotation) Apply(v Vertex) Vertex {
	sx, cx := math.Sincos(r.X)
	sy, cy := math.Sincos(r.Y)

	y := v.Y*cx - v.Z*sx
	z := v.Y*sx + v.Z*cx

	return Vertex{
		X: v.X*cy - z*sy,
		Y: y,
		Z: v.X*sy + z*cy,
	}
}

// Advance adds dx and dy to the angles, wrapping each into [0, 2π).
func (r *Rotation) Advance(dx, dy float64) {
	r.X = wrap(r.X + dx)
	r.Y = wrap(r.Y + dy)
}

// Project returns the projected cube corners under r.
func (r Rotation) Project() [8]Point {
	var pts [8]Point
	for i, v := range cubeVertices {
		pts[i] = Project(r.Apply(v))
	}
	return pts
}

func wrap(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Project maps v to pixel coordinates, dropping Z. Coordinates outside
// [0, 255] saturate; coordinates past the surface edge are left to the
// drawing code to clip.
func Project(v Vertex) Point {
	return Point{
		X: saturate(math.Round(v.X*Scale + CenterX)),
		Y: saturate(math.Round(v.Y*Scale + CenterY)),
	}
}

func saturate(f float64) uint8 {
	switch {
	case f <= 0 || math.IsNaN(f):
		return 0
	case f >= math.MaxUint8:
		return math.MaxUint8
	}
	return uint8(f)
}
