// Package geom provides the bounding-volume primitives used for spatial
// queries: axis-aligned boxes, spheres, planes, view frustums and rays.
//
// All tests are conservative: an undefined (inverted) box is treated as
// lying outside every volume and containing nothing.
package geom

// Intersection is the result of a containment test between two volumes.
type Intersection uint8

const (
	// Outside means the tested volume is fully outside.
	Outside Intersection = iota
	// Intersects means the tested volume is partially inside.
	Intersects
	// Inside means the tested volume is fully inside.
	Inside
)

// String returns a human-readable name.
func (i Intersection) String() string {
	switch i {
	case Outside:
		return "outside"
	case Intersects:
		return "intersects"
	case Inside:
		return "inside"
	default:
		return "unknown"
	}
}
