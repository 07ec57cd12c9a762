package geometry

import "math"

// DefaultGap is the space left between an arrowhead and the node circle.
const DefaultGap = 3.0

// Point is a screen-space coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a drawable edge path
type Segment struct {
	Source Point `json:"source"`
	Target Point `json:"target"`
}

// TrimEdgeToBoundary returns where an edge from (sx, sy) to (tx, ty) should
// stop so that it ends radius+gap short of the target center, along the
// line between the two centers. Coincident centers trim along +x.
func TrimEdgeToBoundary(sx, sy, tx, ty, radius, gap float64) Point {
	angle := math.Atan2(ty-sy, tx-sx)
	offset := radius + gap
	return Point{
		X: tx - offset*math.Cos(angle),
		Y: ty - offset*math.Sin(angle),
	}
}

// TrimEdge trims both ends so neither endpoint sits inside its node.
func TrimEdge(source, target Point, sourceRadius, targetRadius, gap float64) Segment {
	return Segment{
		Source: TrimEdgeToBoundary(target.X, target.Y, source.X, source.Y, sourceRadius, gap),
		Target: TrimEdgeToBoundary(source.X, source.Y, target.X, target.Y, targetRadius, gap),
	}
}
