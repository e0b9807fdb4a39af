package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Box is an axis-aligned bounding box. An empty box has Min > Max.
type Box struct {
	Min, Max mgl32.Vec3
}

// EmptyBox returns a box that contains nothing and expands on first Extend.
func EmptyBox() Box {
	inf := float32(math.Inf(1))
	return Box{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// Extend grows the box to include p.
func (b Box) Extend(p mgl32.Vec3) Box {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Center returns the midpoint of a non-empty box.
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Sphere is a bounding sphere. Radius < 0 marks an empty sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// Geometry is a vertex/index buffer pair. Bounding volumes are nil until
// computed.
type Geometry struct {
	Positions []mgl32.Vec3
	Indices   []uint32

	BoundingBox    *Box
	BoundingSphere *Sphere

	disposed bool
}

// VertexCount returns the number of entries in the position buffer.
func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

// ComputeBoundingBox recomputes BoundingBox from the position buffer.
func (g *Geometry) ComputeBoundingBox() {
	box := EmptyBox()
	for _, p := range g.Positions {
		box = box.Extend(p)
	}
	g.BoundingBox = &box
}

// ComputeBoundingSphere recomputes BoundingSphere: centered on the box
// center, radius reaching the farthest vertex.
func (g *Geometry) ComputeBoundingSphere() {
	if len(g.Positions) == 0 {
		g.BoundingSphere = &Sphere{Radius: -1}
		return
	}
	box := EmptyBox()
	for _, p := range g.Positions {
		box = box.Extend(p)
	}
	center := box.Center()
	var r2 float32
	for _, p := range g.Positions {
		d := p.Sub(center)
		r2 = max(r2, d.Dot(d))
	}
	g.BoundingSphere = &Sphere{Center: center, Radius: float32(math.Sqrt(float64(r2)))}
}

// Dispose releases the vertex and index buffers.
func (g *Geometry) Dispose() {
	g.Positions = nil
	g.Indices = nil
	g.disposed = true
}

// Disposed reports whether Dispose has been called.
func (g *Geometry) Disposed() bool { return g.disposed }
