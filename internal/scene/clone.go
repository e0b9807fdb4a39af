package scene

import "slices"

// Clone returns a structurally independent copy of the asset. Geometry,
// material and texture handles are duplicated, so disposing or mutating
// the copy never reaches the original. Handles shared inside the original
// stay shared inside the copy.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	c := cloner{
		geometries: make(map[*Geometry]*Geometry),
		materials:  make(map[*Material]*Material),
		textures:   make(map[*Texture]*Texture),
	}
	return &Asset{
		Key:        a.Key,
		Root:       c.node(a.Root),
		Animations: slices.Clone(a.Animations),
	}
}

type cloner struct {
	geometries map[*Geometry]*Geometry
	materials  map[*Material]*Material
	textures   map[*Texture]*Texture
}

func (c *cloner) node(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Name:          n.Name,
		Kind:          n.Kind,
		CastShadow:    n.CastShadow,
		ReceiveShadow: n.ReceiveShadow,
	}
	switch n.Kind {
	case KindMesh:
		if n.Mesh != nil {
			out.Mesh = &Mesh{Geometry: c.geometry(n.Mesh.Geometry)}
			for _, m := range n.Mesh.Materials {
				out.Mesh.Materials = append(out.Mesh.Materials, c.material(m))
			}
		}
	case KindGroup:
	}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = c.node(child)
		}
	}
	return out
}

func (c *cloner) geometry(g *Geometry) *Geometry {
	if g == nil {
		return nil
	}
	if dup, ok := c.geometries[g]; ok {
		return dup
	}
	dup := &Geometry{
		Positions: slices.Clone(g.Positions),
		Indices:   slices.Clone(g.Indices),
		disposed:  g.disposed,
	}
	if g.BoundingBox != nil {
		box := *g.BoundingBox
		dup.BoundingBox = &box
	}
	if g.BoundingSphere != nil {
		sphere := *g.BoundingSphere
		dup.BoundingSphere = &sphere
	}
	c.geometries[g] = dup
	return dup
}

func (c *cloner) material(m *Material) *Material {
	if m == nil {
		return nil
	}
	if dup, ok := c.materials[m]; ok {
		return dup
	}
	dup := &Material{
		Name:         m.Name,
		NeedsUpdate:  m.NeedsUpdate,
		Map:          c.texture(m.Map),
		NormalMap:    c.texture(m.NormalMap),
		RoughnessMap: c.texture(m.RoughnessMap),
		MetalnessMap: c.texture(m.MetalnessMap),
		disposed:     m.disposed,
	}
	c.materials[m] = dup
	return dup
}

func (c *cloner) texture(t *Texture) *Texture {
	if t == nil {
		return nil
	}
	if dup, ok := c.textures[t]; ok {
		return dup
	}
	dup := *t
	c.textures[t] = &dup
	return &dup
}
