// Package scene holds decoded 3D assets as a tree of group and mesh nodes.
// Mesh nodes own GPU-side handles (geometry buffers, materials, textures)
// that must be released explicitly with Dispose.
package scene

import "fmt"

// Kind tags a Node. Traversal code switches on it instead of probing fields.
type Kind uint8

const (
	KindGroup Kind = iota
	KindMesh
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Node is one element of the scene hierarchy.
// Mesh is set iff Kind == KindMesh. Both kinds may have children.
type Node struct {
	Name     string
	Kind     Kind
	Children []*Node
	Mesh     *Mesh

	CastShadow    bool
	ReceiveShadow bool
}

// Mesh is the drawable payload of a mesh node. Single-material meshes
// carry exactly one entry in Materials.
type Mesh struct {
	Geometry  *Geometry
	Materials []*Material
}

// NewGroup returns a group node with the given children.
func NewGroup(name string, children ...*Node) *Node {
	return &Node{Name: name, Kind: KindGroup, Children: children}
}

// NewMesh returns a mesh node drawing g with the given materials.
func NewMesh(name string, g *Geometry, materials ...*Material) *Node {
	return &Node{
		Name: name,
		Kind: KindMesh,
		Mesh: &Mesh{Geometry: g, Materials: materials},
	}
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Meshes calls fn for every drawable node under n. Mesh nodes missing
// their payload are skipped.
func (n *Node) Meshes(fn func(*Node, *Mesh)) {
	n.Walk(func(node *Node) {
		switch node.Kind {
		case KindMesh:
			if node.Mesh != nil {
				fn(node, node.Mesh)
			}
		case KindGroup:
		}
	})
}

// Clip is an animation clip attached to an asset root.
type Clip struct {
	Name     string
	Duration float32 // seconds
	Channels int
}

// Asset is a decoded asset: the scene root plus its animation clips.
type Asset struct {
	Key        string
	Root       *Node
	Animations []Clip
}

// Footprint counts the vertices (from position buffers) and the texture
// slots (base color, normal, roughness, metalness) used by drawable nodes.
// A texture bound to several slots is counted once per slot.
func (a *Asset) Footprint() (vertices, textures int) {
	if a == nil {
		return 0, 0
	}
	a.Root.Meshes(func(_ *Node, m *Mesh) {
		if m.Geometry != nil {
			vertices += m.Geometry.VertexCount()
		}
		for _, mat := range m.Materials {
			textures += mat.TextureCount()
		}
	})
	return vertices, textures
}

// Counts returns the number of nodes and drawable nodes in the asset.
func (a *Asset) Counts() (nodes, meshes int) {
	if a == nil {
		return 0, 0
	}
	a.Root.Walk(func(n *Node) {
		nodes++
		if n.Kind == KindMesh && n.Mesh != nil {
			meshes++
		}
	})
	return nodes, meshes
}

// Dispose releases every GPU-side resource owned by the asset's drawable
// nodes: geometry buffers, the four texture slots and the materials.
// Disposing twice is harmless.
func (a *Asset) Dispose() {
	if a == nil {
		return
	}
	a.Root.Meshes(func(_ *Node, m *Mesh) {
		if m.Geometry != nil {
			m.Geometry.Dispose()
		}
		for _, mat := range m.Materials {
			if mat == nil {
				continue
			}
			for _, t := range mat.Textures() {
				t.Dispose()
			}
			mat.Dispose()
		}
	})
}
