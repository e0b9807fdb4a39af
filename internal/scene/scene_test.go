package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAsset() *Asset {
	albedo := NewTexture("albedo")
	orm := NewTexture("orm")
	shared := NewMaterial("paint")
	shared.Map = albedo
	shared.RoughnessMap = orm
	shared.MetalnessMap = orm

	body := NewMesh("body", &Geometry{
		Positions: []mgl32.Vec3{{-1, 0, 0}, {1, 0, 0}, {0, 2, 0}},
		Indices:   []uint32{0, 1, 2},
	}, shared)
	wheel := NewMesh("wheel", &Geometry{
		Positions: []mgl32.Vec3{{0, 0, -1}, {0, 0, 1}},
	}, shared)

	return &Asset{
		Key:        "/car.glb",
		Root:       NewGroup("root", body, NewGroup("axle", wheel)),
		Animations: []Clip{{Name: "drive", Duration: 2, Channels: 1}},
	}
}

func TestNode_WalkOrder(t *testing.T) {
	a := newTestAsset()

	var names []string
	a.Root.Walk(func(n *Node) { names = append(names, n.Name) })
	assert.Equal(t, []string{"root", "body", "axle", "wheel"}, names)
}

func TestNode_MeshesSkipsGroupsAndEmptyMeshes(t *testing.T) {
	a := newTestAsset()
	a.Root.Children = append(a.Root.Children, &Node{Name: "broken", Kind: KindMesh})

	var names []string
	a.Root.Meshes(func(n *Node, _ *Mesh) { names = append(names, n.Name) })
	assert.Equal(t, []string{"body", "wheel"}, names)
}

func TestAsset_Footprint(t *testing.T) {
	vertices, textures := newTestAsset().Footprint()
	assert.Equal(t, 5, vertices)
	// two meshes x three bound slots (map, roughness, metalness)
	assert.Equal(t, 6, textures)
}

func TestAsset_Counts(t *testing.T) {
	nodes, meshes := newTestAsset().Counts()
	assert.Equal(t, 4, nodes)
	assert.Equal(t, 2, meshes)
}

func TestAsset_CloneIsIndependent(t *testing.T) {
	orig := newTestAsset()
	dup := orig.Clone()

	require.Equal(t, orig.Key, dup.Key)
	require.Equal(t, orig.Animations, dup.Animations)

	dup.Dispose()
	dup.Animations[0].Name = "changed"

	orig.Root.Meshes(func(n *Node, m *Mesh) {
		assert.False(t, m.Geometry.Disposed(), "%s geometry disposed through clone", n.Name)
		assert.NotEmpty(t, m.Geometry.Positions)
		for _, mat := range m.Materials {
			assert.False(t, mat.Disposed())
			for _, tex := range mat.Textures() {
				assert.False(t, tex.Disposed())
			}
		}
	})
	assert.Equal(t, "drive", orig.Animations[0].Name)
}

func TestAsset_ClonePreservesSharing(t *testing.T) {
	dup := newTestAsset().Clone()

	body := dup.Root.Children[0].Mesh
	wheel := dup.Root.Children[1].Children[0].Mesh
	assert.Same(t, body.Materials[0], wheel.Materials[0])
	assert.Same(t, body.Materials[0].RoughnessMap, body.Materials[0].MetalnessMap)
}

func TestAsset_DisposeReleasesEverything(t *testing.T) {
	a := newTestAsset()
	a.Dispose()
	a.Dispose()

	a.Root.Meshes(func(_ *Node, m *Mesh) {
		assert.True(t, m.Geometry.Disposed())
		assert.Zero(t, m.Geometry.VertexCount())
		for _, mat := range m.Materials {
			assert.True(t, mat.Disposed())
			for _, tex := range mat.Textures() {
				assert.True(t, tex.Disposed())
				assert.Nil(t, tex.Image)
			}
		}
	})
}

func TestGeometry_BoundingVolumes(t *testing.T) {
	g := &Geometry{Positions: []mgl32.Vec3{{-1, -1, -1}, {1, 1, 1}, {0, 3, 0}}}
	g.ComputeBoundingBox()
	g.ComputeBoundingSphere()

	require.NotNil(t, g.BoundingBox)
	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, g.BoundingBox.Min)
	assert.Equal(t, mgl32.Vec3{1, 3, 1}, g.BoundingBox.Max)

	require.NotNil(t, g.BoundingSphere)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, g.BoundingSphere.Center)
	assert.InDelta(t, 2.449, g.BoundingSphere.Radius, 0.001)
}

func TestGeometry_EmptyBounds(t *testing.T) {
	g := &Geometry{}
	g.ComputeBoundingBox()
	g.ComputeBoundingSphere()

	assert.True(t, g.BoundingBox.IsEmpty())
	assert.Less(t, g.BoundingSphere.Radius, float32(0))
}

func TestBox_Union(t *testing.T) {
	a := Box{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	b := Box{Min: mgl32.Vec3{-1, 0, 0}, Max: mgl32.Vec3{0, 2, 0}}

	u := a.Union(b)
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, u.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 1}, u.Max)
	assert.Equal(t, a, a.Union(EmptyBox()))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "group", KindGroup.String())
	assert.Equal(t, "mesh", KindMesh.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
