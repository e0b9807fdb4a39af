package cache

import "github.com/agentic-research/assetcache/internal/scene"

// Optimize prepares a decoded asset for rendering, in place. For every
// drawable node it precomputes the geometry's bounding sphere and box,
// clears the material upload flag, and turns off mip-map generation with
// linear minification on base color maps. Nodes without geometry or with
// nil materials are skipped. Running it twice gives the same result.
func Optimize(a *scene.Asset) {
	if a == nil {
		return
	}
	a.Root.Meshes(func(_ *scene.Node, m *scene.Mesh) {
		if m.Geometry != nil {
			m.Geometry.ComputeBoundingSphere()
			m.Geometry.ComputeBoundingBox()
		}
		for _, mat := range m.Materials {
			if mat == nil {
				continue
			}
			mat.NeedsUpdate = false
			if mat.Map != nil {
				mat.Map.GenerateMipmaps = false
				mat.Map.MinFilter = scene.FilterLinear
			}
		}
	})
}
