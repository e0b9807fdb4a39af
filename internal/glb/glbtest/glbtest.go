// Package glbtest builds small GLB payloads for tests.
package glbtest

import (
	"bytes"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Options shapes the generated document.
type Options struct {
	Meshes     int  // top-level cube nodes, all sharing one material (default 1)
	Textured   bool // bind base color, normal and metallic-roughness textures
	Animations int  // clips, each one channel long, lasting 1.5s
	Scenes     int  // extra empty scenes appended after the main one
	BadOffset  bool // position accessor starts past the end of its buffer view
}

// CubeVertices is the vertex count of one generated cube.
const CubeVertices = 8

var cubePositions = [][3]float32{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

var cubeIndices = []uint16{
	0, 1, 2, 0, 2, 3,
	4, 6, 5, 4, 7, 6,
	0, 4, 5, 0, 5, 1,
	3, 2, 6, 3, 6, 7,
	0, 3, 7, 0, 7, 4,
	1, 5, 6, 1, 6, 2,
}

// Cube returns a GLB holding one untextured cube.
func Cube() []byte {
	return Build(Options{Meshes: 1})
}

// Build encodes a document described by opts. It panics on encoder
// failure, which only happens on programming errors.
func Build(opts Options) []byte {
	if opts.Meshes <= 0 {
		opts.Meshes = 1
	}
	doc := gltf.NewDocument()
	if len(doc.Scenes) == 0 {
		doc.Scenes = []*gltf.Scene{{Name: "Root Scene"}}
	}
	doc.Scene = gltf.Index(0)

	pos := modeler.WritePosition(doc, cubePositions)
	idx := modeler.WriteIndices(doc, cubeIndices)
	if opts.BadOffset {
		doc.Accessors[pos].ByteOffset = 1 << 20
	}

	mat := &gltf.Material{Name: "paint"}
	doc.Materials = []*gltf.Material{mat}
	doc.Meshes = []*gltf.Mesh{{
		Name: "cube",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: pos},
			Indices:    gltf.Index(idx),
			Material:   gltf.Index(0),
		}},
	}}
	for i := 0; i < opts.Meshes; i++ {
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: fmt.Sprintf("cube_%d", i),
			Mesh: gltf.Index(0),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, i)
	}

	for i := 0; i < opts.Animations; i++ {
		doc.Accessors = append(doc.Accessors, &gltf.Accessor{
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorScalar,
			Count:         2,
			Min:           []float64{0},
			Max:           []float64{1.5},
		})
		in := len(doc.Accessors) - 1
		doc.Animations = append(doc.Animations, &gltf.Animation{
			Name:     fmt.Sprintf("clip_%d", i),
			Channels: []*gltf.AnimationChannel{{}},
			Samplers: []*gltf.AnimationSampler{{Input: in, Output: in}},
		})
	}

	for i := 0; i < opts.Scenes; i++ {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: fmt.Sprintf("extra_%d", i)})
	}

	if opts.Textured {
		addTexture(doc)
		mat.PBRMetallicRoughness = &gltf.PBRMetallicRoughness{
			BaseColorTexture:         &gltf.TextureInfo{Index: 0},
			MetallicRoughnessTexture: &gltf.TextureInfo{Index: 0},
		}
		mat.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(0)}
	}

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		panic(fmt.Sprintf("glbtest: encode: %v", err))
	}
	return buf.Bytes()
}

// addTexture appends a fake PNG to the binary buffer and exposes it as
// texture 0.
func addTexture(doc *gltf.Document) {
	img := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if len(doc.Buffers) == 0 {
		doc.Buffers = []*gltf.Buffer{{}}
	}
	buf := doc.Buffers[0]
	offset := len(buf.Data)
	buf.Data = append(buf.Data, img...)
	buf.ByteLength = len(buf.Data)

	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: offset,
		ByteLength: len(img),
	})
	doc.Images = []*gltf.Image{{
		Name:       "albedo",
		MimeType:   "image/png",
		BufferView: gltf.Index(len(doc.BufferViews) - 1),
	}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
}
