// Package glb decodes binary glTF payloads into scene assets.
package glb

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/agentic-research/assetcache/internal/scene"
)

var (
	ErrNoScene   = errors.New("document has no scene")
	ErrBadIndex  = errors.New("index out of range")
	ErrCycle     = errors.New("node hierarchy contains a cycle")
	ErrMalformed = errors.New("malformed payload")
)

// DecodeError reports a payload that was fetched but could not be parsed
// as a glTF scene.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a GLB payload fetched for key. The root is the document's
// default scene, or the first scene when none is marked. Animation clips
// are attached to the asset and every drawable node casts and receives
// shadows. Payloads whose accessors or views point outside their buffers
// are reported as a DecodeError.
func Decode(key string, payload []byte) (asset *scene.Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			asset = nil
			err = &DecodeError{Key: key, Err: fmt.Errorf("%w: %v", ErrMalformed, r)}
		}
	}()

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(payload)).Decode(doc); err != nil {
		return nil, &DecodeError{Key: key, Err: err}
	}

	b := &builder{
		doc:       doc,
		materials: make(map[int]*scene.Material),
		textures:  make(map[int]*scene.Texture),
		visiting:  make(map[int]bool),
	}
	root, err := b.scene()
	if err != nil {
		return nil, &DecodeError{Key: key, Err: err}
	}
	clips, err := b.animations()
	if err != nil {
		return nil, &DecodeError{Key: key, Err: err}
	}

	root.Meshes(func(n *scene.Node, _ *scene.Mesh) {
		n.CastShadow = true
		n.ReceiveShadow = true
	})

	return &scene.Asset{Key: key, Root: root, Animations: clips}, nil
}

// builder converts one document. Materials and textures are memoized so
// that primitives referencing the same glTF material share one handle.
type builder struct {
	doc       *gltf.Document
	materials map[int]*scene.Material
	textures  map[int]*scene.Texture
	visiting  map[int]bool
}

func (b *builder) scene() (*scene.Node, error) {
	if len(b.doc.Scenes) == 0 {
		return nil, ErrNoScene
	}
	idx := 0
	if b.doc.Scene != nil && int(*b.doc.Scene) < len(b.doc.Scenes) {
		idx = int(*b.doc.Scene)
	}
	s := b.doc.Scenes[idx]

	root := scene.NewGroup(s.Name)
	for _, ni := range s.Nodes {
		n, err := b.node(int(ni))
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, n)
	}
	return root, nil
}

func (b *builder) node(i int) (*scene.Node, error) {
	if i < 0 || i >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node %d: %w", i, ErrBadIndex)
	}
	if b.visiting[i] {
		return nil, fmt.Errorf("node %d: %w", i, ErrCycle)
	}
	b.visiting[i] = true
	defer delete(b.visiting, i)

	gn := b.doc.Nodes[i]
	var (
		n   *scene.Node
		err error
	)
	if gn.Mesh != nil {
		n, err = b.mesh(gn.Name, int(*gn.Mesh))
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
	} else {
		n = scene.NewGroup(gn.Name)
	}

	for _, ci := range gn.Children {
		child, err := b.node(int(ci))
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// mesh maps a glTF mesh to a single mesh node, or to a group of mesh nodes
// when it has several primitives.
func (b *builder) mesh(name string, i int) (*scene.Node, error) {
	if i < 0 || i >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d: %w", i, ErrBadIndex)
	}
	gm := b.doc.Meshes[i]
	if name == "" {
		name = gm.Name
	}

	if len(gm.Primitives) == 1 {
		return b.primitive(name, gm.Primitives[0])
	}
	group := scene.NewGroup(name)
	for pi, p := range gm.Primitives {
		child, err := b.primitive(fmt.Sprintf("%s_%d", name, pi), p)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", i, pi, err)
		}
		group.Children = append(group.Children, child)
	}
	return group, nil
}

func (b *builder) primitive(name string, p *gltf.Primitive) (*scene.Node, error) {
	geom := &scene.Geometry{}

	if ai, ok := p.Attributes[gltf.POSITION]; ok {
		acr, err := b.accessor(int(ai))
		if err != nil {
			return nil, err
		}
		pos, err := modeler.ReadPosition(b.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("read positions: %w", err)
		}
		geom.Positions = make([]mgl32.Vec3, len(pos))
		for k, v := range pos {
			geom.Positions[k] = mgl32.Vec3(v)
		}
	}
	if p.Indices != nil {
		acr, err := b.accessor(int(*p.Indices))
		if err != nil {
			return nil, err
		}
		indices, err := modeler.ReadIndices(b.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		geom.Indices = indices
	}

	var mat *scene.Material
	if p.Material != nil {
		m, err := b.material(int(*p.Material))
		if err != nil {
			return nil, err
		}
		mat = m
	} else {
		mat = scene.NewMaterial("default")
	}
	return scene.NewMesh(name, geom, mat), nil
}

func (b *builder) accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", i, ErrBadIndex)
	}
	return b.doc.Accessors[i], nil
}

// material maps metallicRoughnessTexture onto both the roughness and the
// metalness slot, the way glTF packs them into one image.
func (b *builder) material(i int) (*scene.Material, error) {
	if m, ok := b.materials[i]; ok {
		return m, nil
	}
	if i < 0 || i >= len(b.doc.Materials) {
		return nil, fmt.Errorf("material %d: %w", i, ErrBadIndex)
	}
	gm := b.doc.Materials[i]
	m := scene.NewMaterial(gm.Name)

	var err error
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			if m.Map, err = b.texture(int(pbr.BaseColorTexture.Index)); err != nil {
				return nil, err
			}
		}
		if pbr.MetallicRoughnessTexture != nil {
			t, err := b.texture(int(pbr.MetallicRoughnessTexture.Index))
			if err != nil {
				return nil, err
			}
			m.RoughnessMap = t
			m.MetalnessMap = t
		}
	}
	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		if m.NormalMap, err = b.texture(int(*gm.NormalTexture.Index)); err != nil {
			return nil, err
		}
	}

	b.materials[i] = m
	return m, nil
}

func (b *builder) texture(i int) (*scene.Texture, error) {
	if t, ok := b.textures[i]; ok {
		return t, nil
	}
	if i < 0 || i >= len(b.doc.Textures) {
		return nil, fmt.Errorf("texture %d: %w", i, ErrBadIndex)
	}
	gt := b.doc.Textures[i]
	t := scene.NewTexture(gt.Name)

	if gt.Source != nil {
		si := int(*gt.Source)
		if si < 0 || si >= len(b.doc.Images) {
			return nil, fmt.Errorf("image %d: %w", si, ErrBadIndex)
		}
		img := b.doc.Images[si]
		if t.Name == "" {
			t.Name = img.Name
		}
		t.MimeType = img.MimeType
		if img.BufferView != nil {
			data, err := b.bufferView(int(*img.BufferView))
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", si, err)
			}
			t.Image = data
		}
	}

	b.textures[i] = t
	return t, nil
}

func (b *builder) bufferView(i int) ([]byte, error) {
	if i < 0 || i >= len(b.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d: %w", i, ErrBadIndex)
	}
	bv := b.doc.BufferViews[i]
	bi := int(bv.Buffer)
	if bi < 0 || bi >= len(b.doc.Buffers) {
		return nil, fmt.Errorf("buffer %d: %w", bi, ErrBadIndex)
	}
	data := b.doc.Buffers[bi].Data
	start, end := int(bv.ByteOffset), int(bv.ByteOffset)+int(bv.ByteLength)
	if start < 0 || end > len(data) || start > end {
		return nil, fmt.Errorf("buffer view %d [%d:%d] of %d bytes: %w", i, start, end, len(data), ErrBadIndex)
	}
	return data[start:end], nil
}

// animations reads clip names, channel counts and durations. The duration
// is the largest keyframe time declared by any sampler input accessor.
func (b *builder) animations() ([]scene.Clip, error) {
	var clips []scene.Clip
	for ai, ga := range b.doc.Animations {
		clip := scene.Clip{Name: ga.Name, Channels: len(ga.Channels)}
		if clip.Name == "" {
			clip.Name = fmt.Sprintf("animation_%d", ai)
		}
		for _, s := range ga.Samplers {
			acr, err := b.accessor(int(s.Input))
			if err != nil {
				return nil, fmt.Errorf("animation %d: %w", ai, err)
			}
			if len(acr.Max) > 0 {
				clip.Duration = max(clip.Duration, float32(acr.Max[0]))
			}
		}
		clips = append(clips, clip)
	}
	return clips, nil
}
