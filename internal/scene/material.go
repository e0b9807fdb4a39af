package scene

// Filter is a texture minification filter.
type Filter uint8

const (
	FilterLinearMipmapLinear Filter = iota
	FilterLinear
	FilterNearest
)

// Texture is a GPU texture handle. Image holds the encoded source bytes,
// which are never mutated and may be shared between clones.
type Texture struct {
	Name     string
	MimeType string
	Image    []byte

	GenerateMipmaps bool
	MinFilter       Filter

	disposed bool
}

// NewTexture returns a texture with mip-mapping enabled.
func NewTexture(name string) *Texture {
	return &Texture{
		Name:            name,
		GenerateMipmaps: true,
		MinFilter:       FilterLinearMipmapLinear,
	}
}

// Dispose releases the texture's GPU memory.
func (t *Texture) Dispose() {
	t.Image = nil
	t.disposed = true
}

// Disposed reports whether Dispose has been called.
func (t *Texture) Disposed() bool { return t.disposed }

// Material is a PBR material with four texture slots.
type Material struct {
	Name string

	// NeedsUpdate asks the renderer to re-upload the material.
	NeedsUpdate bool

	Map          *Texture // base color
	NormalMap    *Texture
	RoughnessMap *Texture
	MetalnessMap *Texture

	disposed bool
}

// NewMaterial returns a material flagged for upload.
func NewMaterial(name string) *Material {
	return &Material{Name: name, NeedsUpdate: true}
}

// Textures returns the bound texture slots in slot order. A texture bound
// to two slots appears twice.
func (m *Material) Textures() []*Texture {
	if m == nil {
		return nil
	}
	var out []*Texture
	for _, t := range [...]*Texture{m.Map, m.NormalMap, m.RoughnessMap, m.MetalnessMap} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// TextureCount returns the number of bound texture slots.
func (m *Material) TextureCount() int {
	return len(m.Textures())
}

// Dispose releases the material program. Textures are released separately.
func (m *Material) Dispose() {
	m.disposed = true
}

// Disposed reports whether Dispose has been called.
func (m *Material) Disposed() bool { return m.disposed }
