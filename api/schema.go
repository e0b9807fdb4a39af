package api

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptyPath     = errors.New("asset path is empty")
	ErrDuplicatePath = errors.New("duplicate asset path")
)

// Manifest is the list of assets to warm at startup.
type Manifest struct {
	// Version of the manifest schema.
	Version string `json:"version,omitempty" yaml:"version,omitempty" hcl:"version,optional"`
	// Assets in declaration order.
	Assets []Asset `json:"assets" yaml:"assets" hcl:"asset,block"`
}

// Asset is one manifest entry. Lower Priority loads first.
type Asset struct {
	// Path is the cache key and the location on the asset origin.
	Path string `json:"path" yaml:"path" hcl:"path"`
	// Priority orders the preload run; ties keep declaration order.
	Priority int `json:"priority" yaml:"priority" hcl:"priority,optional"`
	// Name is the display name. In HCL it is the block label.
	Name string `json:"name,omitempty" yaml:"name,omitempty" hcl:"name,label"`
}

// DefaultManifest is the built-in manifest used when none is configured.
func DefaultManifest() Manifest {
	return Manifest{
		Version: "v1",
		Assets: []Asset{
			{Path: "/mox.glb", Priority: 1, Name: "Primary model"},
		},
	}
}

// Sorted returns the assets ordered by ascending priority. The manifest is
// not modified.
func (m Manifest) Sorted() []Asset {
	out := make([]Asset, len(m.Assets))
	copy(out, m.Assets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Validate rejects entries without a path and repeated paths.
func (m Manifest) Validate() error {
	seen := make(map[string]int, len(m.Assets))
	for i, a := range m.Assets {
		if a.Path == "" {
			return fmt.Errorf("asset %d (%q): %w", i, a.Name, ErrEmptyPath)
		}
		if j, ok := seen[a.Path]; ok {
			return fmt.Errorf("asset %d and %d: %w: %s", j, i, ErrDuplicatePath, a.Path)
		}
		seen[a.Path] = i
	}
	return nil
}
