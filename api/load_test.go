package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonManifest = `{
  "version": "v1",
  "assets": [
    {"path": "/a.glb", "priority": 2, "name": "A"},
    {"path": "/b.glb", "priority": 1, "name": "B"}
  ]
}`

const yamlManifest = `version: v1
assets:
  - path: /a.glb
    priority: 2
    name: A
  - path: /b.glb
    priority: 1
    name: B
`

const hclManifest = `version = "v1"

asset "A" {
  path     = "/a.glb"
  priority = 2
}

asset "B" {
  path     = "/b.glb"
  priority = 1
}
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadManifest_FormatsAgree(t *testing.T) {
	want := Manifest{
		Version: "v1",
		Assets: []Asset{
			{Path: "/a.glb", Priority: 2, Name: "A"},
			{Path: "/b.glb", Priority: 1, Name: "B"},
		},
	}

	tests := []struct {
		file string
		body string
	}{
		{"assets.json", jsonManifest},
		{"assets.yaml", yamlManifest},
		{"assets.yml", yamlManifest},
		{"assets.hcl", hclManifest},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := LoadManifest(writeFile(t, tt.file, tt.body), "")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseManifest_JSONRootArray(t *testing.T) {
	m, err := ParseManifest("m.json", []byte(`[{"path": "/x.glb", "priority": 3}]`), "")
	require.NoError(t, err)
	assert.Equal(t, []Asset{{Path: "/x.glb", Priority: 3}}, m.Assets)
}

func TestParseManifest_JSONSelector(t *testing.T) {
	doc := `{
  "app": {"title": "viewer"},
  "preload": {"models": [
    {"path": "/m1.glb", "priority": 1, "name": "one"},
    {"path": "/m2.glb", "priority": 1.0, "name": "two"}
  ]}
}`
	for _, sel := range []string{"$.preload.models", "$.preload.models[*]"} {
		t.Run(sel, func(t *testing.T) {
			m, err := ParseManifest("app.json", []byte(doc), sel)
			require.NoError(t, err)
			require.Len(t, m.Assets, 2)
			assert.Equal(t, "/m2.glb", m.Assets[1].Path)
			assert.Equal(t, 1, m.Assets[1].Priority)
		})
	}
}

func TestParseManifest_Errors(t *testing.T) {
	_, err := ParseManifest("m.toml", []byte(""), "")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = ParseManifest("m.json", []byte(`{"assets": [`), "")
	assert.Error(t, err)

	_, err = ParseManifest("m.json", []byte(`{"assets": [1]}`), "")
	assert.Error(t, err)

	_, err = ParseManifest("m.json", []byte(`{"assets": [{"path": "/a", "priority": 1.5}]}`), "")
	assert.Error(t, err)

	_, err = ParseManifest("m.json", []byte(`{"assets": []}`), "$[")
	assert.Error(t, err)

	_, err = ParseManifest("m.hcl", []byte(`asset "A" {}`), "")
	assert.Error(t, err, "path is required")
}

func TestLoadManifest_Validates(t *testing.T) {
	_, err := LoadManifest(writeFile(t, "m.json", `[{"path": "/a.glb"}, {"path": "/a.glb"}]`), "")
	assert.ErrorIs(t, err, ErrDuplicatePath)

	_, err = LoadManifest(writeFile(t, "m.json", `[{"name": "nameless"}]`), "")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSorted_StableAscending(t *testing.T) {
	m := Manifest{Assets: []Asset{
		{Path: "/two", Priority: 2},
		{Path: "/one-a", Priority: 1},
		{Path: "/three", Priority: 3},
		{Path: "/one-b", Priority: 1},
	}}

	var paths []string
	for _, a := range m.Sorted() {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{"/one-a", "/one-b", "/two", "/three"}, paths)
	assert.Equal(t, "/two", m.Assets[0].Path, "manifest left untouched")
}

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()
	require.NoError(t, m.Validate())
	assert.Equal(t, []Asset{{Path: "/mox.glb", Priority: 1, Name: "Primary model"}}, m.Assets)
}
