package api

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"
)

// DefaultSelector locates the asset list inside a JSON document whose root
// is an object.
const DefaultSelector = "$.assets"

var ErrUnknownFormat = errors.New("unknown manifest format")

// LoadManifest reads and validates a manifest file. The format follows the
// extension: .json, .yaml/.yml or .hcl. selector is a JSONPath applied to
// JSON documents and ignored otherwise.
func LoadManifest(path, selector string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(path, data, selector)
	if err != nil {
		return Manifest{}, err
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes data, using name only to pick the format.
func ParseManifest(name string, data []byte, selector string) (Manifest, error) {
	var (
		m   Manifest
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		m, err = parseJSON(data, selector)
	case ".yaml", ".yml":
		m, err = parseYAML(data)
	case ".hcl":
		err = hclsimple.Decode(filepath.Base(name), data, nil, &m)
	default:
		return Manifest{}, fmt.Errorf("%s: %w %q", name, ErrUnknownFormat, ext)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", name, err)
	}
	return m, nil
}

func parseJSON(data []byte, selector string) (Manifest, error) {
	root, err := oj.Parse(data)
	if err != nil {
		return Manifest{}, err
	}

	var m Manifest
	if obj, ok := root.(map[string]any); ok {
		if v, ok := obj["version"].(string); ok {
			m.Version = v
		}
	}

	items, isList := root.([]any)
	if selector != "" || !isList {
		if selector == "" {
			selector = DefaultSelector
		}
		x, err := jp.ParseString(selector)
		if err != nil {
			return Manifest{}, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
		}
		items = x.Get(root)
		// "$.assets" yields the array itself, "$.assets[*]" its elements.
		if len(items) == 1 {
			if inner, ok := items[0].([]any); ok {
				items = inner
			}
		}
	}

	m.Assets = make([]Asset, 0, len(items))
	for i, item := range items {
		a, err := assetFromJSON(item)
		if err != nil {
			return Manifest{}, fmt.Errorf("asset %d: %w", i, err)
		}
		m.Assets = append(m.Assets, a)
	}
	return m, nil
}

func assetFromJSON(v any) (Asset, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Asset{}, fmt.Errorf("want object, got %T", v)
	}
	var a Asset
	if p, ok := obj["path"].(string); ok {
		a.Path = p
	}
	if n, ok := obj["name"].(string); ok {
		a.Name = n
	}
	switch p := obj["priority"].(type) {
	case nil:
	case int64:
		a.Priority = int(p)
	case float64:
		if p != math.Trunc(p) {
			return Asset{}, fmt.Errorf("priority %v is not an integer", p)
		}
		a.Priority = int(p)
	default:
		return Asset{}, fmt.Errorf("priority has type %T", p)
	}
	return a, nil
}

func parseYAML(data []byte) (Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if len(doc.Content) == 0 {
		return m, nil
	}
	body := doc.Content[0]
	if body.Kind == yaml.SequenceNode {
		err := body.Decode(&m.Assets)
		return m, err
	}
	err := body.Decode(&m)
	return m, err
}
