package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"gopkg.in/yaml.v3"
)

// CatalogFile represents the structure of catalog.yaml
type CatalogFile struct {
	Categories []domain.Category `yaml:"categories" json:"categories"`
}

// LoadCatalog reads a catalog file (YAML or JSON) into a new Registry.
// A missing file yields an empty registry.
func LoadCatalog(path string) (*Registry, error) {
	reg := NewRegistry()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var cfg CatalogFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse catalog.json: %w", err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse catalog.yaml: %w", err)
		}
	}

	seen := make(map[string]string)
	for _, c := range cfg.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("catalog category without a name")
		}
		for _, el := range c.Elements {
			if el.Key == "" {
				return nil, fmt.Errorf("catalog element without a key in category %q", c.Name)
			}
			if prev, dup := seen[el.Key]; dup {
				return nil, fmt.Errorf("duplicate element key %q in categories %q and %q", el.Key, prev, c.Name)
			}
			seen[el.Key] = c.Name
		}
		if _, err := reg.RegisterCategory(c); err != nil {
			return nil, fmt.Errorf("registering category %q: %w", c.Name, err)
		}
	}
	return reg, nil
}

// Builtin returns a registry with the basic canvas elements.
func Builtin() *Registry {
	reg := NewRegistry()
	reg.RegisterCategory(domain.Category{
		Name: "Basic",
		Elements: []domain.DesignElement{
			{Key: "Button", Name: "Button", Pkg: domain.DefaultPkg, Defaults: domain.State{
				Properties: map[string]any{"text": "Button"},
			}},
			{Key: "Text", Name: "Text", Pkg: domain.DefaultPkg, Defaults: domain.State{
				Properties: map[string]any{"text": "Text"},
			}},
			{Key: "TextInputbox", Name: "Text Input", Pkg: domain.DefaultPkg, Defaults: domain.State{
				Properties: map[string]any{"Value": ""},
			}},
		},
	})
	reg.RegisterCategory(domain.Category{
		Name: "Layout",
		Elements: []domain.DesignElement{
			{Key: "Container", Name: "Container", Pkg: domain.DefaultPkg, Defaults: domain.State{
				Style: map[string]any{"display": "flex"},
			}},
		},
	})
	return reg
}
