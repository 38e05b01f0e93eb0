package domain

// DesignElement is the manifest of a component kind that can be placed on the canvas.
// Key is globally unique across categories.
type DesignElement struct {
	Key         string `json:"key" yaml:"key" mapstructure:"key"`
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Pkg         string `json:"pkg,omitempty" yaml:"pkg,omitempty" mapstructure:"pkg"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	// Defaults seeds the state of freshly created elements of this kind.
	Defaults State `json:"defaults" yaml:"defaults" mapstructure:"defaults"`
}

// Category groups design elements in the palette.
type Category struct {
	Name     string          `json:"category" yaml:"category" mapstructure:"category"`
	Elements []DesignElement `json:"elements" yaml:"elements" mapstructure:"elements"`
}

// DefaultPkg is the package every canvas element belongs to unless stated otherwise.
const DefaultPkg = "design"
