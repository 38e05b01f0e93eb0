package domain

// RootID is the synthetic parent of every top-level element on the canvas.
const RootID = "root"

// State is the serializable, user-editable part of an element.
type State struct {
	Style      map[string]any `json:"style" yaml:"style" mapstructure:"style"`
	Properties map[string]any `json:"properties" yaml:"properties" mapstructure:"properties"`
	Appearance map[string]any `json:"appearance" yaml:"appearance" mapstructure:"appearance"`
	Parent     string         `json:"parent" yaml:"parent" mapstructure:"parent"`
	Alias      string         `json:"alias,omitempty" yaml:"alias,omitempty" mapstructure:"alias"`
}

// NewState returns an empty state attached to parent.
func NewState(parent string) State {
	if parent == "" {
		parent = RootID
	}
	return State{
		Style:      make(map[string]any),
		Properties: make(map[string]any),
		Appearance: make(map[string]any),
		Parent:     parent,
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{
		Style:      cloneMap(s.Style),
		Properties: cloneMap(s.Properties),
		Appearance: cloneMap(s.Appearance),
		Parent:     s.Parent,
		Alias:      s.Alias,
	}
}

// ElementState is a single node of the design tree.
type ElementState struct {
	ID      string `json:"id"`
	CompKey string `json:"compKey"`
	Pkg     string `json:"pkg"`
	State   State  `json:"state"`
}

// Clone returns a deep copy of the element.
func (e ElementState) Clone() ElementState {
	e.State = e.State.Clone()
	return e
}

// Snapshot is the persisted form of the design tree, keyed by element ID.
type Snapshot map[string]ElementState

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
