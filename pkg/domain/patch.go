package domain

// Patch is a partial update to an element's State.
// Only the fields that are set are touched. Maps are deep-merged: every leaf of
// the patch overwrites its path in the stored state and siblings are kept.
type Patch struct {
	Style      map[string]any `json:"style,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Appearance map[string]any `json:"appearance,omitempty"`
	Parent     *string        `json:"parent,omitempty"`
	Alias      *string        `json:"alias,omitempty"`
}

// StylePatch builds a patch that only touches the style map.
func StylePatch(style map[string]any) Patch {
	return Patch{Style: style}
}

// ParentPatch builds a patch that only moves the element.
func ParentPatch(parent string) Patch {
	return Patch{Parent: &parent}
}

// HasData reports whether the patch touches anything other than the parent.
func (p Patch) HasData() bool {
	return p.Style != nil || p.Properties != nil || p.Appearance != nil || p.Alias != nil
}

// IsEmpty reports whether the patch touches nothing at all.
func (p Patch) IsEmpty() bool {
	return !p.HasData() && p.Parent == nil
}

// Apply merges the patch into s.
func (p Patch) Apply(s *State) {
	if p.Style != nil {
		s.Style = mergeInto(s.Style, p.Style)
	}
	if p.Properties != nil {
		s.Properties = mergeInto(s.Properties, p.Properties)
	}
	if p.Appearance != nil {
		s.Appearance = mergeInto(s.Appearance, p.Appearance)
	}
	if p.Alias != nil {
		s.Alias = *p.Alias
	}
	if p.Parent != nil {
		s.Parent = *p.Parent
	}
}

// mergeInto walks src depth-first and writes each leaf into dst.
// Intermediate maps are created on demand; a nested map in src never replaces
// the corresponding map in dst wholesale. An empty nested map writes nothing.
func mergeInto(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for k, v := range src {
		nested, ok := v.(map[string]any)
		if !ok {
			dst[k] = cloneValue(v)
			continue
		}
		if len(nested) == 0 {
			continue
		}
		cur, ok := dst[k].(map[string]any)
		if !ok {
			cur = make(map[string]any)
		}
		dst[k] = mergeInto(cur, nested)
	}
	return dst
}
