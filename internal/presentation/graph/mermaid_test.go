package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func element(id, compKey, parent string) domain.ElementState {
	return domain.ElementState{ID: id, CompKey: compKey, Pkg: domain.DefaultPkg, State: domain.NewState(parent)}
}

func TestGenerateMermaid(t *testing.T) {
	aliased := element("el-2", "Button", "el-1")
	aliased.State.Alias = "Submit"

	tests := []struct {
		name        string
		snap        domain.Snapshot
		overlay     *graph.Overlay
		contains    []string
		notContains []string
	}{
		{
			name:     "Root only",
			snap:     domain.Snapshot{},
			contains: []string{"graph TD", "root((\"root\"))"},
		},
		{
			name: "Shapes and edges",
			snap: domain.Snapshot{
				"el-1": element("el-1", "Container", domain.RootID),
				"el-2": aliased,
			},
			contains: []string{
				"el_1[[\"el-1 <br/> Container\"]]",
				"el_2[\"Submit <br/> Button\"]",
				"root --> el_1",
				"el_1 --> el_2",
			},
			notContains: []string{"classDef orphan", "Overlay Styles"},
		},
		{
			name: "Orphan",
			snap: domain.Snapshot{"x": element("x", "Text", "ghost")},
			contains: []string{
				"ghost -.-> x",
				"class x orphan;",
			},
		},
		{
			name: "Overlay",
			snap: domain.Snapshot{
				"a": element("a", "Container", domain.RootID),
				"b": element("b", "Text", "a"),
			},
			overlay: &graph.Overlay{Mounted: []string{"a", "a"}, Pending: []string{"b"}},
			contains: []string{
				"classDef mounted",
				"class a mounted;",
				"class b pending;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(tt.snap, tt.overlay)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, out, s)
			}
			if tt.overlay != nil {
				assert.Equal(t, 1, strings.Count(out, "class a mounted;"))
			}
		})
	}
}
