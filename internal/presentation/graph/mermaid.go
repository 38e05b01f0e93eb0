package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// Overlay contains runtime state to visualize on the tree.
type Overlay struct {
	Mounted []string
	Pending []string
}

// GenerateMermaid produces a Mermaid flowchart of the element tree.
// Shapes:
// - Root: ((Circle))
// - Element with children: [[Subroutine]]
// - Leaf: [Rectangle]
// Elements whose parent is missing hang off a dotted edge.
func GenerateMermaid(snap domain.Snapshot, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", sanitizeMermaidID(domain.RootID), domain.RootID))

	ids := make([]string, 0, len(snap))
	hasChildren := make(map[string]bool)
	for id, el := range snap {
		ids = append(ids, id)
		hasChildren[el.State.Parent] = true
	}
	sort.Strings(ids)

	var orphans []string
	for _, id := range ids {
		el := snap[id]
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		if hasChildren[id] {
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label(el), closer))

		parent := el.State.Parent
		_, known := snap[parent]
		arrow := "-->"
		if parent != domain.RootID && !known {
			arrow = "-.->"
			orphans = append(orphans, safeID)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(parent), arrow, safeID))
	}

	if len(orphans) > 0 {
		sb.WriteString("    classDef orphan stroke:#d32f2f,stroke-dasharray:4 2,color:#000;\n")
		for _, id := range orphans {
			sb.WriteString(fmt.Sprintf("    class %s orphan;\n", id))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light fills in both themes
		sb.WriteString("    classDef mounted fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef pending fill:#fff8e1,stroke:#f9a825,stroke-width:2px,stroke-dasharray:3 3,color:#000;\n")
		writeClass(&sb, overlay.Mounted, "mounted")
		writeClass(&sb, overlay.Pending, "pending")
	}

	return sb.String()
}

func label(el domain.ElementState) string {
	name := el.ID
	if el.State.Alias != "" {
		name = el.State.Alias
	}
	return strings.ReplaceAll(fmt.Sprintf("%s <br/> %s", name, el.CompKey), "\"", "'")
}

func writeClass(sb *strings.Builder, ids []string, class string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", safeID, class))
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
