package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// MarkdownTree renders the element tree as a nested markdown list.
// Elements not reachable from the root are listed under "Detached".
func MarkdownTree(snap domain.Snapshot) string {
	children := make(map[string][]string)
	for id, el := range snap {
		children[el.State.Parent] = append(children[el.State.Parent], id)
	}
	for _, ids := range children {
		sort.Strings(ids)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Canvas\n\n%d element(s)\n\n", len(snap))

	seen := make(map[string]bool)
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if seen[id] {
			return
		}
		seen[id] = true
		writeItem(&sb, snap[id], depth)
		for _, child := range children[id] {
			walk(child, depth+1)
		}
	}
	for _, id := range children[domain.RootID] {
		walk(id, 0)
	}

	var detached []string
	for id := range snap {
		if !seen[id] {
			detached = append(detached, id)
		}
	}
	if len(detached) > 0 {
		sort.Strings(detached)
		sb.WriteString("\n## Detached\n\n")
		for _, id := range detached {
			writeItem(&sb, snap[id], 0)
		}
	}
	return sb.String()
}

func writeItem(sb *strings.Builder, el domain.ElementState, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s- `%s` **%s**", indent, el.ID, el.CompKey)
	if el.State.Alias != "" {
		fmt.Fprintf(sb, " _%s_", el.State.Alias)
	}
	if text, ok := el.State.Properties["text"].(string); ok && text != "" {
		fmt.Fprintf(sb, " %q", text)
	}
	sb.WriteString("\n")
}
