package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/blockloom/pkg/domain"
)

// Overlay carries execution progress to visualize on the graph.
type Overlay struct {
	Applied int // entries [0, Applied) succeeded
	Failed  int // index of the failed entry, -1 for none
}

// GenerateMermaid produces a Mermaid flowchart of a plan. Each entry is a node
// labelled with its index, target path and unit count:
// - root-level entries: ((Circle))
// - nested entries: [Rectangle]
// Edges point from the latest earlier entry whose path is a prefix of the
// target, i.e. the call that must run first.
func GenerateMermaid(plan *domain.Plan, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if plan == nil {
		return sb.String()
	}

	for i, e := range plan.Entries {
		opener, closer := "[", "]"
		if len(e.Path) == 0 {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"#%d %s <br/> %d units\"%s\n", entryID(i), opener, i, e.Path, len(e.Units), closer))

		if dep := dependency(plan.Entries, i); dep >= 0 {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", entryID(dep), entryID(i)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef applied fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")
		for i := 0; i < overlay.Applied && i < len(plan.Entries); i++ {
			sb.WriteString(fmt.Sprintf("    class %s applied;\n", entryID(i)))
		}
		if overlay.Failed >= 0 && overlay.Failed < len(plan.Entries) {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", entryID(overlay.Failed)))
		}
	}

	return sb.String()
}

func entryID(i int) string {
	return fmt.Sprintf("e%d", i)
}

func dependency(entries []domain.PlanEntry, i int) int {
	target := entries[i].Path
	if len(target) == 0 {
		return -1
	}
	for j := i - 1; j >= 0; j-- {
		p := entries[j].Path
		if len(p) < len(target) && target[:len(p)].Equal(p) {
			return j
		}
	}
	return -1
}
