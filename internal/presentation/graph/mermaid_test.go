package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/blockloom/internal/presentation/graph"
	"github.com/aretw0/blockloom/pkg/domain"
)

func units(n int) []domain.Block {
	return make([]domain.Block, n)
}

func TestGenerateMermaid(t *testing.T) {
	plan := &domain.Plan{Entries: []domain.PlanEntry{
		{Path: domain.Path{}, Units: units(100)},
		{Path: domain.Path{}, Units: units(50)},
		{Path: domain.Path{3}, Units: units(50)},
		{Path: domain.Path{3, 0, 0}, Units: units(2)},
	}}

	tests := []struct {
		name     string
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Entry Shapes",
			contains: []string{
				"e0((\"#0 / <br/> 100 units\"))",
				"e2[\"#2 /3 <br/> 50 units\"]",
			},
		},
		{
			name: "Dependencies",
			contains: []string{
				"e1 --> e2",
				"e2 --> e3",
			},
			excludes: []string{
				"--> e0",
				"--> e1",
			},
		},
		{
			name:    "Overlay",
			overlay: &graph.Overlay{Applied: 2, Failed: 2},
			contains: []string{
				"class e0 applied;",
				"class e1 applied;",
				"class e2 failed;",
			},
			excludes: []string{
				"class e3",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(plan, tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("missing header:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("expected output not to contain %q, got:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestGenerateMermaid_NilPlan(t *testing.T) {
	if got := graph.GenerateMermaid(nil, nil); got != "graph TD\n" {
		t.Errorf("unexpected output %q", got)
	}
}
