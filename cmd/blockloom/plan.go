package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/blockloom"
	"github.com/aretw0/blockloom/internal/presentation/graph"
	"github.com/aretw0/blockloom/pkg/adapters/memory"
	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/spf13/cobra"
)

// planCmd prints the calls a document needs without contacting the store.
var planCmd = &cobra.Command{
	Use:   "plan <document>",
	Short: "Show the append calls a document compiles to",
	Long:  `Compiles the document and prints the bounded append calls as text, JSON or a Mermaid diagram (graph TD).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		content, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		w := blockloom.New(memory.NewStore(), blockloom.WithLogger(logger))
		plan, err := w.Plan(cmd.Context(), content)
		if err != nil {
			return err
		}

		return printPlan(cmd.OutOrStdout(), plan, format)
	},
}

type planEntryView struct {
	Path  string `json:"path"`
	Units int    `json:"units"`
	Nodes int    `json:"nodes"`
}

type planView struct {
	Calls   int             `json:"calls"`
	Nodes   int             `json:"nodes"`
	Entries []planEntryView `json:"entries"`
}

func printPlan(out io.Writer, plan *domain.Plan, format string) error {
	switch format {
	case "text":
		fmt.Fprintf(out, "%d calls, %d nodes\n", plan.Calls(), plan.Nodes())
		for i, e := range plan.Entries {
			fmt.Fprintf(out, "%4d  %-12s %3d units  %4d nodes\n", i, e.Path, len(e.Units), e.Nodes())
		}
		return nil
	case "json":
		view := planView{Calls: plan.Calls(), Nodes: plan.Nodes(), Entries: make([]planEntryView, len(plan.Entries))}
		for i, e := range plan.Entries {
			view.Entries[i] = planEntryView{Path: e.Path.String(), Units: len(e.Units), Nodes: e.Nodes()}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "mermaid":
		fmt.Fprint(out, graph.GenerateMermaid(plan, nil))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or mermaid)", format)
	}
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringP("format", "f", "text", "Output format: text, json or mermaid")
}
