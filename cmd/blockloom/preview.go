package main

import (
	"fmt"
	"os"

	"github.com/aretw0/blockloom/internal/compiler"
	"github.com/aretw0/blockloom/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <document>",
	Short: "Render a document as markdown in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		style, _ := cmd.Flags().GetString("style")

		blocks, err := compiler.CompileFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to compile %s: %w", args[0], err)
		}
		md := tui.Markdown(blocks)

		var out string
		if style != "" {
			out, err = tui.RenderStyled(md, style)
		} else {
			var render func(string) (string, error)
			if render, err = tui.NewRenderer(os.Stdout); err == nil {
				out, err = render(md)
			}
		}
		if err != nil {
			return fmt.Errorf("failed to render preview: %w", err)
		}

		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().String("style", "", "Force a glamour style (dark, light, notty); detected from the terminal by default")
}
