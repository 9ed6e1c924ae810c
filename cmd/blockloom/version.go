package main

import (
	"fmt"

	"github.com/aretw0/blockloom"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of blockloom",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "blockloom version %s\n", blockloom.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
