package main

import (
	"fmt"

	"github.com/go-sod/perfml/internal/buildinfo"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), buildinfo.Graffiti)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %s\n", buildinfo.Info.Name(), buildinfo.Info.Tag(), buildinfo.Info.Time())
	},
}
