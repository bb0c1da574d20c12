package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/thinkgear/pkg/plugin"
)

var reportersCmd = &cobra.Command{
	Use:   "reporters",
	Short: "List the available reporter types",
	Run: func(cmd *cobra.Command, args []string) {
		listReporters(cmd.OutOrStdout())
	},
}

func listReporters(w io.Writer) {
	for _, name := range plugin.ListReporters() {
		fmt.Fprintln(w, name)
	}
}
