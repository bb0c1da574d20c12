package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and check every section,
including the options of each configured reporter. Nothing is opened or sent.

Examples:
  thinkgear validate -c config.yml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(configFile, cmd.OutOrStdout())
	},
}

func runValidate(path string, w io.Writer) error {
	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(w, "INVALID: %v\n", err)
		return err
	}

	reporters, fallbacks, err := buildReporters(cfg.Reporters)
	if err != nil {
		fmt.Fprintf(w, "INVALID: %v\n", err)
		return err
	}
	for _, r := range reporters {
		_ = r.Stop(context.Background())
	}
	for _, fb := range fallbacks {
		_ = fb.Stop(context.Background())
	}

	fmt.Fprintf(w, "VALID: source %q (%s), classify=%t, %d reporter(s)\n",
		cfg.Source.Name, cfg.Source.Type, cfg.Decoder.Classify, len(reporters))
	return nil
}
