// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"

	_ "firestige.xyz/thinkgear/plugins"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "thinkgear",
	Short: "thinkgear - ThinkGear EEG headset stream decoder",
	Long: `thinkgear decodes the serial byte stream of a ThinkGear EEG headset into
typed sensor readings: raw wave samples, signal quality, attention and
meditation eSense values, and EEG power bands.

The stream is read from a file or character device (e.g. an RFCOMM binding
set up outside this tool), a TCP serial bridge, a pcap capture of a relayed
stream, or a built-in synthetic headset. Readings are written to the console,
rotating JSONL files or Kafka.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (built-in defaults when empty)")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(reportersCmd)
}
