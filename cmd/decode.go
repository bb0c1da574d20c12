package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"firestige.xyz/thinkgear/internal/config"
	"firestige.xyz/thinkgear/internal/log"
	"firestige.xyz/thinkgear/internal/metrics"
	"firestige.xyz/thinkgear/internal/pipeline"
	"firestige.xyz/thinkgear/internal/source"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a headset stream and report readings",
	Long: `Open the configured source, decode frames until the stream ends or the
process is interrupted, and deliver every reading to the configured reporters.

Examples:
  thinkgear decode -c /etc/thinkgear/config.yml
  thinkgear decode --source mock --max-records 1024`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configFile)
		if err != nil {
			return err
		}
		if err := applyDecodeFlags(cmd, cfg); err != nil {
			return err
		}
		if err := log.Init(cfg.Log); err != nil {
			return fmt.Errorf("failed to init logging: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDecode(ctx, cfg)
	},
}

var (
	decodeSource     string
	decodePath       string
	decodeMaxRecords int
	decodeNoClassify bool
)

func init() {
	decodeCmd.Flags().StringVar(&decodeSource, "source", "", "override source.type (file|tcp|pcap|mock)")
	decodeCmd.Flags().StringVar(&decodePath, "path", "", "override source.path (file and pcap) or source.address (tcp)")
	decodeCmd.Flags().IntVarP(&decodeMaxRecords, "max-records", "n", 0, "stop after this many records")
	decodeCmd.Flags().BoolVar(&decodeNoClassify, "no-classify", false, "report records without classification")
}

func applyDecodeFlags(cmd *cobra.Command, cfg *config.GlobalConfig) error {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source.Type = decodeSource
		cfg.Source.Name = ""
	}
	if flags.Changed("path") {
		if cfg.Source.Type == "tcp" {
			cfg.Source.Address = decodePath
		} else {
			cfg.Source.Path = decodePath
		}
	}
	if flags.Changed("max-records") {
		cfg.Decoder.MaxRecords = decodeMaxRecords
	}
	if decodeNoClassify {
		cfg.Decoder.Classify = false
	}
	return cfg.ValidateAndApplyDefaults()
}

// runDecode wires source, pipeline, reporters and the metrics server and
// blocks until the pipeline ends.
func runDecode(ctx context.Context, cfg *config.GlobalConfig) error {
	reporters, fallbacks, err := buildReporters(cfg.Reporters)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			return srv.Stop(context.Background())
		})
	}

	stream, err := source.Open(ctx, cfg.Source)
	if err != nil {
		cancel()
		if werr := g.Wait(); werr != nil {
			slog.Error("shutdown failed", "error", werr)
		}
		return err
	}

	// Closing the stream unblocks reads on sources without deadline support.
	g.Go(func() error {
		<-ctx.Done()
		return stream.Close()
	})

	b := pipeline.NewBuilder().
		FromConfig(cfg).
		WithStream(stream).
		WithReporters(reporters...)
	for primary, fb := range fallbacks {
		b.WithFallback(primary, fb)
	}
	p := b.Build()

	g.Go(func() error {
		defer cancel()
		return p.Run(ctx)
	})

	return g.Wait()
}
