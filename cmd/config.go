package cmd

import (
	"fmt"
	"log/slog"

	"firestige.xyz/thinkgear/internal/config"
	"firestige.xyz/thinkgear/pkg/plugin"
)

// loadConfig reads path, or the built-in defaults when path is empty.
func loadConfig(path string) (*config.GlobalConfig, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// buildReporters creates and initializes the configured reporters and
// their fallbacks. On error the reporters created so far are discarded.
func buildReporters(cfgs []config.ReporterConfig) ([]plugin.Reporter, map[plugin.Reporter]plugin.Reporter, error) {
	reporters := make([]plugin.Reporter, 0, len(cfgs))
	fallbacks := make(map[plugin.Reporter]plugin.Reporter)
	for i, rc := range cfgs {
		r, err := plugin.NewReporter(rc.Type, rc.Options)
		if err != nil {
			return nil, nil, fmt.Errorf("reporters[%d]: %w", i, err)
		}
		slog.Debug("reporter created", "type", rc.Type)
		reporters = append(reporters, r)

		if rc.Fallback == nil {
			continue
		}
		fb, err := plugin.NewReporter(rc.Fallback.Type, rc.Fallback.Options)
		if err != nil {
			return nil, nil, fmt.Errorf("reporters[%d].fallback: %w", i, err)
		}
		slog.Debug("fallback reporter created", "type", rc.Type, "fallback", rc.Fallback.Type)
		fallbacks[r] = fb
	}
	return reporters, fallbacks, nil
}
