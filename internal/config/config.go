// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"firestige.xyz/thinkgear/internal/core"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `thinkgear:` root key in YAML.
type GlobalConfig struct {
	Source    SourceConfig     `mapstructure:"source"`
	Decoder   DecoderConfig    `mapstructure:"decoder"`
	Reporters []ReporterConfig `mapstructure:"reporters"`
	Report    ReportConfig     `mapstructure:"report"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
	Log       LogConfig        `mapstructure:"log"`
}

// ─── Source ───

// SourceConfig selects where the headset byte stream comes from.
type SourceConfig struct {
	Name        string        `mapstructure:"name"`         // Label on readings, logs and metrics
	Type        string        `mapstructure:"type"`         // file | tcp | pcap | mock
	Path        string        `mapstructure:"path"`         // file, pcap: file or character device (/dev/rfcomm0)
	Address     string        `mapstructure:"address"`      // tcp: host:port of a serial bridge
	DialTimeout time.Duration `mapstructure:"dial_timeout"` // tcp
	ReadTimeout time.Duration `mapstructure:"read_timeout"` // Per-record bound, 0 = wait forever
	BufferSize  int           `mapstructure:"buffer_size"`
	Pcap        PcapConfig    `mapstructure:"pcap"`
	Mock        MockConfig    `mapstructure:"mock"`
}

// PcapConfig selects the relayed stream inside a capture file.
type PcapConfig struct {
	Port uint16 `mapstructure:"port"` // TCP/UDP port carrying the stream, 0 = any
}

// MockConfig configures the synthetic headset.
type MockConfig struct {
	RawRateHz     int     `mapstructure:"raw_rate_hz"`    // Raw wave frames per second
	AggregateRate int     `mapstructure:"aggregate_rate"` // Raw frames between aggregate frames
	CorruptRatio  float64 `mapstructure:"corrupt_ratio"`  // Fraction of frames with a flipped bit
	Seed          int64   `mapstructure:"seed"`
	Frames        int     `mapstructure:"frames"` // Stop after this many frames, 0 = endless
}

// ─── Decoder ───

// DecoderConfig controls what the pipeline does with decoded records.
type DecoderConfig struct {
	Classify   bool `mapstructure:"classify"`    // Attach wave_sample / aggregate variants
	MaxRecords int  `mapstructure:"max_records"` // Stop after this many records, 0 = unbounded
}

// ─── Reporters ───

// ReporterConfig selects a reporter plugin and its options.
type ReporterConfig struct {
	Type     string          `mapstructure:"type"` // console | jsonl | kafka
	Options  map[string]any  `mapstructure:"options"`
	Fallback *FallbackConfig `mapstructure:"fallback"` // Receives readings this reporter fails to deliver
}

// FallbackConfig selects the reporter that takes over failed deliveries,
// e.g. a jsonl file behind a kafka reporter.
type FallbackConfig struct {
	Type    string         `mapstructure:"type"`
	Options map[string]any `mapstructure:"options"`
}

// ReportConfig controls how readings are queued and batched per reporter.
type ReportConfig struct {
	BatchSize    int           `mapstructure:"batch_size"`    // Readings per delivery
	BatchTimeout time.Duration `mapstructure:"batch_timeout"` // Flush a partial batch after this long
	QueueSize    int           `mapstructure:"queue_size"`    // Readings buffered per reporter
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`   // debug / info / warn / error
	Format  string           `mapstructure:"format"`  // json / text / pattern
	Pattern string           `mapstructure:"pattern"` // pattern format only
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains log output destinations besides stdout.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `thinkgear: ...`.
type configRoot struct {
	ThinkGear GlobalConfig `mapstructure:"thinkgear"`
}

// Load loads configuration from file.
// The YAML file uses `thinkgear:` as root key; env vars use the THINKGEAR_ prefix
// (e.g., THINKGEAR_SOURCE_TYPE, THINKGEAR_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return load(v)
}

// Default returns the configuration used when no file is given.
func Default() (*GlobalConfig, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*GlobalConfig, error) {
	// key "thinkgear.log.level" → env "THINKGEAR_LOG_LEVEL"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.ThinkGear

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "thinkgear." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("thinkgear.source.type", "file")
	v.SetDefault("thinkgear.source.path", "/dev/rfcomm0")
	v.SetDefault("thinkgear.source.dial_timeout", "5s")
	v.SetDefault("thinkgear.source.read_timeout", "0s")
	v.SetDefault("thinkgear.source.buffer_size", 4096)
	v.SetDefault("thinkgear.source.pcap.port", 0)
	v.SetDefault("thinkgear.source.mock.raw_rate_hz", 512)
	v.SetDefault("thinkgear.source.mock.aggregate_rate", 512)
	v.SetDefault("thinkgear.source.mock.corrupt_ratio", 0.0)
	v.SetDefault("thinkgear.source.mock.seed", 1)
	v.SetDefault("thinkgear.source.mock.frames", 0)

	// Decoder defaults
	v.SetDefault("thinkgear.decoder.classify", true)
	v.SetDefault("thinkgear.decoder.max_records", 0)

	// Report defaults
	v.SetDefault("thinkgear.report.batch_size", 64)
	v.SetDefault("thinkgear.report.batch_timeout", "50ms")
	v.SetDefault("thinkgear.report.queue_size", 4096)

	// Log defaults
	v.SetDefault("thinkgear.log.level", "info")
	v.SetDefault("thinkgear.log.format", "text")
	v.SetDefault("thinkgear.log.pattern", "%time [%level] %caller: %msg %field\n")
	v.SetDefault("thinkgear.log.outputs.file.enabled", false)
	v.SetDefault("thinkgear.log.outputs.file.path", "/var/log/thinkgear/thinkgear.log")
	v.SetDefault("thinkgear.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("thinkgear.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("thinkgear.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("thinkgear.log.outputs.file.rotation.compress", true)

	// Metrics defaults
	v.SetDefault("thinkgear.metrics.enabled", false)
	v.SetDefault("thinkgear.metrics.listen", ":9091")
	v.SetDefault("thinkgear.metrics.path", "/metrics")
}

// MaxMockRateHz bounds the synthetic headset frame rate.
const MaxMockRateHz = 1_000_000

var validSources = map[string]bool{"file": true, "tcp": true, "pcap": true, "mock": true}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: log level %q (must be debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	case "pattern":
		if cfg.Log.Pattern == "" {
			return fmt.Errorf("%w: log.pattern is required when log.format=pattern", core.ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: log format %q (must be json/text/pattern)", core.ErrConfigInvalid, cfg.Log.Format)
	}

	// ── Source validation ──
	src := &cfg.Source
	if !validSources[src.Type] {
		return fmt.Errorf("%w: %q (must be file/tcp/pcap/mock)", core.ErrUnknownSource, src.Type)
	}
	switch src.Type {
	case "file", "pcap":
		if src.Path == "" {
			return fmt.Errorf("%w: source.path is required for source.type=%s", core.ErrConfigInvalid, src.Type)
		}
	case "tcp":
		if src.Address == "" {
			return fmt.Errorf("%w: source.address is required for source.type=tcp", core.ErrConfigInvalid)
		}
	case "mock":
		if src.Mock.RawRateHz <= 0 || src.Mock.RawRateHz > MaxMockRateHz {
			return fmt.Errorf("%w: source.mock.raw_rate_hz must be within (0,%d]", core.ErrConfigInvalid, MaxMockRateHz)
		}
		if src.Mock.CorruptRatio < 0 || src.Mock.CorruptRatio > 1 {
			return fmt.Errorf("%w: source.mock.corrupt_ratio must be within [0,1]", core.ErrConfigInvalid)
		}
	}
	if src.ReadTimeout < 0 || src.DialTimeout < 0 {
		return fmt.Errorf("%w: source timeouts must not be negative", core.ErrConfigInvalid)
	}
	if src.Name == "" {
		src.Name = src.Type
	}

	// ── Decoder validation ──
	if cfg.Decoder.MaxRecords < 0 {
		return fmt.Errorf("%w: decoder.max_records must not be negative", core.ErrConfigInvalid)
	}

	// ── Reporters ──
	if len(cfg.Reporters) == 0 {
		cfg.Reporters = []ReporterConfig{{Type: "console"}}
	}
	for i, r := range cfg.Reporters {
		if r.Type == "" {
			return fmt.Errorf("%w: reporters[%d].type is required", core.ErrConfigInvalid, i)
		}
		if r.Fallback != nil && r.Fallback.Type == "" {
			return fmt.Errorf("%w: reporters[%d].fallback.type is required", core.ErrConfigInvalid, i)
		}
	}

	if cfg.Report.BatchSize < 0 || cfg.Report.BatchTimeout < 0 || cfg.Report.QueueSize < 0 {
		return fmt.Errorf("%w: report batch settings must not be negative", core.ErrConfigInvalid)
	}

	return nil
}
