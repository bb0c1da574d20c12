// Package kafka implements the Kafka reporter plugin.
// Publishes readings to a topic with batching, compression and retry support.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"firestige.xyz/thinkgear/internal/core"
	"firestige.xyz/thinkgear/pkg/plugin"
)

const (
	defaultBatchSize    = 100
	defaultBatchTimeout = 100 * time.Millisecond
	defaultCompression  = "snappy"
	defaultMaxAttempts  = 3
	defaultEncoding     = "json"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaReporter publishes readings to Kafka.
type KafkaReporter struct {
	name   string
	writer messageWriter
	config Config

	// Statistics
	reportedCount atomic.Uint64
	errorCount    atomic.Uint64
}

// Config represents Kafka reporter configuration.
type Config struct {
	Brokers      []string      `mapstructure:"brokers"`       // required
	Topic        string        `mapstructure:"topic"`         // required
	BatchSize    int           `mapstructure:"batch_size"`    // optional, default 100
	BatchTimeout time.Duration `mapstructure:"batch_timeout"` // optional, default 100ms
	Compression  string        `mapstructure:"compression"`   // optional: none|gzip|snappy|lz4|zstd, default snappy
	MaxAttempts  int           `mapstructure:"max_attempts"`  // optional, default 3
	Encoding     string        `mapstructure:"encoding"`      // optional: json|proto, default json
}

var _ plugin.BatchReporter = (*KafkaReporter)(nil)

// NewKafkaReporter creates a new Kafka reporter.
func NewKafkaReporter() plugin.Reporter {
	return &KafkaReporter{
		name: "kafka",
	}
}

// Name returns the plugin name.
func (r *KafkaReporter) Name() string {
	return r.name
}

// Init initializes the reporter with configuration.
func (r *KafkaReporter) Init(config map[string]any) error {
	if config == nil {
		return fmt.Errorf("kafka reporter requires configuration")
	}

	cfg := Config{
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		Compression:  defaultCompression,
		MaxAttempts:  defaultMaxAttempts,
		Encoding:     defaultEncoding,
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(config); err != nil {
		return fmt.Errorf("decode kafka options: %w", err)
	}

	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("brokers is required")
	}
	if cfg.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if cfg.Encoding != "json" && cfg.Encoding != "proto" {
		return fmt.Errorf("invalid encoding %q, must be json or proto", cfg.Encoding)
	}

	writerConfig := kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // one partition per source keeps readings ordered
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		Async:        false,
	}

	switch cfg.Compression {
	case "none", "":
		writerConfig.CompressionCodec = nil
	case "gzip":
		writerConfig.CompressionCodec = compress.Gzip.Codec()
	case "snappy":
		writerConfig.CompressionCodec = compress.Snappy.Codec()
	case "lz4":
		writerConfig.CompressionCodec = compress.Lz4.Codec()
	case "zstd":
		writerConfig.CompressionCodec = compress.Zstd.Codec()
	default:
		return fmt.Errorf("invalid compression type: %s", cfg.Compression)
	}

	r.config = cfg
	r.writer = kafka.NewWriter(writerConfig)
	return nil
}

// Start starts the reporter.
func (r *KafkaReporter) Start(ctx context.Context) error {
	slog.Info("kafka reporter started",
		"brokers", r.config.Brokers,
		"topic", r.config.Topic,
		"batch_size", r.config.BatchSize,
		"batch_timeout", r.config.BatchTimeout,
		"compression", r.config.Compression,
		"encoding", r.config.Encoding,
	)
	return nil
}

// Stop closes the writer, flushing pending messages.
func (r *KafkaReporter) Stop(ctx context.Context) error {
	if r.writer != nil {
		if err := r.writer.Close(); err != nil {
			slog.Error("error closing kafka writer", "error", err)
			return err
		}
	}

	slog.Info("kafka reporter stopped",
		"total_reported", r.reportedCount.Load(),
		"total_errors", r.errorCount.Load(),
	)
	return nil
}

// Report publishes one reading, keyed by source name.
func (r *KafkaReporter) Report(ctx context.Context, rd *core.Reading) error {
	return r.ReportBatch(ctx, []*core.Reading{rd})
}

// ReportBatch publishes readings in one produce call.
func (r *KafkaReporter) ReportBatch(ctx context.Context, rs []*core.Reading) error {
	msgs := make([]kafka.Message, 0, len(rs))
	for _, rd := range rs {
		if rd == nil {
			return fmt.Errorf("nil reading")
		}
		msg, err := r.message(rd)
		if err != nil {
			r.errorCount.Add(1)
			return fmt.Errorf("serialize reading failed: %w", err)
		}
		msgs = append(msgs, msg)
	}

	if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
		r.errorCount.Add(uint64(len(msgs)))
		return fmt.Errorf("kafka write failed: %w", err)
	}

	r.reportedCount.Add(uint64(len(msgs)))
	return nil
}

func (r *KafkaReporter) message(rd *core.Reading) (kafka.Message, error) {
	value, err := r.serializeReading(rd)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(rd.Source),
		Value: value,
		Time:  rd.Timestamp,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(rd.Kind())},
			{Key: "seq", Value: []byte(strconv.FormatUint(rd.Seq, 10))},
			{Key: "encoding", Value: []byte(r.config.Encoding)},
		},
	}, nil
}

// Flush is a no-op: writes are synchronous.
func (r *KafkaReporter) Flush(ctx context.Context) error {
	return nil
}

func (r *KafkaReporter) serializeReading(rd *core.Reading) ([]byte, error) {
	fields := rd.Fields()
	if r.config.Encoding == "proto" {
		s, err := structpb.NewStruct(fields)
		if err != nil {
			return nil, err
		}
		return proto.Marshal(s)
	}
	return json.Marshal(fields)
}
