// Package plugin defines plugin interfaces.
package plugin

import (
	"context"

	"firestige.xyz/thinkgear/internal/core"
)

// Reporter delivers decoded readings to an external system.
type Reporter interface {
	Plugin
	Report(ctx context.Context, r *core.Reading) error
	Flush(ctx context.Context) error
}

// BatchReporter is an optional interface for reporters that deliver many
// readings in one call (e.g. one Kafka produce request). Reporters without
// it receive readings one by one through Report.
type BatchReporter interface {
	Reporter
	ReportBatch(ctx context.Context, rs []*core.Reading) error
}
