// Package producer delivers telemetry events to Kafka.
package producer

import (
	"context"

	"github.com/kaikyMoura/Schedule-Pro-API-sub000/internal/telemetry"
)

// Producer delivers telemetry events to an external broker. Close must be
// called on shutdown to flush buffered messages.
type Producer interface {
	Emit(ctx context.Context, event *telemetry.Event) error
	Close() error
}
