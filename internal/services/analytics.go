package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/events"
	"github.com/SAP-F-2025/homework-service/internal/utils"
)

// analyticsEmitter publishes events fire-and-forget. The triggering
// operation never waits on the publish and never sees its error.
type analyticsEmitter struct {
	publisher events.Publisher
	logger    utils.Logger
}

func (a analyticsEmitter) emit(event *events.AnalyticsEvent) {
	if a.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.publisher.Publish(ctx, event); err != nil {
			a.logger.Debug("analytics event dropped",
				"event_type", event.Type,
				"error", err)
		}
	}()
}
