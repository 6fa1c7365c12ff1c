package ports

import (
	"context"
	"time"
)

// Series lifecycle event types.
const (
	SeriesEventCreated = "SERIES_CREATED"
	SeriesEventToggled = "SERIES_TOGGLED"
)

// SeriesEvent notifies downstream consumers about series lifecycle changes.
type SeriesEvent struct {
	EventType        string    `json:"eventType"`
	SeriesID         string    `json:"seriesID"`
	CurrencyCode     string    `json:"currencyCode"`
	ProviderSeriesID string    `json:"providerSeriesID"`
	Enabled          bool      `json:"enabled"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// SeriesEventPublisher publishes series lifecycle events to the message bus.
// Publishing is best effort: failures must not fail the originating operation.
type SeriesEventPublisher interface {
	PublishSeriesEvent(ctx context.Context, event SeriesEvent) error
}
