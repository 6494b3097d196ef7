package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "corkboard"

// Metrics holds all Corkboard metric instruments.
type Metrics struct {
	EventsDelivered    metric.Int64Counter
	EventsDropped      metric.Int64Counter
	TasksMoved         metric.Int64Counter
	ActivitiesRecorded metric.Int64Counter
	ActivitiesMerged   metric.Int64Counter
	RoomOccupancy      metric.Int64UpDownCounter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.EventsDelivered, err = meter.Int64Counter("corkboard.events.delivered",
		metric.WithDescription("Frames delivered to room members"))
	if err != nil {
		return nil, err
	}

	m.EventsDropped, err = meter.Int64Counter("corkboard.events.dropped",
		metric.WithDescription("Frames dropped because a connection's send queue overflowed"))
	if err != nil {
		return nil, err
	}

	m.TasksMoved, err = meter.Int64Counter("corkboard.tasks.moved",
		metric.WithDescription("Task move/reorder operations committed"))
	if err != nil {
		return nil, err
	}

	m.ActivitiesRecorded, err = meter.Int64Counter("corkboard.activities.recorded",
		metric.WithDescription("Activity rows inserted"))
	if err != nil {
		return nil, err
	}

	m.ActivitiesMerged, err = meter.Int64Counter("corkboard.activities.merged",
		metric.WithDescription("Activity records merged into an open entry"))
	if err != nil {
		return nil, err
	}

	m.RoomOccupancy, err = meter.Int64UpDownCounter("corkboard.rooms.occupancy",
		metric.WithDescription("Connections currently joined to project rooms"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
