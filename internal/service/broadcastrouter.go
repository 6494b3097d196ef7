package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	cbotel "github.com/corkboard/corkboard/internal/adapter/otel"
	"github.com/corkboard/corkboard/internal/port/broadcast"
	"github.com/corkboard/corkboard/internal/port/messagequeue"
)

// BroadcastRouter turns mutation notifications into addressed wire events.
//
// Mutation events go to every connection in the project room except the
// actor's originating connection. Suppression is per connection, not per
// user, so the actor's second open tab still hears about the change.
// Presence events go to every room member with no suppression.
//
// Delivery is at-most-once and best-effort. A connection whose send queue
// is full gets kicked instead of queued behind; it will re-fetch full state
// on reconnect. The router never returns errors to its callers: delivery
// failures are logged per connection and isolated there.
type BroadcastRouter struct {
	presence *Presence
	relay    messagequeue.Queue
	metrics  *cbotel.Metrics
}

// NewBroadcastRouter creates the router. relay and metrics may be nil.
func NewBroadcastRouter(presence *Presence, relay messagequeue.Queue, metrics *cbotel.Metrics) *BroadcastRouter {
	return &BroadcastRouter{presence: presence, relay: relay, metrics: metrics}
}

// NewMeta builds the actor envelope attached to every mutation payload.
func (r *BroadcastRouter) NewMeta(actorID string) broadcast.Meta {
	return broadcast.Meta{UserID: actorID, Timestamp: time.Now().UTC()}
}

// Notify fans a mutation event out to the project room, excluding the
// actor's own connection. actorConnID may be empty (e.g. for mutations
// arriving over plain HTTP with no live connection); then nothing is
// suppressed server-side and clients fall back to the meta envelope.
func (r *BroadcastRouter) Notify(ctx context.Context, eventType, projectID string, payload any, actorConnID string) {
	r.deliver(ctx, eventType, projectID, payload, actorConnID)
	r.relayEvent(ctx, eventType, projectID, payload)
}

// Announce fans a presence event out to every room member, the actor's own
// connections included: seeing yourself in a presence sync is not an echo.
func (r *BroadcastRouter) Announce(ctx context.Context, eventType, projectID string, payload any) {
	r.deliver(ctx, eventType, projectID, payload, "")
}

func (r *BroadcastRouter) deliver(ctx context.Context, eventType, projectID string, payload any, excludeConnID string) {
	frame, err := json.Marshal(broadcast.Event{Type: eventType, Payload: payload})
	if err != nil {
		slog.Error("marshal event", "type", eventType, "error", err)
		return
	}

	conns := r.presence.Connections(projectID)
	_, span := cbotel.StartBroadcastSpan(ctx, eventType, projectID, len(conns))
	defer span.End()

	for _, c := range conns {
		if c.ID() == excludeConnID {
			continue
		}
		if !c.Enqueue(frame) {
			slog.Warn("send queue overflow, dropping connection",
				"conn_id", c.ID(),
				"user_id", c.UserID(),
				"type", eventType,
			)
			if r.metrics != nil {
				r.metrics.EventsDropped.Add(ctx, 1)
			}
			c.Kick("send queue overflow")
			continue
		}
		if r.metrics != nil {
			r.metrics.EventsDelivered.Add(ctx, 1)
		}
	}
}

// relayEvent publishes a copy of the event to NATS for external consumers.
// Best-effort: the in-room delivery above is authoritative.
func (r *BroadcastRouter) relayEvent(ctx context.Context, eventType, projectID string, payload any) {
	if r.relay == nil {
		return
	}
	data, err := json.Marshal(broadcast.Event{Type: eventType, Payload: payload})
	if err != nil {
		return
	}
	subject := messagequeue.SubjectEvents + "." + projectID
	if err := r.relay.Publish(ctx, subject, data); err != nil {
		slog.Debug("relay event", "subject", subject, "error", err)
	}
}

// SyncRoom recomputes and announces the room's presence snapshot. Called
// after every join, leave and disconnect.
func (r *BroadcastRouter) SyncRoom(ctx context.Context, projectID string) {
	r.Announce(ctx, EventPresenceSync, projectID, PresenceSyncPayload{
		ProjectID: projectID,
		Users:     r.presence.Snapshot(projectID),
	})
}

// EditingStarted announces a new editing focus to the room.
func (r *BroadcastRouter) EditingStarted(ctx context.Context, projectID, taskID, field string, u RoomUser) {
	r.Announce(ctx, EventEditingActive, projectID, EditingActivePayload{
		TaskID: taskID,
		Field:  field,
		User:   u,
	})
}

// EditingStopped announces a cleared editing focus to the room.
func (r *BroadcastRouter) EditingStopped(ctx context.Context, projectID, taskID, field, userID string) {
	r.Announce(ctx, EventEditingInactive, projectID, EditingInactivePayload{
		TaskID: taskID,
		Field:  field,
		UserID: userID,
	})
}
