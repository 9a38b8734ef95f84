// Package sse implements Server-Sent Events for live raid board updates.
package sse

import (
	"time"

	"github.com/raidboard/raidboard-server/internal/domain"
	"github.com/raidboard/raidboard-server/internal/id"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventRaidCreated is sent when a raid is opened.
	EventRaidCreated EventType = "raid.created"
	// EventRaidUpdated is sent after any roster, time or group change.
	EventRaidUpdated EventType = "raid.updated"
	// EventRaidSubjectSet is sent when the raid boss becomes known or changes.
	EventRaidSubjectSet EventType = "raid.subject_set"
	// EventRaidLocationSet is sent when the raid gets a gym.
	EventRaidLocationSet EventType = "raid.location_set"
	// EventRaidDeleted is sent when a raid is removed by command.
	EventRaidDeleted EventType = "raid.deleted"
	// EventRaidEvicted is sent when the sweeper removes a raid.
	EventRaidEvicted EventType = "raid.evicted"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	ID        string    `json:"id"`
	Type      EventType `json:"type"`

	// ChannelID restricts delivery to subscribers of one channel.
	// Empty means every subscriber.
	ChannelID string `json:"-"`
}

// RaidEventData is the payload of created and updated events. CreatorID is set
// on raid.created only.
type RaidEventData struct {
	Raid      domain.Display `json:"raid"`
	CreatorID string         `json:"creator_id,omitempty"`
}

// RaidSubjectSetEventData tells clients whether an egg just hatched.
type RaidSubjectSetEventData struct {
	Raid     domain.Display `json:"raid"`
	SetterID string         `json:"setter_id"`
	WasEgg   bool           `json:"was_egg"`
}

// RaidLocationSetEventData carries the gym the raid moved to.
type RaidLocationSetEventData struct {
	Raid     domain.Display `json:"raid"`
	Gym      domain.Gym     `json:"gym"`
	SetterID string         `json:"setter_id"`
}

// RaidRemovedEventData is the payload of deleted and evicted events.
type RaidRemovedEventData struct {
	RemovedAt time.Time             `json:"removed_at"`
	RaidID    string                `json:"raid_id"`
	Reason    domain.EvictionReason `json:"reason"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newEvent(eventType EventType, channelID string, data any, at time.Time) Event {
	// nanoid only fails when crypto/rand does; the event is still deliverable without an id.
	eventID, _ := id.Generate("evt")
	return Event{
		Type:      eventType,
		ID:        eventID,
		ChannelID: channelID,
		Data:      data,
		Timestamp: at,
	}
}

// NewRaidCreatedEvent creates a raid.created event.
func NewRaidCreatedEvent(d domain.Display, creatorID string, at time.Time) Event {
	return newEvent(EventRaidCreated, d.ChannelID, RaidEventData{Raid: d, CreatorID: creatorID}, at)
}

// NewRaidUpdatedEvent creates a raid.updated event.
func NewRaidUpdatedEvent(d domain.Display, at time.Time) Event {
	return newEvent(EventRaidUpdated, d.ChannelID, RaidEventData{Raid: d}, at)
}

// NewRaidSubjectSetEvent creates a raid.subject_set event.
func NewRaidSubjectSetEvent(d domain.Display, setterID string, wasEgg bool, at time.Time) Event {
	return newEvent(EventRaidSubjectSet, d.ChannelID, RaidSubjectSetEventData{Raid: d, SetterID: setterID, WasEgg: wasEgg}, at)
}

// NewRaidLocationSetEvent creates a raid.location_set event.
func NewRaidLocationSetEvent(d domain.Display, gym domain.Gym, setterID string, at time.Time) Event {
	return newEvent(EventRaidLocationSet, d.ChannelID, RaidLocationSetEventData{Raid: d, Gym: gym, SetterID: setterID}, at)
}

// NewRaidRemovedEvent creates raid.deleted for explicit deletes and raid.evicted otherwise.
func NewRaidRemovedEvent(channelID, raidID string, reason domain.EvictionReason, at time.Time) Event {
	eventType := EventRaidEvicted
	if reason == domain.EvictionDeleted {
		eventType = EventRaidDeleted
	}
	return newEvent(eventType, channelID, RaidRemovedEventData{
		RaidID:    raidID,
		Reason:    reason,
		RemovedAt: at,
	}, at)
}

// NewHeartbeatEvent creates a heartbeat event stamped at.
func NewHeartbeatEvent(at time.Time) Event {
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: at},
		Timestamp: at,
	}
}
