package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is an attendee's position in the raid state machine.
//
//	INTERESTED --(join)--> JOINED
//	JOINED --(check in)--> ARRIVED
//	ARRIVED --(check out)--> JOINED
//	JOINED/ARRIVED --(done)--> COMPLETE
//	COMPLETE --(join)--> JOINED
type Status string

const (
	StatusInterested Status = "interested"
	StatusJoined     Status = "joined"
	StatusArrived    Status = "arrived"
	StatusComplete   Status = "complete"
)

// Statuses lists every status in state-machine order.
var Statuses = []Status{StatusInterested, StatusJoined, StatusArrived, StatusComplete}

// ParseStatus converts a case-insensitive name to a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case StatusInterested, StatusJoined, StatusArrived, StatusComplete:
		return status, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Attendee is one roster entry. It references the chat member rather than wrapping it.
type Attendee struct {
	Member          Member     `json:"member"`
	Status          Status     `json:"status"`
	AdditionalCount int        `json:"additional_count"`
	JoinOrder       int        `json:"join_order"`
	GroupID         string     `json:"group_id,omitempty"`
	JoinedAt        time.Time  `json:"joined_at"`
	ArrivedAt       *time.Time `json:"arrived_at,omitempty"`
}

// Count is the attendee plus their guests.
func (a Attendee) Count() int {
	return 1 + a.AdditionalCount
}

// HasArrived is true while ARRIVED and for COMPLETE attendees who checked in first.
func (a Attendee) HasArrived() bool {
	switch a.Status {
	case StatusArrived:
		return true
	case StatusComplete:
		return a.ArrivedAt != nil
	default:
		return false
	}
}

func (a Attendee) clone() Attendee {
	a.Member = a.Member.clone()
	if a.ArrivedAt != nil {
		arrived := *a.ArrivedAt
		a.ArrivedAt = &arrived
	}
	return a
}
