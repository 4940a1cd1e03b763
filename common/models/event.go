package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a notification pushed to subscribers
type EventType string

const (
	EventSignedIn    EventType = "signed_in"
	EventSignedOut   EventType = "signed_out"
	EventTreeChanged EventType = "tree.changed"
)

// Queue topics events are published on
const (
	TopicSession = "session"
	TopicMembers = "members"
)

// Event is a session or tree change notification
type Event struct {
	Type     EventType  `json:"type"`
	UserID   uuid.UUID  `json:"user_id"`
	MemberID *uuid.UUID `json:"member_id,omitempty"`
	Op       string     `json:"op,omitempty"`
	At       time.Time  `json:"at"`
}
