package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// Source is a citation into an ingested document, returned alongside an
// assistant answer.
type Source struct {
	SourceId string
	File     string
	Page     int
	Summary  string
}

// ChatMessage is one turn in a workspace conversation. Ids are generated
// client-side so a message exists independently of the server round-trip.
// Role is immutable after creation; Sources is only set on assistant turns.
type ChatMessage struct {
	Id        uuid.UUID
	Role      ChatRole
	Content   string
	CreatedAt time.Time
	Sources   []Source
}
