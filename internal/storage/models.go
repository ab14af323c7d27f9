package storage

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User holds account and profile data. Profile fields feed design
// personalization and are all optional.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	Name           string
	Gender         string // "male", "female", "other"
	Age            int
	MaritalStatus  string // "single", "married", "engaged"
	Segment        string // "economic", "middle", "premium", "luxury"
	Region         string // "north", "central", "south", "foreign"
	Nationality    string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Conversation struct {
	ID          string
	UserID      string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Message is one conversation turn. Artifact, ToolCalls, and Meta are stored
// as embedded JSON blobs, not foreign keys, so every row is a complete
// replayable snapshot.
type Message struct {
	ID             string
	ConversationID string
	Role           string // "user", "assistant"
	Content        string
	Images         []string // stored image ids
	ToolCalls      json.RawMessage
	Artifact       json.RawMessage
	Meta           json.RawMessage
	CreatedAt      time.Time
}

// Image is an uploaded or generated image, stored inline.
type Image struct {
	ID             string
	UserID         string
	Filename       string
	ContentType    string
	Data           []byte
	ConversationID string // empty when not tied to a conversation
	CreatedAt      time.Time
}

// Session is a bearer-token session. Token holds a SHA-256 digest of the
// issued token, never the token itself.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}
