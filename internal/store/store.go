package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// BroadcastTarget is the sentinel recipient meaning "visible to everyone".
const BroadcastTarget = "Todos"

// MessageType classifies chat log entries.
type MessageType string

const (
	// MessageTypeChat is a regular broadcast-eligible message.
	MessageTypeChat MessageType = "message"
	// MessageTypePrivate is visible only to sender and recipient.
	MessageTypePrivate MessageType = "private_message"
	// MessageTypeStatus is a system-generated join/leave notice.
	// Status messages are immutable and undeletable.
	MessageTypeStatus MessageType = "status"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Participant is a current room member.
type Participant struct {
	Name          string
	LastHeartbeat time.Time
}

// Message is a persisted chat log entry.
type Message struct {
	ID        string // stable for the message's lifetime
	From      string
	To        string
	Text      string
	Type      MessageType
	CreatedAt time.Time
}

// VisibleTo reports whether requester may see the message.
// Private messages are restricted to sender and recipient; everything
// else is broadcast. Name comparison is case-insensitive, consistent
// with participant uniqueness.
func (m *Message) VisibleTo(requester string) bool {
	if m.Type != MessageTypePrivate {
		return true
	}
	if m.To == BroadcastTarget {
		return true
	}
	return strings.EqualFold(requester, m.From) || strings.EqualFold(requester, m.To)
}

// Store is the persistence boundary for room membership and the
// message log. Implementations own durability; callers never cache.
type Store interface {
	// CreateParticipant inserts p and its join notice as one
	// transaction. Returns ErrConflict if a participant with the same
	// name (case-insensitive) already exists.
	CreateParticipant(ctx context.Context, p *Participant, notice *Message) error
	// GetParticipant looks up a participant by name, case-insensitively.
	GetParticipant(ctx context.Context, name string) (*Participant, error)
	// ListParticipants returns all current participants, unordered.
	ListParticipants(ctx context.Context) ([]*Participant, error)
	// TouchParticipant refreshes the participant's heartbeat.
	// Returns ErrNotFound if no participant matches.
	TouchParticipant(ctx context.Context, name string, at time.Time) error
	// RemoveParticipant deletes the participant and inserts its
	// departure notice as one transaction. Returns ErrNotFound if the
	// participant is already gone.
	RemoveParticipant(ctx context.Context, name string, notice *Message) error

	// InsertMessage appends a message to the log.
	InsertMessage(ctx context.Context, m *Message) error
	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id string) (*Message, error)
	// ListMessages returns messages visible to requester in
	// chronological order, oldest first. A positive limit selects the
	// most recent N; limit <= 0 returns the full filtered history.
	ListMessages(ctx context.Context, requester string, limit int) ([]*Message, error)
	// UpdateMessage overwrites to/text/type/created_at of the message
	// with m.ID, keeping its position in the log.
	UpdateMessage(ctx context.Context, m *Message) error
	// DeleteMessage removes a message by ID.
	DeleteMessage(ctx context.Context, id string) error

	Close() error
}
