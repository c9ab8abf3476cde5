package core

import "github.com/gfranca/batepapo-server/internal/store"

// EventKind is a notification the core emits to stream clients.
type EventKind int

const (
	// EventMessage notifies clients about a new chat message.
	EventMessage EventKind = iota
	// EventParticipantJoined notifies clients about a participant joining.
	EventParticipantJoined
	// EventParticipantLeft notifies clients about a participant leaving.
	EventParticipantLeft
)

// Event describes something that happened in the room. Join and leave
// events carry the status notice that was appended to the log.
type Event struct {
	Kind    EventKind
	Message store.Message
}
