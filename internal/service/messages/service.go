package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gfranca/batepapo-server/internal/core"
	"github.com/gfranca/batepapo-server/internal/sanitize"
	"github.com/gfranca/batepapo-server/internal/store"
)

// Common errors for message log operations.
var (
	ErrInvalid       = errors.New("invalid message")
	ErrUnknownSender = errors.New("sender is not in the room")
	ErrNotFound      = errors.New("message not found")
	ErrNotOwner      = errors.New("not the message owner")
)

// Service is the append-mostly chat log: insertion, visibility-filtered
// reads, and ownership-checked point edits and deletes.
type Service struct {
	store store.Store
	hub   *core.Hub
}

// New creates a message log service.
func New(st store.Store, hub *core.Hub) *Service {
	return &Service{
		store: st,
		hub:   hub,
	}
}

// Post appends a message from a registered participant. All string
// fields are sanitized before storage; type must be message or
// private_message.
func (s *Service) Post(ctx context.Context, from, to, text string, typ store.MessageType) (*store.Message, error) {
	sender := sanitize.Clean(from)
	if sender == "" {
		return nil, ErrUnknownSender
	}
	if _, err := s.store.GetParticipant(ctx, sender); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownSender
		}
		return nil, fmt.Errorf("lookup sender: %w", err)
	}

	cleanTo, cleanText, err := cleanBody(to, text, typ)
	if err != nil {
		return nil, err
	}

	msg := &store.Message{
		ID:        uuid.NewString(),
		From:      sender,
		To:        cleanTo,
		Text:      cleanText,
		Type:      typ,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	s.hub.Broadcast(core.Event{Kind: core.EventMessage, Message: *msg})
	return msg, nil
}

// List returns the messages visible to requester, oldest first. A
// positive limit selects the most recent N.
func (s *Service) List(ctx context.Context, requester string, limit int) ([]*store.Message, error) {
	return s.store.ListMessages(ctx, sanitize.Clean(requester), limit)
}

// Update overwrites a message's recipient, text and type, refreshing
// its timestamp but keeping its position in the log. Only the sender
// may edit, and status notices are never editable.
func (s *Service) Update(ctx context.Context, id, requester, to, text string, typ store.MessageType) error {
	sender := sanitize.Clean(requester)
	if sender == "" {
		return ErrNotFound
	}
	if _, err := s.store.GetParticipant(ctx, sender); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup requester: %w", err)
	}

	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get message: %w", err)
	}
	if msg.Type == store.MessageTypeStatus || !strings.EqualFold(msg.From, sender) {
		return ErrNotOwner
	}

	cleanTo, cleanText, err := cleanBody(to, text, typ)
	if err != nil {
		return err
	}

	msg.To = cleanTo
	msg.Text = cleanText
	msg.Type = typ
	msg.CreatedAt = time.Now()
	if err := s.store.UpdateMessage(ctx, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

// Delete removes a message. Only the sender may delete, and status
// notices are permanently protected.
func (s *Service) Delete(ctx context.Context, id, requester string) error {
	sender := sanitize.Clean(requester)

	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get message: %w", err)
	}
	if msg.Type == store.MessageTypeStatus || !strings.EqualFold(msg.From, sender) {
		return ErrNotOwner
	}

	if err := s.store.DeleteMessage(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func cleanBody(to, text string, typ store.MessageType) (string, string, error) {
	if typ != store.MessageTypeChat && typ != store.MessageTypePrivate {
		return "", "", ErrInvalid
	}
	cleanTo := sanitize.Clean(to)
	cleanText := sanitize.Clean(text)
	if cleanTo == "" || cleanText == "" {
		return "", "", ErrInvalid
	}
	return cleanTo, cleanText, nil
}
