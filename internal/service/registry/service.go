package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gfranca/batepapo-server/internal/core"
	"github.com/gfranca/batepapo-server/internal/sanitize"
	"github.com/gfranca/batepapo-server/internal/store"
)

// Common errors for registry operations.
var (
	ErrInvalidName = errors.New("participant name is required")
	ErrNameTaken   = errors.New("participant name already taken")
	ErrNotFound    = errors.New("participant not found")
)

// Service tracks room membership: who is in the room and when each
// participant was last seen.
type Service struct {
	store store.Store
	hub   *core.Hub
	log   *zerolog.Logger
}

// New creates a registry service.
func New(st store.Store, hub *core.Hub, logger *zerolog.Logger) *Service {
	return &Service{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// Join registers a new participant and appends its join notice to the
// message log. The name is sanitized first; uniqueness is
// case-insensitive.
func (s *Service) Join(ctx context.Context, name string) (*store.Participant, error) {
	clean := sanitize.Clean(name)
	if clean == "" {
		return nil, ErrInvalidName
	}

	now := time.Now()
	participant := &store.Participant{
		Name:          clean,
		LastHeartbeat: now,
	}
	notice := statusNotice(clean, "entra na sala...", now)

	if err := s.store.CreateParticipant(ctx, participant, notice); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("create participant: %w", err)
	}

	s.hub.Broadcast(core.Event{Kind: core.EventParticipantJoined, Message: *notice})
	return participant, nil
}

// List returns all current participants.
func (s *Service) List(ctx context.Context) ([]*store.Participant, error) {
	return s.store.ListParticipants(ctx)
}

// Heartbeat refreshes the participant's staleness clock.
func (s *Service) Heartbeat(ctx context.Context, name string) error {
	clean := sanitize.Clean(name)
	if clean == "" {
		return ErrNotFound
	}
	if err := s.store.TouchParticipant(ctx, clean, time.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("touch participant: %w", err)
	}
	return nil
}

// EvictStale removes every participant whose last heartbeat is before
// cutoff, appending a departure notice per removal. A failure on one
// participant is logged and does not stop the rest.
func (s *Service) EvictStale(ctx context.Context, cutoff time.Time) (int, error) {
	participants, err := s.store.ListParticipants(ctx)
	if err != nil {
		return 0, fmt.Errorf("list participants: %w", err)
	}

	evicted := 0
	for _, p := range participants {
		if !p.LastHeartbeat.Before(cutoff) {
			continue
		}

		notice := statusNotice(p.Name, "sai da sala...", time.Now())
		if err := s.store.RemoveParticipant(ctx, p.Name, notice); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Already gone, e.g. a concurrent sweep got there first.
				continue
			}
			s.log.Error().Err(err).Str("participant", p.Name).Msg("failed to evict participant")
			continue
		}

		evicted++
		s.hub.Broadcast(core.Event{Kind: core.EventParticipantLeft, Message: *notice})
	}
	return evicted, nil
}

func statusNotice(name, text string, at time.Time) *store.Message {
	return &store.Message{
		ID:        uuid.NewString(),
		From:      name,
		To:        store.BroadcastTarget,
		Text:      text,
		Type:      store.MessageTypeStatus,
		CreatedAt: at,
	}
}
