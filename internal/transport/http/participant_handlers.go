package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gfranca/batepapo-server/internal/service/registry"
	"github.com/gfranca/batepapo-server/internal/store"
)

// ParticipantHandlers provides HTTP handlers for room membership endpoints.
type ParticipantHandlers struct {
	registry *registry.Service
	log      *zerolog.Logger
}

// NewParticipantHandlers creates a new participant handlers instance.
func NewParticipantHandlers(reg *registry.Service, logger *zerolog.Logger) *ParticipantHandlers {
	return &ParticipantHandlers{
		registry: reg,
		log:      logger,
	}
}

// JoinRequest represents the join request body.
type JoinRequest struct {
	Name string `json:"name" binding:"required"`
}

// ParticipantResponse represents a participant in API responses.
type ParticipantResponse struct {
	Name          string `json:"name"`
	LastHeartbeat int64  `json:"lastStatus"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Join handles a participant entering the room.
// POST /participants
func (h *ParticipantHandlers) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid join request")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "name is required"})
		return
	}

	participant, err := h.registry.Join(c.Request.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalidName):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "name is required"})
		case errors.Is(err, registry.ErrNameTaken):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "name already taken"})
		default:
			h.log.Error().Err(err).Msg("failed to join participant")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("participant", participant.Name).Msg("participant joined")
	c.JSON(http.StatusCreated, participantResponse(participant))
}

// List handles listing current participants.
// GET /participants
func (h *ParticipantHandlers) List(c *gin.Context) {
	participants, err := h.registry.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list participants")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		response = append(response, participantResponse(p))
	}
	c.JSON(http.StatusOK, response)
}

// Heartbeat handles a liveness ping from a participant.
// POST /status
func (h *ParticipantHandlers) Heartbeat(c *gin.Context) {
	user := userFrom(c)
	if err := h.registry.Heartbeat(c.Request.Context(), user); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "participant not found"})
			return
		}
		h.log.Error().Err(err).Str("participant", user).Msg("failed to refresh heartbeat")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.Status(http.StatusOK)
}

func participantResponse(p *store.Participant) ParticipantResponse {
	return ParticipantResponse{
		Name:          p.Name,
		LastHeartbeat: p.LastHeartbeat.UnixMilli(),
	}
}
