package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gfranca/batepapo-server/internal/service/messages"
	"github.com/gfranca/batepapo-server/internal/store"
)

// MessageHandlers provides HTTP handlers for the chat log endpoints.
type MessageHandlers struct {
	messages *messages.Service
	log      *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(svc *messages.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		messages: svc,
		log:      logger,
	}
}

// MessageRequest represents the post/update message body.
type MessageRequest struct {
	To   string `json:"to" binding:"required"`
	Text string `json:"text" binding:"required"`
	Type string `json:"type" binding:"required,oneof=message private_message"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

// timeLayout is the wall-clock format used for message timestamps.
const timeLayout = "15:04:05"

// Post handles posting a message to the room.
// POST /messages
func (h *MessageHandlers) Post(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid message body")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid message body"})
		return
	}

	msg, err := h.messages.Post(c.Request.Context(), userFrom(c), req.To, req.Text, store.MessageType(req.Type))
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrUnknownSender):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "sender is not in the room"})
		case errors.Is(err, messages.ErrInvalid):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid message body"})
		default:
			h.log.Error().Err(err).Msg("failed to post message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, messageResponse(msg))
}

// List handles reading the visibility-filtered message history.
// GET /messages?limit=N
func (h *MessageHandlers) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	msgs, err := h.messages.List(c.Request.Context(), userFrom(c), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		response = append(response, messageResponse(m))
	}
	c.JSON(http.StatusOK, response)
}

// Update handles editing a message by its owner.
// PUT /messages/:id
func (h *MessageHandlers) Update(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid message body")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid message body"})
		return
	}

	id := c.Param("id")
	err := h.messages.Update(c.Request.Context(), id, userFrom(c), req.To, req.Text, store.MessageType(req.Type))
	if err != nil {
		h.respondMessageError(c, err, id)
		return
	}
	c.Status(http.StatusOK)
}

// Delete handles removing a message by its owner.
// DELETE /messages/:id
func (h *MessageHandlers) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.messages.Delete(c.Request.Context(), id, userFrom(c)); err != nil {
		h.respondMessageError(c, err, id)
		return
	}
	c.Status(http.StatusOK)
}

func (h *MessageHandlers) respondMessageError(c *gin.Context, err error, id string) {
	switch {
	case errors.Is(err, messages.ErrInvalid):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid message body"})
	case errors.Is(err, messages.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
	case errors.Is(err, messages.ErrNotOwner):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "not the message owner"})
	default:
		h.log.Error().Err(err).Str("message_id", id).Msg("message operation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func messageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:   m.ID,
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Type),
		Time: m.CreatedAt.Format(timeLayout),
	}
}
