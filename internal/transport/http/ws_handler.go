package http

import (
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gfranca/batepapo-server/internal/core"
)

// StreamHandler upgrades HTTP connections and streams room events to
// them. The stream is write-only from the server's point of view; the
// caller's User header decides which events it may see.
type StreamHandler struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewStreamHandler builds a new stream handler.
func NewStreamHandler(hub *core.Hub, logger *zerolog.Logger) *StreamHandler {
	return &StreamHandler{hub: hub, log: logger}
}

// StreamEvent is the wire format for one pushed event.
type StreamEvent struct {
	Event   string          `json:"event"`
	Message MessageResponse `json:"message"`
}

// Stream handles the live event feed.
// GET /stream
func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	client := core.NewClient(uuid.NewString(), userFrom(c))
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	// The client never sends application data; CloseRead watches for
	// the peer closing the connection.
	ctx := conn.CloseRead(c.Request.Context())

	h.log.Debug().Str("client_id", client.ID).Str("user", client.Name).Msg("stream client connected")

	for {
		select {
		case event := <-client.Events:
			msg := event.Message
			payload := StreamEvent{
				Event:   eventName(event.Kind),
				Message: messageResponse(&msg),
			}
			if err := wsjson.Write(ctx, conn, payload); err != nil {
				h.log.Debug().Err(err).Str("client_id", client.ID).Msg("stream write failed")
				conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-ctx.Done():
			h.log.Debug().Str("client_id", client.ID).Msg("stream client disconnected")
			conn.Close(websocket.StatusNormalClosure, "closing")
			return
		}
	}
}

func eventName(kind core.EventKind) string {
	switch kind {
	case core.EventParticipantJoined:
		return "joined"
	case core.EventParticipantLeft:
		return "left"
	default:
		return "message"
	}
}
