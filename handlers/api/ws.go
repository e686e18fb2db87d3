package api

import (
	"time"

	"github.com/gofiber/websocket/v2"

	"onebox/events"
)

// HandleWebSocket streams bus events to one client. The client gets a
// connected acknowledgement first, then every event until it disconnects.
func (h *Handler) HandleWebSocket(c *websocket.Conn) {
	id, ch := h.bus.Subscribe()
	defer func() {
		h.bus.Unsubscribe(id)
		c.Close()
	}()

	ack := events.Event{
		ID:      id,
		Type:    events.TypeConnected,
		Message: "WebSocket connected",
		Time:    time.Now(),
	}
	if err := c.WriteJSON(ack); err != nil {
		return
	}

	h.log.Debug().Str("subscriber", id).Msg("websocket client connected")

	// Reader exists only to observe the client going away; unsubscribing
	// closes the channel and ends the writer loop below.
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				h.bus.Unsubscribe(id)
				return
			}
		}
	}()

	for event := range ch {
		if err := c.WriteJSON(event); err != nil {
			h.log.Debug().Err(err).Str("subscriber", id).Msg("websocket write failed")
			break
		}
	}
}
