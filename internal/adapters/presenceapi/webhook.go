package presenceapi

import (
	"encoding/json"
	"net/http"

	"priceflow/internal/core/port"
)

// interactionPayload mirrors the minimal shape an inbound command
// invocation arrives as, regardless of which concrete chat platform
// posts it (Discord-style interaction webhooks are the common shape
// this generalizes).
type interactionPayload struct {
	Command string            `json:"command"`
	GuildID string            `json:"guild_id"`
	Args    map[string]string `json:"args"`
}

type interactionResponse struct {
	Reply string `json:"reply"`
	Error bool   `json:"error,omitempty"`
}

// Handler returns an http.Handler that dispatches inbound command
// invocations to the handlers registered via OnCommand. Mount it at
// whatever path the deployment's gateway posts interactions to.
func (c *Client) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload interactionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "malformed interaction payload", http.StatusBadRequest)
			return
		}

		c.handlersMu.RLock()
		handler, ok := c.handlers[payload.Command]
		c.handlersMu.RUnlock()
		if !ok {
			http.Error(w, "unknown command", http.StatusNotFound)
			return
		}

		reply, isError := handler(r.Context(), port.CommandInvocation{
			GuildID: payload.GuildID,
			Args:    payload.Args,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(interactionResponse{Reply: reply, Error: isError})
	})
}
