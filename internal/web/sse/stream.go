package sse

import (
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/web/hub"
)

// Time between keepalive comments
const pingPeriod = 30 * time.Second

// ServeSSE streams a connection's events until the client goes away or the
// hub stops. Closing the stream does not end the connection; the caller can
// reopen it with the same token.
func ServeSSE(w http.ResponseWriter, r *http.Request, h *hub.Hub, id model.ConnectionID) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := h.Connect(id)
	defer h.Disconnect(client)

	// Send initial connection event
	_, _ = w.Write(formatSSEMessage("connected", `{"connection_id":"`+string(id)+`"}`))
	flusher.Flush()

	// Create ticker for keepalive
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.Messages():
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(formatSSEMessage(msg.Event, string(msg.Data))); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}

// formatSSEMessage formats an SSE message with event name and data
// Multi-line data is properly formatted with "data: " prefix on each line
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	// SSE requires each line of data to be prefixed with "data: "
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
