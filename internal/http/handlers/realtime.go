package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studiostory/studiostory-backend/internal/platform/logger"
	"github.com/studiostory/studiostory-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewRealtimeHandler(baseLog *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		log: baseLog.With("handler", "RealtimeHandler"),
		hub: hub,
	}
}

// Stream opens an SSE connection. The optional project query parameter scopes
// delivery to one project's events; otherwise the client gets everything.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	client := h.hub.NewClient()
	if projectID := c.Query("project"); projectID != "" {
		h.hub.AddChannel(client, realtime.ProjectChannel(projectID))
	} else {
		h.hub.AddChannel(client, realtime.ChannelGlobal)
	}

	h.log.Debug("SSE stream open", "client_id", client.ID)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.hub.CloseClient(client)
	h.log.Debug("SSE stream closed", "client_id", client.ID)
}
