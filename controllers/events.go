package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Digitallaureate/kabirFirstBackend/events"
	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"go.uber.org/zap"
)

// EventsController accepts message events pushed by an external trigger
// instead of the change stream.
type EventsController struct {
	handler events.Handler
	log     *zap.Logger
}

func NewEventsController(handler events.Handler, log *zap.Logger) *EventsController {
	return &EventsController{handler: handler, log: log}
}

// POST /v3/events/messages
func (c *EventsController) HandleMessage(w http.ResponseWriter, r *http.Request) {
	// Message documents carry fields this service does not model, so unknown
	// keys are accepted here.
	var ev models.MessageEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}
	if err := utils.ValidateStruct(&ev); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Validation failed", Data: err.Error()})
		return
	}
	ev.ChatID = strings.TrimSpace(ev.ChatID)
	ev.MessageID = strings.TrimSpace(ev.MessageID)
	if ev.Message.ID == "" {
		ev.Message.ID = ev.MessageID
	}
	if ev.Message.ChatID == "" {
		ev.Message.ChatID = ev.ChatID
	}

	outcome, err := c.handler.Handle(r.Context(), ev)
	if err != nil {
		c.log.Error("pushed message event failed",
			zap.String("chat_id", ev.ChatID),
			zap.String("message_id", ev.MessageID),
			zap.Error(err),
		)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Event processing failed",
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Event processed",
		Data: map[string]interface{}{
			"chat_id":    ev.ChatID,
			"message_id": ev.MessageID,
			"outcome":    outcome,
		},
	})
}
