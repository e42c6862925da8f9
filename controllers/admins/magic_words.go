package admins

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Digitallaureate/kabirFirstBackend/middleware"
	"github.com/Digitallaureate/kabirFirstBackend/services"
	"github.com/Digitallaureate/kabirFirstBackend/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func queryLimit(r *http.Request, def int) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// GET /v3/admin/magic-words?limit=&userId=
func (h *Handler) ListMagicWordRequests(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	recs, err := h.desk.OpenRequests(r.Context(), userID, queryLimit(r, services.DefaultListLimit))
	if err != nil {
		h.writeLookupError(w, err, "Magic word requests not found")
		return
	}
	utils.WriteLookup(w, http.StatusOK, utils.LookupResponse{Found: true, Count: utils.IntPtr(len(recs)), Data: recs})
}

// GET /v3/admin/magic-words/{id}
func (h *Handler) GetMagicWordRequest(w http.ResponseWriter, r *http.Request) {
	detail, err := h.desk.Detail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeLookupError(w, err, "Magic word user record not found")
		return
	}
	utils.WriteLookup(w, http.StatusOK, utils.LookupResponse{Found: true, Data: detail})
}

// PUT /v3/admin/magic-words/{id}/status
func (h *Handler) UpdateMagicWordStatus(w http.ResponseWriter, r *http.Request) {
	var update services.StatusUpdate
	// An empty body advances the record one step.
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}

	res, err := h.workflow.Apply(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		h.writeStoreError(w, err, "Magic word request not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Status updated", Data: res})
}

type sendMessageRequest struct {
	Message  string `json:"message" validate:"max=4000"`
	ImageURL string `json:"image_url" validate:"max=2048"`
}

// POST /v3/admin/magic-words/{id}/send-message
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.Message == "" && req.ImageURL == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "message or image_url is required"})
		return
	}

	id := mux.Vars(r)["id"]
	detail, err := h.desk.Detail(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, "Magic word request not found")
		return
	}
	msgID, err := h.notifier.Send(r.Context(), detail.Request.ChatID, req.Message, req.ImageURL)
	if err != nil {
		h.writeStoreError(w, err, "Chat not found")
		return
	}
	h.log.Info("operator message sent",
		zap.String("magic_word_user_id", id),
		zap.String("chat_id", detail.Request.ChatID),
		zap.String("message_id", msgID),
	)
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Message sent",
		Data:    map[string]interface{}{"message_id": msgID, "chat_id": detail.Request.ChatID},
	})
}

// GET /v3/admin/magic-words/user/{userId}
func (h *Handler) ListUserRequests(w http.ResponseWriter, r *http.Request) {
	recs, err := h.desk.OpenRequests(r.Context(), mux.Vars(r)["userId"], queryLimit(r, services.UserListLimit))
	if err != nil {
		h.writeLookupError(w, err, "Magic word requests not found")
		return
	}
	utils.WriteLookup(w, http.StatusOK, utils.LookupResponse{Found: true, Count: utils.IntPtr(len(recs)), Data: recs})
}

// GET /v3/admin/magic-words/user/{userId}/orders
func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.desk.UserOrders(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.writeLookupError(w, err, "Orders not found")
		return
	}
	utils.WriteLookup(w, http.StatusOK, utils.LookupResponse{Found: true, Count: utils.IntPtr(len(orders)), Data: orders})
}

// GET /v3/admin/magic-words/user/{userId}/payments
func (h *Handler) ListUserPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.desk.UserPayments(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.writeLookupError(w, err, "Payments not found")
		return
	}
	utils.WriteLookup(w, http.StatusOK, utils.LookupResponse{Found: true, Count: utils.IntPtr(len(payments)), Data: payments})
}

type toggleInteractionRequest struct {
	IsHumanInteraction *bool `json:"isHumanInteraction"`
}

// PUT /v3/admin/chats/{chatId}/toggle-interaction
func (h *Handler) ToggleInteraction(w http.ResponseWriter, r *http.Request) {
	var req toggleInteractionRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.IsHumanInteraction == nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "isHumanInteraction is required"})
		return
	}
	chatID := mux.Vars(r)["chatId"]
	if err := h.desk.SetHumanInteraction(r.Context(), chatID, *req.IsHumanInteraction); err != nil {
		h.writeStoreError(w, err, "Chat not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Interaction updated",
		Data:    map[string]interface{}{"chat_id": chatID, "isHumanInteraction": *req.IsHumanInteraction},
	})
}
