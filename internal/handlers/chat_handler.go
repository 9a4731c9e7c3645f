package handlers

import (
	"net/http"

	"github.com/Dias221467/social_network/internal/services"
	"github.com/Dias221467/social_network/pkg/validator"
	"github.com/gorilla/mux"
)

type ChatHandler struct {
	Service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{Service: service}
}

type sendMessageBody struct {
	ReceiverID string `json:"receiverId" validate:"required,mongodb"`
	Content    string `json:"content" validate:"required,min=1"`
}

// SendMessageHandler stores a message and pushes it to live connections.
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	senderID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body sendMessageBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validator.Struct(body); err != nil {
		respondError(w, r, err)
		return
	}
	receiverID, err := parseID(body.ReceiverID, "receiver")
	if err != nil {
		respondError(w, r, err)
		return
	}

	msg, err := h.Service.SendMessage(r.Context(), senderID, receiverID, body.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Message sent",
		"data":    msg,
	})
}

// GetChatHistoryHandler returns the whole conversation with a friend, oldest first.
func (h *ChatHandler) GetChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	friendID, err := parseID(mux.Vars(r)["friendId"], "friend")
	if err != nil {
		respondError(w, r, err)
		return
	}

	messages, err := h.Service.GetChat(r.Context(), userID, friendID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}
