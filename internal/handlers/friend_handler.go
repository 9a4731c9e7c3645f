package handlers

import (
	"net/http"

	"github.com/Dias221467/social_network/internal/services"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/Dias221467/social_network/pkg/logger"
	"github.com/Dias221467/social_network/pkg/validator"
	"github.com/gorilla/mux"
)

// FriendHandler manages HTTP endpoints related to friend requests.
type FriendHandler struct {
	Service *services.FriendService
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service *services.FriendService) *FriendHandler {
	return &FriendHandler{Service: service}
}

type friendRequestBody struct {
	ReceiverID string `json:"receiverId" validate:"required,mongodb"`
}

// SendFriendRequestHandler allows a user to send a friend request.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	senderID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body friendRequestBody
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

	request, err := h.Service.SendFriendRequest(r.Context(), senderID, receiverID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.Log.Infof("User %s sent a friend request to %s", senderID.Hex(), receiverID.Hex())
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Friend request sent",
		"request": request,
	})
}

// GetIncomingRequestsHandler shows all pending requests addressed to the caller.
func (h *FriendHandler) GetIncomingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	requests, err := h.Service.GetPendingRequests(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// AcceptFriendRequestHandler lets the receiver accept a request.
func (h *FriendHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	requestID, err := parseID(mux.Vars(r)["id"], "request")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.Service.AcceptRequest(r.Context(), requestID, userID); err != nil {
		respondError(w, r, err)
		return
	}

	logger.Log.Infof("User %s accepted friend request %s", userID.Hex(), requestID.Hex())
	respondMessage(w, http.StatusOK, "Friend request accepted")
}

// DeclineFriendRequestHandler lets the receiver delete a request.
func (h *FriendHandler) DeclineFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	requestID, err := parseID(mux.Vars(r)["id"], "request")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.Service.DeclineRequest(r.Context(), requestID, userID); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Friend request declined")
}

// GetFriendsHandler returns a list of the user's friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	friends, err := h.Service.GetFriends(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, friends)
}

type removeFriendBody struct {
	FriendID string `json:"friendId"`
}

// RemoveFriendHandler ends a friendship on both sides.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body removeFriendBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if body.FriendID == "" {
		respondError(w, r, apperrors.Validation("Friend ID required"))
		return
	}
	friendID, err := parseID(body.FriendID, "friend")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.Service.RemoveFriend(r.Context(), userID, friendID); err != nil {
		respondError(w, r, err)
		return
	}

	logger.Log.Infof("Removed friend %s for user %s", friendID.Hex(), userID.Hex())
	respondMessage(w, http.StatusOK, "Friend removed")
}
