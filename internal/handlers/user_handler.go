package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Dias221467/social_network/internal/services"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/Dias221467/social_network/pkg/validator"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// TokenIssuer signs a bearer token for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UserHandler handles HTTP requests related to user operations.
type UserHandler struct {
	Service        *services.UserService
	Tokens         TokenIssuer
	MaxUploadBytes int64
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, tokens TokenIssuer, maxUploadBytes int64) *UserHandler {
	return &UserHandler{
		Service:        service,
		Tokens:         tokens,
		MaxUploadBytes: maxUploadBytes,
	}
}

// SignupHandler handles user registration.
func (h *UserHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validator.Struct(in); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.Service.RegisterUser(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.WithField("userID", user.ID.Hex()).Info("User signed up")
	respondMessage(w, http.StatusCreated, "User created successfully")
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginHandler checks credentials and returns a bearer token.
func (h *UserHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials loginRequest
	if err := decodeJSON(r, &credentials); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validator.Struct(credentials); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, err := h.Tokens.Issue(user.ID.Hex())
	if err != nil {
		respondError(w, r, apperrors.Internal(err, "failed to generate token"))
		return
	}

	log.WithField("userID", user.ID.Hex()).Info("User logged in successfully")
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetMeHandler returns the authenticated user's own profile.
func (h *UserHandler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type profileRequest struct {
	Bio *string `json:"bio"`
}

// UpdateProfileHandler accepts either JSON {bio} or a multipart form with an
// optional bio field and an optional profilePicture image.
func (h *UserHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var in services.ProfileInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+1<<20)
		if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
			respondError(w, r, apperrors.Wrap(err, apperrors.KindValidation, "Invalid multipart form"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		if values, ok := r.MultipartForm.Value["bio"]; ok && len(values) > 0 {
			in.Bio = &values[0]
		}
		file, header, err := fileOf(r, "profilePicture")
		if err != nil {
			respondError(w, r, err)
			return
		}
		if file != nil {
			defer file.Close()
			in.PictureName = header.Filename
			in.PictureContents = file
		}
	} else {
		var body profileRequest
		if err := decodeJSON(r, &body); err != nil {
			respondError(w, r, err)
			return
		}
		in.Bio = body.Bio
	}

	user, err := h.Service.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated",
		"user":    user,
	})
}

// SearchUsersHandler finds users by name or email.
func (h *UserHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	users, err := h.Service.SearchUsers(r.Context(), userID, r.URL.Query().Get("query"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetUserHandler returns another user's public profile.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"], "user")
	if err != nil {
		respondError(w, r, err)
		return
	}

	profile, err := h.Service.GetPublicProfile(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// fileOf is shared by the multipart handlers.
func fileOf(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, apperrors.Wrap(err, apperrors.KindValidation, "Invalid "+field)
	}
	return file, header, nil
}
