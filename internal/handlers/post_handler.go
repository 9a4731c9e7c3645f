package handlers

import (
	"io"
	"net/http"

	"github.com/Dias221467/social_network/internal/services"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type PostHandler struct {
	Service        *services.PostService
	MaxUploadBytes int64
}

func NewPostHandler(service *services.PostService, maxUploadBytes int64) *PostHandler {
	return &PostHandler{
		Service:        service,
		MaxUploadBytes: maxUploadBytes,
	}
}

// CreatePostHandler accepts a multipart form with a caption and a media image.
func (h *PostHandler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		respondError(w, r, apperrors.Wrap(err, apperrors.KindValidation, "Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := fileOf(r, "media")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var (
		filename string
		media    io.Reader
	)
	if file != nil {
		defer file.Close()
		filename = header.Filename
		media = file
	}

	post, err := h.Service.CreatePost(r.Context(), userID, r.FormValue("caption"), filename, media)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logrus.WithField("userID", userID.Hex()).Info("Post created via API")
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Post created",
		"post":    post,
	})
}

func (h *PostHandler) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"], "post")
	if err != nil {
		respondError(w, r, err)
		return
	}

	post, err := h.Service.GetPost(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}
