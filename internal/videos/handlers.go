package videos

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/openvideohub/videohub/internal/errors"
	"github.com/openvideohub/videohub/internal/videoapi"
)

// Handlers exposes the video service over HTTP
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

type listVideosResponse struct {
	Videos []VideoView `json:"videos"`
	Total  int         `json:"total"`
}

type videoResponse struct {
	Video *VideoView `json:"video"`
}

type listCommentsResponse struct {
	Comments []videoapi.Comment `json:"comments"`
	Total    int                `json:"total"`
}

type commentResponse struct {
	Comment *videoapi.Comment `json:"comment"`
}

// List handles GET /api/v1/videos?user_id=&q=
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	videos, err := h.service.List(r.Context(), query.Get("user_id"), query.Get("q"))
	if err != nil {
		return err
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, listVideosResponse{
		Videos: videos,
		Total:  len(videos),
	})
	return nil
}

// Get handles GET /api/v1/videos/{id}?user_id=
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) error {
	video, err := h.service.Get(r.Context(), r.PathValue("id"), r.URL.Query().Get("user_id"))
	if err != nil {
		return err
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, videoResponse{Video: video})
	return nil
}

// Create handles POST /api/v1/videos
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) error {
	var form VideoForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return apperrors.BadRequest("invalid JSON body")
	}

	video, err := h.service.Create(r.Context(), form)
	if err != nil {
		return err
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusCreated, videoResponse{Video: video})
	return nil
}

// Edit handles PUT /api/v1/videos/{id}
func (h *Handlers) Edit(w http.ResponseWriter, r *http.Request) error {
	var form VideoForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return apperrors.BadRequest("invalid JSON body")
	}

	video, err := h.service.Edit(r.Context(), r.PathValue("id"), form)
	if err != nil {
		return err
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, videoResponse{Video: video})
	return nil
}

// Comments handles GET /api/v1/videos/{id}/comments
func (h *Handlers) Comments(w http.ResponseWriter, r *http.Request) error {
	comments, err := h.service.Comments(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, listCommentsResponse{
		Comments: comments,
		Total:    len(comments),
	})
	return nil
}

// AddComment handles POST /api/v1/videos/{id}/comments
func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) error {
	var form CommentForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return apperrors.BadRequest("invalid JSON body")
	}

	comment, err := h.service.AddComment(r.Context(), r.PathValue("id"), form)
	if err != nil {
		return err
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusCreated, commentResponse{Comment: comment})
	return nil
}
