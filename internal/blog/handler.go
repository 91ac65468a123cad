package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"homesite/internal/blog/service"
	"homesite/pkg/logger"
	"homesite/store"

	"github.com/gorilla/mux"
)

type BlogHandler struct {
	Service *service.BlogService
}

func NewBlogHandler(service *service.BlogService) *BlogHandler {
	return &BlogHandler{Service: service}
}

func (h *BlogHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Service.ListPosts(r.Context())
	if err != nil {
		h.fail(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *BlogHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req store.PostInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.Service.CreatePost(r.Context(), req)
	if err != nil {
		h.fail(w, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *BlogHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req store.PostInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.Service.UpdatePost(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *BlogHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeletePost(r.Context(), id); err != nil {
		h.fail(w, "delete post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BlogHandler) IncrementViews(w http.ResponseWriter, r *http.Request) {
	var req store.IncrementViewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.IncrementViews(r.Context(), req.LogID); err != nil {
		h.fail(w, "increment views", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BlogHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Service.ListComments(r.Context())
	if err != nil {
		h.fail(w, "list guestbook", err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *BlogHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req store.CommentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.Service.CreateComment(r.Context(), req)
	if err != nil {
		h.fail(w, "create guestbook comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *BlogHandler) ListPostComments(w http.ResponseWriter, r *http.Request) {
	logID, err := strconv.ParseInt(r.URL.Query().Get("log_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing or invalid log_id parameter")
		return
	}

	comments, err := h.Service.ListPostComments(r.Context(), logID)
	if err != nil {
		h.fail(w, "list post comments", err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *BlogHandler) CreatePostComment(w http.ResponseWriter, r *http.Request) {
	var req store.PostCommentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.Service.CreatePostComment(r.Context(), req)
	if err != nil {
		h.fail(w, "create post comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// fail maps service errors onto status codes.
func (h *BlogHandler) fail(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Sugar.Errorf("Handler: Failed to %s: %v", action, err)
		writeError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
