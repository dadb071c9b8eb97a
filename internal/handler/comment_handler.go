package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mavon-shop/internal/middleware"
	"mavon-shop/internal/model"
	"mavon-shop/internal/service"
	"mavon-shop/pkg/apierror"
)

type CommentHandler struct {
	comments *service.CommentService
	auth     *service.AuthService
}

func NewCommentHandler(comments *service.CommentService, auth *service.AuthService) *CommentHandler {
	return &CommentHandler{comments: comments, auth: auth}
}

func (h *CommentHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	page := parseIntOrDefault(r.URL.Query().Get("page"), 1)
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)

	comments, meta, err := h.comments.ListByProduct(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, comments, meta)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	defer r.Body.Close()

	var payload model.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	author, err := h.auth.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), chi.URLParam(r, "id"), author, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, comment, nil)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	if err := h.comments.Delete(r.Context(), chi.URLParam(r, "commentID"), *claims); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
