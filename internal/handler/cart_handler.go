package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"mavon-shop/internal/middleware"
	"mavon-shop/internal/model"
	"mavon-shop/internal/service"
	"mavon-shop/pkg/apierror"
)

type CartHandler struct {
	service *service.CartService
}

func NewCartHandler(service *service.CartService) *CartHandler {
	return &CartHandler{service: service}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	cart, err := h.service.Get(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, cart, nil)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	defer r.Body.Close()

	var payload model.AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.ProductID) == "" {
		writeError(w, apierror.BadRequest("product_id is required", "product_id"))
		return
	}

	cart, err := h.service.AddItem(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, cart, nil)
}

// SetQuantity pins a line to an absolute quantity. Anything below one removes
// the line.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	defer r.Body.Close()

	var payload model.SetCartQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if strings.TrimSpace(payload.ProductID) == "" {
		writeError(w, apierror.BadRequest("product_id is required", "product_id"))
		return
	}

	key := model.CartKey{ProductID: payload.ProductID, Color: payload.Color, Size: payload.Size}
	cart, err := h.service.SetQuantity(r.Context(), claims.UserID, key, payload.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, cart, nil)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	query := r.URL.Query()
	key := model.CartKey{
		ProductID: strings.TrimSpace(query.Get("product_id")),
		Color:     strings.TrimSpace(query.Get("color")),
		Size:      strings.TrimSpace(query.Get("size")),
	}
	if key.ProductID == "" {
		writeError(w, apierror.BadRequest("product_id is required", "product_id"))
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), claims.UserID, key)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, cart, nil)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	if err := h.service.Clear(r.Context(), claims.UserID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"cleared": true}, nil)
}
