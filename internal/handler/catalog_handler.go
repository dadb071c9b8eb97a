package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mavon-shop/internal/model"
	"mavon-shop/internal/service"
	"mavon-shop/pkg/apierror"
)

type CatalogHandler struct {
	service *service.CatalogService
}

func NewCatalogHandler(service *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.ListBrands(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, brands, nil)
}

func (h *CatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.BrandRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	brand, err := h.service.CreateBrand(r.Context(), payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, brand, nil)
}

func (h *CatalogHandler) RenameBrand(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.BrandRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	brand, err := h.service.RenameBrand(r.Context(), chi.URLParam(r, "id"), payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, brand, nil)
}

func (h *CatalogHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBrand(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func (h *CatalogHandler) ListColors(w http.ResponseWriter, r *http.Request) {
	colors, err := h.service.ListColors(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, colors, nil)
}

func (h *CatalogHandler) CreateColor(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ColorRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	color, err := h.service.CreateColor(r.Context(), payload.Name, payload.Hex)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, color, nil)
}

func (h *CatalogHandler) DeleteColor(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteColor(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func (h *CatalogHandler) ListSizes(w http.ResponseWriter, r *http.Request) {
	sizes, err := h.service.ListSizes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, sizes, nil)
}

func (h *CatalogHandler) CreateSize(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.SizeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	size, err := h.service.CreateSize(r.Context(), payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, size, nil)
}

func (h *CatalogHandler) DeleteSize(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSize(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
