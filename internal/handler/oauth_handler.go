package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"mavon-shop/internal/model"
	"mavon-shop/internal/service"
	"mavon-shop/pkg/apierror"
)

type OAuthHandler struct {
	service *service.OAuthService
}

func NewOAuthHandler(service *service.OAuthService) *OAuthHandler {
	return &OAuthHandler{service: service}
}

// GithubRedirect sends the browser to GitHub's consent screen.
func (h *OAuthHandler) GithubRedirect(w http.ResponseWriter, r *http.Request) {
	if !h.service.Enabled() {
		writeError(w, apierror.New("NOT_IMPLEMENTED", "GitHub login is not configured", "", http.StatusNotImplemented))
		return
	}

	url, err := h.service.AuthURL(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GithubCallback completes the OAuth dance. Tokens never ride the redirect
// URL; the browser gets a short-lived code to trade in via Exchange.
func (h *OAuthHandler) GithubCallback(w http.ResponseWriter, r *http.Request) {
	if !h.service.Enabled() {
		writeError(w, apierror.New("NOT_IMPLEMENTED", "GitHub login is not configured", "", http.StatusNotImplemented))
		return
	}

	state := strings.TrimSpace(r.URL.Query().Get("state"))
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if state == "" || code == "" {
		writeError(w, apierror.BadRequest("state and code are required", ""))
		return
	}

	redirectURL, err := h.service.HandleCallback(r.Context(), state, code)
	if err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

// Exchange trades a one-time code from the callback redirect for the token pair.
func (h *OAuthHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	payload.Code = strings.TrimSpace(payload.Code)
	if payload.Code == "" {
		writeError(w, apierror.BadRequest("code is required", "code"))
		return
	}

	tokens, err := h.service.Exchange(r.Context(), payload.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}
