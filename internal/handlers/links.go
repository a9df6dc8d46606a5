package handlers

import (
	"net/http"

	"messynotes-backend/pkg/api"
)

// CreateLink handles POST /api/links. Linking an already-linked ordered
// pair reinforces the existing link.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req api.CreateLinkRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	link, err := h.svc.CreateLink(r.Context(), userID, req.SourceID, req.TargetID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, link)
}

// ListLinks handles GET /api/links.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	links, err := h.svc.ListLinks(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.ListLinksResponse{Links: links})
}
