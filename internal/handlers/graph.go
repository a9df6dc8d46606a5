package handlers

import (
	"encoding/json"
	"net/http"

	"messynotes-backend/internal/domain"
	"messynotes-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

// GetGraph handles GET /api/graph.
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	meta, err := h.svc.GetGraph(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, meta)
}

// SaveGraph handles PUT /api/graph, replacing the canvas state wholesale.
func (h *Handler) SaveGraph(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var meta domain.GraphMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if meta.Nodes == nil {
		meta.Nodes = make(map[string]domain.GraphNodeMeta)
	}

	if err := h.svc.SaveGraph(r.Context(), userID, meta); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, meta)
}

// GetCanvas handles GET /api/notes/{noteID}/canvas. A note without saved
// canvas state yields an empty canvas.
func (h *Handler) GetCanvas(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	canvas, err := h.svc.GetCanvas(r.Context(), userID, chi.URLParam(r, "noteID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, canvas)
}

// SaveCanvas handles PUT /api/notes/{noteID}/canvas, replacing the note's
// canvas wholesale.
func (h *Handler) SaveCanvas(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var canvas domain.CanvasData
	if err := json.NewDecoder(r.Body).Decode(&canvas); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if canvas.Nodes == nil {
		canvas.Nodes = make(map[string]domain.CanvasNodeMeta)
	}

	if err := h.svc.SaveCanvas(r.Context(), userID, chi.URLParam(r, "noteID"), canvas); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, canvas)
}
