package handlers

import (
	"net/http"
	"strconv"

	"messynotes-backend/internal/service/organizer"
	"messynotes-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

// defaultSimilarK is used when the similar-notes query omits or botches
// the k parameter.
const defaultSimilarK = 5

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req api.CreateNoteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.svc.CreateNote(r.Context(), userID, organizer.NoteInput{
		Title:     req.Title,
		RawText:   req.RawText,
		Content:   req.Content,
		Sticky:    req.Sticky,
		Ephemeral: req.Ephemeral,
		NoteType:  req.Type,
		Color:     req.Color,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, note)
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	notes, err := h.svc.ListNotes(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.ListNotesResponse{Notes: notes})
}

// GetNote handles GET /api/notes/{noteID}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	note, err := h.svc.GetNote(r.Context(), userID, chi.URLParam(r, "noteID"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, note)
}

// UpdateNote handles PUT /api/notes/{noteID}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req api.UpdateNoteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.svc.UpdateNote(r.Context(), userID, chi.URLParam(r, "noteID"), organizer.NotePatch{
		Title:        req.Title,
		RawText:      req.RawText,
		Content:      req.Content,
		Sticky:       req.Sticky,
		Ephemeral:    req.Ephemeral,
		Archived:     req.Archived,
		AutoOrganize: req.AutoOrganize,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{noteID}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteNote(r.Context(), userID, chi.URLParam(r, "noteID")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

// DeleteAllNotes handles DELETE /api/notes.
func (h *Handler) DeleteAllNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	count, err := h.svc.DeleteAllNotes(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.DeleteAllResponse{Deleted: count})
}

// SimilarNotes handles GET /api/notes/{noteID}/similar?k=N.
func (h *Handler) SimilarNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	k := defaultSimilarK
	if raw := r.URL.Query().Get("k"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			k = parsed
		}
	}

	results, err := h.svc.SimilarNotes(r.Context(), userID, chi.URLParam(r, "noteID"), k)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := api.SimilarNotesResponse{Results: make([]api.SimilarNoteResult, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, api.SimilarNoteResult{Note: res.Note, Distance: res.Distance})
	}
	api.Success(w, http.StatusOK, resp)
}
