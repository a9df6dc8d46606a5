package handlers

import (
	"net/http"

	"messynotes-backend/internal/service/organizer"
	"messynotes-backend/pkg/api"
)

// OrganizeClusters handles POST /api/organize/clusters. With preview set,
// the proposed layout is returned without being committed.
func (h *Handler) OrganizeClusters(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req api.OrganizeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.ClusterNotes(r.Context(), userID, req.Preview)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, organizeResponse(result))
}

// ArchiveStale handles POST /api/organize/archive: an on-demand run of the
// lifecycle sweep the scheduler performs periodically.
func (h *Handler) ArchiveStale(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	count, err := h.svc.ArchiveStale(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, api.ArchiveResponse{Archived: count})
}

func organizeResponse(result *organizer.ClusterResult) api.OrganizeResponse {
	resp := api.OrganizeResponse{
		Clusters: make([]api.ClusterView, 0, len(result.Clusters)),
		Message:  result.Message,
	}
	for _, cluster := range result.Clusters {
		view := api.ClusterView{
			ID:      cluster.ID,
			Name:    cluster.Name,
			Notes:   make([]api.ClusterNoteView, 0, len(cluster.Notes)),
			CenterX: cluster.CenterX,
			CenterY: cluster.CenterY,
			Color:   cluster.Color,
		}
		for _, note := range cluster.Notes {
			view.Notes = append(view.Notes, api.ClusterNoteView{
				ID:      note.ID,
				Title:   note.Title,
				X:       note.X,
				Y:       note.Y,
				Preview: note.Preview,
			})
		}
		resp.Clusters = append(resp.Clusters, view)
	}
	if result.Stats != nil {
		resp.Stats = &api.ClusterStatsView{
			TotalNotes:         result.Stats.TotalNotes,
			NumClusters:        result.Stats.NumClusters,
			AverageClusterSize: result.Stats.AverageClusterSize,
			SmallestCluster:    result.Stats.SmallestCluster,
			LargestCluster:     result.Stats.LargestCluster,
		}
	}
	return resp
}
