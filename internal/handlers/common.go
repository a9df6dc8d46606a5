// Package handlers exposes the organization engine over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"

	"messynotes-backend/internal/middleware"
	"messynotes-backend/internal/service/organizer"
	"messynotes-backend/pkg/api"
	appErrors "messynotes-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler holds the dependencies shared by every route.
type Handler struct {
	svc      organizer.Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(svc organizer.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:      svc,
		validate: validator.New(),
		logger:   logger,
	}
}

// getUserID extracts the authenticated user from the request context.
func getUserID(r *http.Request) (string, bool) {
	return middleware.UserIDFromContext(r.Context())
}

// decodeAndValidate parses the JSON body into dst and runs struct
// validation. It writes the 400 response itself and reports success.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// handleServiceError maps engine errors onto HTTP status codes.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case appErrors.IsValidation(err):
		api.Error(w, http.StatusBadRequest, err.Error())
	case appErrors.IsNotFound(err):
		api.Error(w, http.StatusNotFound, err.Error())
	case appErrors.IsInvalidReference(err):
		api.Error(w, http.StatusConflict, err.Error())
	case appErrors.IsClustering(err):
		api.Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		api.Error(w, http.StatusInternalServerError, "an internal error occurred")
	}
}

// requireUser writes the 401 for an unauthenticated request and returns
// the user ID otherwise.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := getUserID(r)
	if !ok {
		api.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return userID, ok
}
