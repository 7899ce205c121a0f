package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"notelink-backend/application/services"
	"notelink-backend/domain/blocks"
	"notelink-backend/pkg/common"
	"notelink-backend/pkg/utils"
)

// MetricsHandler serves the interaction telemetry endpoints. Writes are
// synchronous here, unlike the traces fanned out from block writes: the
// client explicitly asked to record the interaction and wants to know it
// stuck.
type MetricsHandler struct {
	linkService *services.LinkService
	logger      *zap.Logger
}

// NewMetricsHandler creates a metrics handler.
func NewMetricsHandler(linkService *services.LinkService, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{linkService: linkService, logger: logger}
}

type timeMetricRequest struct {
	Action string `json:"action" validate:"required,oneof=CREATE UPDATE VIEW"`
	Device string `json:"device" validate:"max=200"`
}

type contextMetricRequest struct {
	Device   string `json:"device" validate:"max=200"`
	Location string `json:"location" validate:"max=500"`
}

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type previousBlockRequest struct {
	PreviousBlockID string `json:"previousBlockId" validate:"required,uuid"`
}

// RecordTime handles POST /api/v1/metrics/time/{blockID}
func (h *MetricsHandler) RecordTime(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	blockID := chi.URLParam(r, "blockID")

	var req timeMetricRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.linkService.TraceTime(r.Context(), ownerID, blockID, blocks.TimeAction(req.Action), req.Device); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]any{"recorded": true})
}

// RecordContext handles POST /api/v1/metrics/context/{blockID}
func (h *MetricsHandler) RecordContext(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	blockID := chi.URLParam(r, "blockID")

	var req contextMetricRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.linkService.TraceContext(r.Context(), ownerID, blockID, req.Device, req.Location); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]any{"recorded": true})
}

// RecordFeedback handles POST /api/v1/metrics/feedback/{blockID}
func (h *MetricsHandler) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	blockID := chi.URLParam(r, "blockID")

	var req feedbackRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.linkService.TraceUserFeedback(r.Context(), ownerID, blockID, req.Rating, req.Comment); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]any{"recorded": true})
}

// RecordPrevious handles POST /api/v1/metrics/previous/{blockID}
func (h *MetricsHandler) RecordPrevious(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(r)
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	blockID := chi.URLParam(r, "blockID")

	var req previousBlockRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.linkService.TracePreviousBlock(r.Context(), ownerID, blockID, req.PreviousBlockID); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]any{"recorded": true})
}
