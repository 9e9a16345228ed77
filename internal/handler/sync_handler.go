package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-core-api/internal/dto"
	"github.com/noah-isme/sis-core-api/internal/service"
	appErrors "github.com/noah-isme/sis-core-api/pkg/errors"
	"github.com/noah-isme/sis-core-api/pkg/response"
)

type assignmentSynchronizer interface {
	SyncAfterAssignmentChange(ctx context.Context, req dto.SyncAssignmentRequest) (*dto.SyncResult, error)
	SyncAfterRoomUpdate(ctx context.Context, req dto.SyncRoomRequest) (*dto.SyncResult, error)
}

// SyncHandler exposes the assignment and room synchronization endpoints.
type SyncHandler struct {
	service assignmentSynchronizer
}

// NewSyncHandler constructs the handler.
func NewSyncHandler(svc *service.SyncService) *SyncHandler {
	return &SyncHandler{service: svc}
}

// Assignments godoc
// @Summary Propagate a teaching-assignment change into timetable slots
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body dto.SyncAssignmentRequest true "Assignment sync payload"
// @Success 200 {object} response.Envelope
// @Router /sync/teaching-assignments [post]
func (h *SyncHandler) Assignments(c *gin.Context) {
	var req dto.SyncAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment sync payload"))
		return
	}
	result, err := h.service.SyncAfterAssignmentChange(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Rooms godoc
// @Summary Backfill a newly capable room into roomless slots of a subject
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body dto.SyncRoomRequest true "Room sync payload"
// @Success 200 {object} response.Envelope
// @Router /sync/room-subjects [post]
func (h *SyncHandler) Rooms(c *gin.Context) {
	var req dto.SyncRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room sync payload"))
		return
	}
	result, err := h.service.SyncAfterRoomUpdate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
