package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/dkeye/MeetingRoom/internal/app/orch"
	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/dkeye/MeetingRoom/internal/layout"
	"github.com/dkeye/MeetingRoom/internal/meeting"
	"github.com/dkeye/MeetingRoom/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ReportStatusHeader tells an empty export apart from a successful one.
const ReportStatusHeader = "X-Report-Status"

type RoomHandler struct {
	ctx  context.Context
	orch *orch.Orchestrator
}

func (h *RoomHandler) Register(api *gin.RouterGroup) {
	api.GET("/rooms", h.list)
	api.POST("/rooms", h.create)

	room := api.Group("/rooms/:id")
	room.GET("", h.view)
	room.PUT("/layout", h.setLayout)
	room.POST("/participants/toggle", h.toggleParticipants)
	room.GET("/report", h.downloadReport)
	room.POST("/report", h.archiveReport)
	room.POST("/leave", h.leave)
}

func (h *RoomHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms.List()})
}

func (h *RoomHandler) create(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,max=36"`
		Personal bool   `json:"personal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid name"})
		return
	}
	owner := domain.UserID(c.GetString("client_token"))
	room, _, err := h.orch.OpenRoom(h.ctx, req.Name, req.Personal, owner)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       room.Room().ID,
		"name":     room.Room().Name,
		"personal": room.Room().Personal,
	})
}

// lookup resolves the :id controller or answers 404.
func (h *RoomHandler) lookup(c *gin.Context) (*meeting.Controller, domain.RoomID, bool) {
	id := domain.RoomID(c.Param("id"))
	ctrl, ok := h.orch.Meeting(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, id, false
	}
	return ctrl, id, true
}

func (h *RoomHandler) view(c *gin.Context) {
	ctrl, id, ok := h.lookup(c)
	if !ok {
		return
	}
	resp := gin.H{"id": id, "view": ctrl.View(), "layouts": layout.All()}
	if room, ok := h.orch.Rooms.GetRoom(id); ok {
		resp["name"] = room.Room().Name
		resp["members"] = room.MembersSnapshot()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RoomHandler) setLayout(c *gin.Context) {
	ctrl, _, ok := h.lookup(c)
	if !ok {
		return
	}
	var req struct {
		Layout string `json:"layout" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing layout"})
		return
	}
	if err := ctrl.SetLayout(req.Layout); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"layout": ctrl.Layout()})
}

func (h *RoomHandler) toggleParticipants(c *gin.Context) {
	ctrl, _, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants_visible": ctrl.ToggleParticipants()})
}

// downloadReport streams the CSV as an attachment.
func (h *RoomHandler) downloadReport(c *gin.Context) {
	ctrl, _, ok := h.lookup(c)
	if !ok {
		return
	}
	download := report.SinkFunc(func(_ context.Context, r report.Report) error {
		c.Header("Content-Disposition", `attachment; filename="`+r.FileName+`"`)
		c.Data(http.StatusOK, r.ContentType+"; charset=utf-8", r.Data)
		return nil
	})
	if _, err := ctrl.ExportTo(c.Request.Context(), download); err != nil {
		h.exportFailed(c, err)
	}
}

// archiveReport stores the CSV through the room's file sink.
func (h *RoomHandler) archiveReport(c *gin.Context) {
	ctrl, _, ok := h.lookup(c)
	if !ok {
		return
	}
	r, err := ctrl.ExportReport(c.Request.Context())
	if err != nil {
		h.exportFailed(c, err)
		return
	}
	c.Header(ReportStatusHeader, "saved")
	c.JSON(http.StatusOK, gin.H{"file": r.FileName, "rows": r.Rows})
}

func (h *RoomHandler) exportFailed(c *gin.Context, err error) {
	if errors.Is(err, report.ErrNothingToExport) {
		c.Header(ReportStatusHeader, "empty")
		c.Status(http.StatusNoContent)
		return
	}
	log.Error().Err(err).Str("module", "adapters.http").Str("room", c.Param("id")).Msg("report export failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "report export failed, retry later"})
}

func (h *RoomHandler) leave(c *gin.Context) {
	ctrl, _, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := ctrl.Leave(c.Request.Context()); err != nil {
		if errors.Is(err, meeting.ErrRoomLeft) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": meeting.HomePath})
}
