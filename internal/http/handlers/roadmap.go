package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/roadmap-backend/internal/http/response"
	"github.com/yungbote/roadmap-backend/internal/modules/roadmap"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
	"github.com/yungbote/roadmap-backend/internal/services"
)

const msgGenerateFailed = "Failed to generate and save roadmap"

type RoadmapHandler struct {
	log            *logger.Logger
	roadmapService services.RoadmapService
}

func NewRoadmapHandler(log *logger.Logger, roadmapService services.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{log: log.With("handler", "RoadmapHandler"), roadmapService: roadmapService}
}

// POST /generate-roadmap
func (h *RoadmapHandler) GenerateRoadmap(c *gin.Context) {
	var req roadmap.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		// an unreadable body carries no fields; the service answers 400
		h.log.Debug("Unreadable roadmap request body", "error", err)
		req = roadmap.Request{}
	}
	rec, err := h.roadmapService.Generate(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, msgGenerateFailed)
		return
	}
	response.RespondOK(c, gin.H{"roadmap": rec})
}

// GET /roadmaps/:id
func (h *RoadmapHandler) GetRoadmap(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.MessageEnvelope{Error: "invalid roadmap id"})
		return
	}
	rec, err := h.roadmapService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err, "Failed to load roadmap")
		return
	}
	response.RespondOK(c, gin.H{"roadmap": rec})
}

// GET /roadmaps?limit=&offset=
func (h *RoadmapHandler) ListRoadmaps(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	list, err := h.roadmapService.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondAPIError(c, err, "Failed to list roadmaps")
		return
	}
	response.RespondOK(c, gin.H{"roadmaps": list})
}
