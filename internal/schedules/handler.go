package schedules

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fooder/backend/internal/middleware"
	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/request"
	"github.com/fooder/backend/pkg/response"
)

// Handler handles schedule HTTP endpoints.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a schedule handler.
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Register mounts the schedule routes on an authenticated group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/schedules", h.List)
	g.POST("/schedules", h.Create)
	g.GET("/schedules/:id", h.Get)
	g.PUT("/schedules/:id", h.Update)
	g.DELETE("/schedules/:id", h.Delete)
}

// List handles GET /schedules.
func (h *Handler) List(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	list, err := h.engine.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /schedules.
func (h *Handler) Create(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	var in models.CreateScheduleInput
	if err := request.BindJSON(c, &in); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	s, err := h.engine.Create(c.Request.Context(), caller, in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, s)
}

// Get handles GET /schedules/:id.
func (h *Handler) Get(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	s, err := h.engine.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, s)
}

// Update handles PUT /schedules/:id.
func (h *Handler) Update(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	var patch models.SchedulePatch
	if err := request.BindJSON(c, &patch); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	s, err := h.engine.Update(c.Request.Context(), caller, c.Param("id"), patch)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, s)
}

// Delete handles DELETE /schedules/:id.
func (h *Handler) Delete(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	if err := h.engine.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "Schedule deleted")
}
