package menu

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fooder/backend/internal/middleware"
	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/apperr"
	"github.com/fooder/backend/pkg/request"
	"github.com/fooder/backend/pkg/response"
	"github.com/fooder/backend/pkg/storage"
)

// Handler handles menu item HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a menu handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the menu routes on an authenticated group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/menu-items", h.List)
	g.POST("/menu-items", h.Create)
	g.POST("/menu-items/image-upload-url", h.ImageUploadURL)
	g.GET("/menu-items/:id", h.Get)
	g.PUT("/menu-items/:id", h.Update)
	g.DELETE("/menu-items/:id", h.Delete)
	g.POST("/menu-items/:id/image", h.UploadImage)
}

// List handles GET /menu-items.
func (h *Handler) List(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	includeInactive, _ := strconv.ParseBool(c.Query("includeInactive"))
	items, err := h.svc.List(c.Request.Context(), caller, includeInactive)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, items)
}

// Create handles POST /menu-items.
func (h *Handler) Create(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	var in models.CreateMenuItemInput
	if err := request.BindJSON(c, &in); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	item, err := h.svc.Create(c.Request.Context(), caller, in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, item)
}

// Get handles GET /menu-items/:id.
func (h *Handler) Get(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	item, err := h.svc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, item)
}

// Update handles PUT /menu-items/:id.
func (h *Handler) Update(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	var patch models.MenuItemPatch
	if err := request.BindJSON(c, &patch); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	item, err := h.svc.Update(c.Request.Context(), caller, c.Param("id"), patch)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, item)
}

// Delete handles DELETE /menu-items/:id.
func (h *Handler) Delete(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "Menu item deleted")
}

// ImageUploadURL handles POST /menu-items/image-upload-url.
func (h *Handler) ImageUploadURL(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	var in ImageUploadRequest
	if err := request.BindJSON(c, &in); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	ticket, err := h.svc.ImageUploadURL(c.Request.Context(), caller, in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, ticket)
}

// UploadImage handles POST /menu-items/:id/image (multipart field "file").
func (h *Handler) UploadImage(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxMenuImageSize+1024*1024)
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, h.logger, apperr.Validation("An image file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	defer f.Close()
	item, err := h.svc.UploadImage(c.Request.Context(), caller, c.Param("id"),
		fh.Header.Get("Content-Type"), fh.Filename, f, fh.Size)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, item)
}
