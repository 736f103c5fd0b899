package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"funnel_backend/internal/followups/service"
	"funnel_backend/internal/followups/transport"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/validator"
)

// TemplateHandler handles HTTP requests for the message template catalog.
type TemplateHandler struct {
	svc *service.TemplateService
	val *validator.Validator
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(svc *service.TemplateService, val *validator.Validator) *TemplateHandler {
	return &TemplateHandler{svc: svc, val: val}
}

// RegisterRoutes mounts template routes on the provided group.
func (h *TemplateHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:key", h.GetByKey)
	group.PATCH("/:key", h.Update)
}

// Create adds a template for a valid (stage, offset) rule slot.
// POST /api/v1/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req transport.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateTemplate(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List returns all templates with eligible-lead counts.
// GET /api/v1/templates
func (h *TemplateHandler) List(c *gin.Context) {
	result, err := h.svc.ListTemplates(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByKey returns a single template.
// GET /api/v1/templates/:key
func (h *TemplateHandler) GetByKey(c *gin.Context) {
	result, err := h.svc.GetTemplate(c.Request.Context(), c.Param("key"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update mutates content and/or the active flag. Stage and offset are immutable.
// PATCH /api/v1/templates/:key
func (h *TemplateHandler) Update(c *gin.Context) {
	var req transport.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateTemplate(c.Request.Context(), c.Param("key"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
