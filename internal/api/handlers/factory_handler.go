package handlers

import (
	"net/http"

	"example.com/loomtrack/services/supplychain/internal/services"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FactoryHandler handles factory capability HTTP requests
type FactoryHandler struct {
	capabilityService *services.CapabilityService
	tracer            tracing.Tracer
}

// NewFactoryHandler creates a new factory handler
func NewFactoryHandler(capabilityService *services.CapabilityService, tracer tracing.Tracer) *FactoryHandler {
	return &FactoryHandler{
		capabilityService: capabilityService,
		tracer:            tracer,
	}
}

// CapabilityRequest declares one role a factory can perform
type CapabilityRequest struct {
	RoleID        uuid.UUID `json:"role_id" binding:"required"`
	Co2OverrideKg *float64  `json:"co2_override_kg"`
	Notes         string    `json:"notes"`
}

// SetCapabilitiesRequest replaces a factory's full capability set
type SetCapabilitiesRequest struct {
	Capabilities []CapabilityRequest `json:"capabilities"`
}

// HandleSetCapabilities replaces a factory's declared capabilities
func (h *FactoryHandler) HandleSetCapabilities(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-set-capabilities")
	defer h.tracer.EndTransaction(txn)

	factoryID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SetCapabilitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	inputs := make([]services.CapabilityInput, 0, len(req.Capabilities))
	for _, capability := range req.Capabilities {
		inputs = append(inputs, services.CapabilityInput{
			RoleID:        capability.RoleID,
			Co2OverrideKg: capability.Co2OverrideKg,
			Notes:         capability.Notes,
		})
	}

	capabilities, err := h.capabilityService.SetCapabilities(c, factoryID, inputs)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, capabilities)
}

// HandleListCapabilities returns a factory's capabilities in catalog order
func (h *FactoryHandler) HandleListCapabilities(c *gin.Context) {
	factoryID, ok := parseID(c, "id")
	if !ok {
		return
	}

	capabilities, err := h.capabilityService.ListCapabilities(c, factoryID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, capabilities)
}

// RegisterRoutes registers the handler's routes
func (h *FactoryHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.PUT("/factories/:id/capabilities", h.HandleSetCapabilities)
	api.GET("/factories/:id/capabilities", h.HandleListCapabilities)
}
