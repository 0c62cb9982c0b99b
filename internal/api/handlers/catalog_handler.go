package handlers

import (
	"net/http"

	"example.com/loomtrack/services/supplychain/internal/services"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/gin-gonic/gin"
)

// CatalogHandler handles supply-chain role catalog HTTP requests
type CatalogHandler struct {
	catalogService *services.CatalogService
	tracer         tracing.Tracer
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *services.CatalogService, tracer tracing.Tracer) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		tracer:         tracer,
	}
}

// HandleListRoles returns the catalog in default sequence order
func (h *CatalogHandler) HandleListRoles(c *gin.Context) {
	roles, err := h.catalogService.ListRoles(c)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, roles)
}

// HandleGetRole returns a single catalog entry by key
func (h *CatalogHandler) HandleGetRole(c *gin.Context) {
	role, err := h.catalogService.GetRole(c, c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, role)
}

// UpsertRoleRequest represents a catalog upsert request
type UpsertRoleRequest struct {
	Key             string  `json:"key" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	DefaultSequence int     `json:"default_sequence"`
	DefaultCo2Kg    float64 `json:"default_co2_kg"`
}

// HandleUpsertRole creates or updates a catalog entry by key
func (h *CatalogHandler) HandleUpsertRole(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-upsert-role")
	defer h.tracer.EndTransaction(txn)

	var req UpsertRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	h.tracer.AddAttribute(txn, "key", req.Key)

	role, err := h.catalogService.UpsertRole(c, services.RoleInput{
		Key:             req.Key,
		Name:            req.Name,
		Description:     req.Description,
		DefaultSequence: req.DefaultSequence,
		DefaultCo2Kg:    req.DefaultCo2Kg,
	})
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, role)
}

// RenameRoleRequest carries the new durable key for a catalog entry
type RenameRoleRequest struct {
	NewKey string `json:"new_key" binding:"required"`
}

// HandleRenameRole changes a role's key in place
func (h *CatalogHandler) HandleRenameRole(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-rename-role")
	defer h.tracer.EndTransaction(txn)

	var req RenameRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	role, err := h.catalogService.RenameRoleKey(c, c.Param("key"), req.NewKey)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, role)
}

// HandleAlignCatalog upserts the canonical catalog and re-ranks existing
// stage sequences
func (h *CatalogHandler) HandleAlignCatalog(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-align-catalog")
	defer h.tracer.EndTransaction(txn)

	if err := h.catalogService.AlignCatalog(c); err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "aligned"})
}

// RegisterRoutes registers the handler's routes
func (h *CatalogHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/catalog/roles", h.HandleListRoles)
	api.GET("/catalog/roles/:key", h.HandleGetRole)
	api.POST("/catalog/roles", h.HandleUpsertRole)
	api.POST("/catalog/roles/:key/rename", h.HandleRenameRole)
	api.POST("/catalog/align", h.HandleAlignCatalog)
}
