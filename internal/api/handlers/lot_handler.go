package handlers

import (
	"net/http"

	"example.com/loomtrack/services/supplychain/internal/services"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LotHandler handles lot lifecycle HTTP requests
type LotHandler struct {
	lotService      *services.LotService
	pipelineService *services.PipelineService
	tracer          tracing.Tracer
}

// NewLotHandler creates a new lot handler
func NewLotHandler(lotService *services.LotService, pipelineService *services.PipelineService, tracer tracing.Tracer) *LotHandler {
	return &LotHandler{
		lotService:      lotService,
		pipelineService: pipelineService,
		tracer:          tracer,
	}
}

// CreateLotRequest represents an incoming lot creation request
type CreateLotRequest struct {
	TenantID      uuid.UUID  `json:"tenant_id" binding:"required"`
	ClientID      *uuid.UUID `json:"client_id"`
	FactoryID     *uuid.UUID `json:"factory_id"`
	StyleRef      string     `json:"style_ref" binding:"required"`
	QuantityTotal int        `json:"quantity_total" binding:"required"`
}

// HandleCreateLot creates a new lot
func (h *LotHandler) HandleCreateLot(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-lot")
	defer h.tracer.EndTransaction(txn)

	var req CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	h.tracer.AddAttribute(txn, "style_ref", req.StyleRef)

	lot, err := h.lotService.CreateLot(c, services.LotInput{
		TenantID:      req.TenantID,
		ClientID:      req.ClientID,
		FactoryID:     req.FactoryID,
		StyleRef:      req.StyleRef,
		QuantityTotal: req.QuantityTotal,
	})
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lot)
}

// HandleGetLot returns a lot with its suppliers, stages and computed snapshot
func (h *LotHandler) HandleGetLot(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-get-lot")
	defer h.tracer.EndTransaction(txn)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	lot, err := h.lotService.GetLotWithPipeline(c, id)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	_, snapshot, err := h.pipelineService.LotPipeline(c, id)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lot":      lot,
		"snapshot": snapshot,
	})
}

// UpdateStatusRequest represents a lot status change request
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// HandleUpdateStatus moves a lot along the status graph
func (h *LotHandler) HandleUpdateStatus(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-update-lot-status")
	defer h.tracer.EndTransaction(txn)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	h.tracer.AddAttribute(txn, "target_status", req.Status)

	lot, err := h.lotService.UpdateStatus(c, id, req.Status)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lot)
}

// ApprovalRequest represents the one-time approval decision for a lot
type ApprovalRequest struct {
	Decision  string `json:"decision" binding:"required"`
	Note      string `json:"note"`
	DecidedBy string `json:"decided_by" binding:"required"`
}

// HandleRecordApproval records the approve/reject decision for a lot
func (h *LotHandler) HandleRecordApproval(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-record-approval")
	defer h.tracer.EndTransaction(txn)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	h.tracer.AddAttribute(txn, "decision", req.Decision)

	approval, err := h.lotService.RecordApproval(c, id, services.ApprovalInput{
		Decision:  req.Decision,
		Note:      req.Note,
		DecidedBy: req.DecidedBy,
	})
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, approval)
}

// HandleGetApproval returns the recorded decision for a lot
func (h *LotHandler) HandleGetApproval(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	approval, err := h.lotService.GetApproval(c, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, approval)
}

// InspectionRequest represents one quality-control pass over part of a lot
type InspectionRequest struct {
	PiecesInspected int     `json:"pieces_inspected" binding:"required"`
	DefectsFound    int     `json:"defects_found"`
	InspectorID     *string `json:"inspector_id"`
	WorkbenchID     *string `json:"workbench_id"`
	Notes           string  `json:"notes"`
}

// HandleRecordInspection stores an inspection result for a lot
func (h *LotHandler) HandleRecordInspection(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-record-inspection")
	defer h.tracer.EndTransaction(txn)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req InspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	inspection, err := h.lotService.RecordInspection(c, id, services.InspectionInput{
		PiecesInspected: req.PiecesInspected,
		DefectsFound:    req.DefectsFound,
		InspectorID:     req.InspectorID,
		WorkbenchID:     req.WorkbenchID,
		Notes:           req.Notes,
	})
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inspection)
}

// HandleSearchLots searches the lot summary index by style text and status
func (h *LotHandler) HandleSearchLots(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-search-lots")
	defer h.tracer.EndTransaction(txn)

	docs, err := h.lotService.SearchLots(c, c.Query("q"), c.Query("status"))
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lots": docs})
}

// RegisterRoutes registers the handler's routes
func (h *LotHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/lots", h.HandleCreateLot)
	api.GET("/lots", h.HandleSearchLots)
	api.GET("/lots/:id", h.HandleGetLot)
	api.PATCH("/lots/:id/status", h.HandleUpdateStatus)
	api.POST("/lots/:id/approval", h.HandleRecordApproval)
	api.GET("/lots/:id/approval", h.HandleGetApproval)
	api.POST("/lots/:id/inspections", h.HandleRecordInspection)
}
