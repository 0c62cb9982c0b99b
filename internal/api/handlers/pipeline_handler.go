package handlers

import (
	"net/http"

	"example.com/loomtrack/services/supplychain/internal/services"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PipelineHandler handles supplier assignment and stage pipeline HTTP
// requests
type PipelineHandler struct {
	pipelineService *services.PipelineService
	tracer          tracing.Tracer
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(pipelineService *services.PipelineService, tracer tracing.Tracer) *PipelineHandler {
	return &PipelineHandler{
		pipelineService: pipelineService,
		tracer:          tracer,
	}
}

// AssignSupplierRequest places a factory into a lot's supplier chain
type AssignSupplierRequest struct {
	FactoryID  uuid.UUID `json:"factory_id" binding:"required"`
	Sequence   int       `json:"sequence"`
	IsPrimary  bool      `json:"is_primary"`
	StageLabel *string   `json:"stage"`
}

// HandleAssignSupplier assigns a factory to a lot
func (h *PipelineHandler) HandleAssignSupplier(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-assign-supplier")
	defer h.tracer.EndTransaction(txn)

	lotID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AssignSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	assignment, err := h.pipelineService.AssignSupplier(c, lotID, req.FactoryID, req.Sequence, req.IsPrimary, req.StageLabel)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// StageSelectionRequest picks one catalog role during stage initialization
type StageSelectionRequest struct {
	RoleID   uuid.UUID `json:"role_id" binding:"required"`
	Sequence *int      `json:"sequence"`
	Co2Kg    *float64  `json:"co2_kg"`
	Notes    string    `json:"notes"`
}

// InitializeStagesRequest selects the roles a supplier performs on a lot.
// An empty selection falls back to the factory's declared capabilities.
type InitializeStagesRequest struct {
	Selections []StageSelectionRequest `json:"selections"`
}

// HandleInitializeStages creates the role stages for a supplier assignment
func (h *PipelineHandler) HandleInitializeStages(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-initialize-stages")
	defer h.tracer.EndTransaction(txn)

	assignmentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req InitializeStagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	selections := make([]services.StageSelection, 0, len(req.Selections))
	for _, sel := range req.Selections {
		selections = append(selections, services.StageSelection{
			RoleID:   sel.RoleID,
			Sequence: sel.Sequence,
			Co2Kg:    sel.Co2Kg,
			Notes:    sel.Notes,
		})
	}

	stages, err := h.pipelineService.InitializeStages(c, assignmentID, selections)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, stages)
}

// HandleAdvanceStage moves a stage to its next status
func (h *PipelineHandler) HandleAdvanceStage(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-advance-stage")
	defer h.tracer.EndTransaction(txn)

	stageID, ok := parseID(c, "id")
	if !ok {
		return
	}

	stage, err := h.pipelineService.AdvanceStage(c, stageID)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stage)
}

// HandleGetPipeline returns a lot's ordered pipeline and its snapshot
func (h *PipelineHandler) HandleGetPipeline(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-get-pipeline")
	defer h.tracer.EndTransaction(txn)

	lotID, ok := parseID(c, "id")
	if !ok {
		return
	}

	stages, snapshot, err := h.pipelineService.LotPipeline(c, lotID)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stages":   stages,
		"snapshot": snapshot,
	})
}

// RegisterRoutes registers the handler's routes
func (h *PipelineHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/lots/:id/suppliers", h.HandleAssignSupplier)
	api.GET("/lots/:id/pipeline", h.HandleGetPipeline)
	api.POST("/suppliers/:id/stages", h.HandleInitializeStages)
	api.PATCH("/stages/:id/advance", h.HandleAdvanceStage)
}
