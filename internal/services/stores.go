package services

import (
	"context"

	"example.com/loomtrack/services/supplychain/internal/models"
	"example.com/loomtrack/services/supplychain/internal/repositories"

	"github.com/google/uuid"
)

// The services depend on narrow store interfaces rather than the concrete
// repositories so tests can substitute mocks.

// RoleStore is the catalog persistence surface used by the services
type RoleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.SupplyChainRole, error)
	GetByKey(ctx context.Context, key string) (*models.SupplyChainRole, error)
	List(ctx context.Context) ([]models.SupplyChainRole, error)
	Create(ctx context.Context, role *models.SupplyChainRole) error
	Save(ctx context.Context, role *models.SupplyChainRole) error
}

// FactoryStore is the factory/capability persistence surface
type FactoryStore interface {
	Create(ctx context.Context, factory *models.Factory) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Factory, error)
	ReplaceCapabilities(ctx context.Context, factoryID uuid.UUID, capabilities []models.FactoryCapability) error
	ListCapabilities(ctx context.Context, factoryID uuid.UUID) ([]models.FactoryCapability, error)
}

// LotStore is the lot persistence surface
type LotStore interface {
	Create(ctx context.Context, lot *models.Lot) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lot, error)
	GetWithPipeline(ctx context.Context, id uuid.UUID) (*models.Lot, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SetHomeFactory(ctx context.Context, id uuid.UUID, factoryID uuid.UUID) error
	UpdateAggregates(ctx context.Context, id uuid.UUID, defectRate, inspectedProgress float64) error
	ListByStatus(ctx context.Context, status string, limit int) ([]models.Lot, error)
}

// ApprovalStore is the approval persistence surface
type ApprovalStore interface {
	Create(ctx context.Context, approval *models.Approval) error
	GetByLotID(ctx context.Context, lotID uuid.UUID) (*models.Approval, error)
}

// InspectionStore is the inspection persistence surface
type InspectionStore interface {
	Create(ctx context.Context, inspection *models.Inspection) error
	TotalsForLot(ctx context.Context, lotID uuid.UUID) (repositories.InspectionTotals, error)
}

// PipelineStore is the assignment/stage persistence surface
type PipelineStore interface {
	CreateAssignment(ctx context.Context, assignment *models.LotSupplierAssignment) error
	GetAssignment(ctx context.Context, id uuid.UUID) (*models.LotSupplierAssignment, error)
	ListAssignments(ctx context.Context) ([]models.LotSupplierAssignment, error)
	CreateStage(ctx context.Context, stage *models.LotFactoryRoleStage) error
	GetStage(ctx context.Context, id uuid.UUID) (*models.LotFactoryRoleStage, error)
	SaveStage(ctx context.Context, stage *models.LotFactoryRoleStage) error
	UpdateStageSequence(ctx context.Context, id uuid.UUID, sequence int) error
	StagesForAssignment(ctx context.Context, lotFactoryID uuid.UUID) ([]models.LotFactoryRoleStage, error)
	StagesForLot(ctx context.Context, lotID uuid.UUID) ([]models.LotFactoryRoleStage, error)
}

// PipelineCache stores computed pipeline views between reads
type PipelineCache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}
