package repositories

import (
	"context"

	"example.com/loomtrack/services/supplychain/internal/apperrors"
	"example.com/loomtrack/services/supplychain/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PipelineRepository provides access to lot-supplier assignments and their
// role stages
type PipelineRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewPipelineRepository creates a new pipeline repository
func NewPipelineRepository(db *gorm.DB, readOnlyDB *gorm.DB) *PipelineRepository {
	return &PipelineRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// CreateAssignment inserts a lot-supplier assignment. A duplicate
// (lot, factory) pair is a conflict.
func (r *PipelineRepository) CreateAssignment(ctx context.Context, assignment *models.LotSupplierAssignment) error {
	err := r.db.WithContext(ctx).Create(assignment).Error
	return apperrors.FromDB(err, "assign factory %s to lot %s", assignment.FactoryID, assignment.LotID)
}

// GetAssignment gets a lot-supplier assignment with its factory loaded
func (r *PipelineRepository) GetAssignment(ctx context.Context, id uuid.UUID) (*models.LotSupplierAssignment, error) {
	var assignment models.LotSupplierAssignment
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Factory").
		First(&assignment, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "assignment %s", id)
	}
	return &assignment, nil
}

// ListAssignments returns every assignment, used by catalog realignment
func (r *PipelineRepository) ListAssignments(ctx context.Context) ([]models.LotSupplierAssignment, error) {
	var assignments []models.LotSupplierAssignment
	err := r.readOnlyDB.WithContext(ctx).Find(&assignments).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "list assignments")
	}
	return assignments, nil
}

// CreateStage inserts one role stage for an assignment. A duplicate
// (assignment, role) pair is a conflict.
func (r *PipelineRepository) CreateStage(ctx context.Context, stage *models.LotFactoryRoleStage) error {
	err := r.db.WithContext(ctx).Create(stage).Error
	return apperrors.FromDB(err, "create stage for assignment %s role %s", stage.LotFactoryID, stage.RoleID)
}

// GetStage gets a role stage with its catalog role loaded
func (r *PipelineRepository) GetStage(ctx context.Context, id uuid.UUID) (*models.LotFactoryRoleStage, error) {
	var stage models.LotFactoryRoleStage
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Role").
		Preload("Assignment").
		First(&stage, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "stage %s", id)
	}
	return &stage, nil
}

// SaveStage persists status and timestamp changes to a stage
func (r *PipelineRepository) SaveStage(ctx context.Context, stage *models.LotFactoryRoleStage) error {
	err := r.db.WithContext(ctx).Save(stage).Error
	return apperrors.FromDB(err, "save stage %s", stage.ID)
}

// UpdateStageSequence sets just the ordering position of a stage
func (r *PipelineRepository) UpdateStageSequence(ctx context.Context, id uuid.UUID, sequence int) error {
	result := r.db.WithContext(ctx).
		Model(&models.LotFactoryRoleStage{}).
		Where("id = ?", id).
		Update("sequence", sequence)
	if result.Error != nil {
		return apperrors.FromDB(result.Error, "update sequence of stage %s", id)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("stage %s", id)
	}
	return nil
}

// StagesForAssignment returns one supplier's stages in order, with catalog
// roles loaded
func (r *PipelineRepository) StagesForAssignment(ctx context.Context, lotFactoryID uuid.UUID) ([]models.LotFactoryRoleStage, error) {
	var stages []models.LotFactoryRoleStage
	err := r.readOnlyDB.WithContext(ctx).
		Where("lot_factory_id = ?", lotFactoryID).
		Order("sequence, created_at").
		Preload("Role").
		Find(&stages).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "stages for assignment %s", lotFactoryID)
	}
	return stages, nil
}

// StagesForLot returns a lot's complete pipeline across all suppliers,
// ordered by (supplier sequence, stage sequence) with creation order breaking
// ties
func (r *PipelineRepository) StagesForLot(ctx context.Context, lotID uuid.UUID) ([]models.LotFactoryRoleStage, error) {
	var stages []models.LotFactoryRoleStage
	err := r.readOnlyDB.WithContext(ctx).
		Joins("JOIN lot_factories ON lot_factories.id = lot_factory_roles.lot_factory_id").
		Where("lot_factories.lot_id = ?", lotID).
		Order("lot_factories.sequence, lot_factory_roles.sequence, lot_factory_roles.created_at").
		Preload("Role").
		Preload("Assignment").
		Find(&stages).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "stages for lot %s", lotID)
	}
	return stages, nil
}
