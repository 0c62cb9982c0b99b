package repositories

import (
	"context"

	"example.com/loomtrack/services/supplychain/internal/apperrors"
	"example.com/loomtrack/services/supplychain/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LotRepository provides access to lot data
type LotRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *gorm.DB, readOnlyDB *gorm.DB) *LotRepository {
	return &LotRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new lot
func (r *LotRepository) Create(ctx context.Context, lot *models.Lot) error {
	err := r.db.WithContext(ctx).Create(lot).Error
	return apperrors.FromDB(err, "create lot")
}

// GetByID gets a lot by ID without its associations
func (r *LotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	var lot models.Lot
	err := r.readOnlyDB.WithContext(ctx).First(&lot, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "lot %s", id)
	}
	return &lot, nil
}

// GetWithPipeline gets a lot with its ordered suppliers and their stages
func (r *LotRepository) GetWithPipeline(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	var lot models.Lot
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Suppliers", func(db *gorm.DB) *gorm.DB {
			return db.Order("lot_factories.sequence, lot_factories.created_at")
		}).
		Preload("Suppliers.Factory").
		Preload("Suppliers.Roles", func(db *gorm.DB) *gorm.DB {
			return db.Order("lot_factory_roles.sequence, lot_factory_roles.created_at")
		}).
		Preload("Suppliers.Roles.Role").
		First(&lot, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "lot %s", id)
	}
	return &lot, nil
}

// UpdateStatus sets a lot's status
func (r *LotRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Lot{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return apperrors.FromDB(result.Error, "update status of lot %s", id)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("lot %s", id)
	}
	return nil
}

// UpdateAggregates sets a lot's computed defect rate and inspected progress
func (r *LotRepository) UpdateAggregates(ctx context.Context, id uuid.UUID, defectRate, inspectedProgress float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Lot{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"defect_rate":        defectRate,
			"inspected_progress": inspectedProgress,
		})
	if result.Error != nil {
		return apperrors.FromDB(result.Error, "update aggregates of lot %s", id)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("lot %s", id)
	}
	return nil
}

// SetHomeFactory points a lot at its primary factory
func (r *LotRepository) SetHomeFactory(ctx context.Context, id uuid.UUID, factoryID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Lot{}).
		Where("id = ?", id).
		Update("factory_id", factoryID)
	if result.Error != nil {
		return apperrors.FromDB(result.Error, "set home factory of lot %s", id)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("lot %s", id)
	}
	return nil
}

// ListByStatus returns lots in the given status, oldest first
func (r *LotRepository) ListByStatus(ctx context.Context, status string, limit int) ([]models.Lot, error) {
	var lots []models.Lot
	err := r.readOnlyDB.WithContext(ctx).
		Where("status = ?", status).
		Order("updated_at").
		Limit(limit).
		Find(&lots).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "list lots in status %s", status)
	}
	return lots, nil
}

// ApprovalRepository provides access to lot approval decisions
type ApprovalRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts the one-time approval row for a lot. The unique index on
// lot_id makes a second decision a conflict.
func (r *ApprovalRepository) Create(ctx context.Context, approval *models.Approval) error {
	err := r.db.WithContext(ctx).Create(approval).Error
	return apperrors.FromDB(err, "record approval for lot %s", approval.LotID)
}

// GetByLotID gets the approval decision for a lot
func (r *ApprovalRepository) GetByLotID(ctx context.Context, lotID uuid.UUID) (*models.Approval, error) {
	var approval models.Approval
	err := r.readOnlyDB.WithContext(ctx).Where("lot_id = ?", lotID).First(&approval).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "approval for lot %s", lotID)
	}
	return &approval, nil
}

// InspectionRepository provides access to inspection records
type InspectionRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewInspectionRepository creates a new inspection repository
func NewInspectionRepository(db *gorm.DB, readOnlyDB *gorm.DB) *InspectionRepository {
	return &InspectionRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new inspection record
func (r *InspectionRepository) Create(ctx context.Context, inspection *models.Inspection) error {
	err := r.db.WithContext(ctx).Create(inspection).Error
	return apperrors.FromDB(err, "create inspection for lot %s", inspection.LotID)
}

// InspectionTotals is the summed inspection workload for a lot
type InspectionTotals struct {
	PiecesInspected int
	DefectsFound    int
}

// TotalsForLot sums pieces inspected and defects found across a lot's
// inspections
func (r *InspectionRepository) TotalsForLot(ctx context.Context, lotID uuid.UUID) (InspectionTotals, error) {
	var totals InspectionTotals
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Inspection{}).
		Select("COALESCE(SUM(pieces_inspected), 0) AS pieces_inspected, COALESCE(SUM(defects_found), 0) AS defects_found").
		Where("lot_id = ?", lotID).
		Scan(&totals).Error
	if err != nil {
		return InspectionTotals{}, apperrors.FromDB(err, "sum inspections for lot %s", lotID)
	}
	return totals, nil
}
