package repositories

import (
	"context"

	"example.com/loomtrack/services/supplychain/internal/apperrors"
	"example.com/loomtrack/services/supplychain/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleRepository provides access to the supply-chain role catalog
type RoleRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB, readOnlyDB *gorm.DB) *RoleRepository {
	return &RoleRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByID gets a catalog role by ID
func (r *RoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SupplyChainRole, error) {
	var role models.SupplyChainRole
	err := r.readOnlyDB.WithContext(ctx).First(&role, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "role %s", id)
	}
	return &role, nil
}

// GetByKey gets a catalog role by its durable key
func (r *RoleRepository) GetByKey(ctx context.Context, key string) (*models.SupplyChainRole, error) {
	var role models.SupplyChainRole
	err := r.readOnlyDB.WithContext(ctx).Where("key = ?", key).First(&role).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "role key %q", key)
	}
	return &role, nil
}

// List returns the whole catalog in canonical order
func (r *RoleRepository) List(ctx context.Context) ([]models.SupplyChainRole, error) {
	var roles []models.SupplyChainRole
	err := r.readOnlyDB.WithContext(ctx).
		Order("default_sequence, key").
		Find(&roles).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "list roles")
	}
	return roles, nil
}

// Create inserts a new catalog role
func (r *RoleRepository) Create(ctx context.Context, role *models.SupplyChainRole) error {
	err := r.db.WithContext(ctx).Create(role).Error
	return apperrors.FromDB(err, "create role %q", role.Key)
}

// Save persists changes to an existing catalog role
func (r *RoleRepository) Save(ctx context.Context, role *models.SupplyChainRole) error {
	err := r.db.WithContext(ctx).Save(role).Error
	return apperrors.FromDB(err, "save role %q", role.Key)
}
