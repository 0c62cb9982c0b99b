package repositories

import (
	"context"

	"example.com/loomtrack/services/supplychain/internal/apperrors"
	"example.com/loomtrack/services/supplychain/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantRepository provides access to tenant data
type TenantRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB, readOnlyDB *gorm.DB) *TenantRepository {
	return &TenantRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new tenant
func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	err := r.db.WithContext(ctx).Create(tenant).Error
	return apperrors.FromDB(err, "create tenant")
}

// GetByID gets a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.readOnlyDB.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "tenant %s", id)
	}
	return &tenant, nil
}

// FactoryRepository provides access to factory data and declared capabilities
type FactoryRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewFactoryRepository creates a new factory repository
func NewFactoryRepository(db *gorm.DB, readOnlyDB *gorm.DB) *FactoryRepository {
	return &FactoryRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new factory
func (r *FactoryRepository) Create(ctx context.Context, factory *models.Factory) error {
	err := r.db.WithContext(ctx).Create(factory).Error
	return apperrors.FromDB(err, "create factory")
}

// GetByID gets a factory by ID
func (r *FactoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Factory, error) {
	var factory models.Factory
	err := r.readOnlyDB.WithContext(ctx).First(&factory, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "factory %s", id)
	}
	return &factory, nil
}

// ReplaceCapabilities atomically swaps a factory's declared capability set
func (r *FactoryRepository) ReplaceCapabilities(ctx context.Context, factoryID uuid.UUID, capabilities []models.FactoryCapability) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("factory_id = ?", factoryID).Delete(&models.FactoryCapability{}).Error; err != nil {
			return err
		}
		for i := range capabilities {
			if err := tx.Create(&capabilities[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return apperrors.FromDB(err, "replace capabilities for factory %s", factoryID)
}

// ListCapabilities returns a factory's capabilities with their catalog roles
// loaded, in catalog order
func (r *FactoryRepository) ListCapabilities(ctx context.Context, factoryID uuid.UUID) ([]models.FactoryCapability, error) {
	var capabilities []models.FactoryCapability
	err := r.readOnlyDB.WithContext(ctx).
		Joins("JOIN supply_chain_roles ON supply_chain_roles.id = factory_roles.role_id").
		Where("factory_roles.factory_id = ?", factoryID).
		Order("supply_chain_roles.default_sequence").
		Preload("Role").
		Find(&capabilities).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "list capabilities for factory %s", factoryID)
	}
	return capabilities, nil
}

// ClientRepository provides access to client (buyer) data
type ClientRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ClientRepository {
	return &ClientRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new client
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	err := r.db.WithContext(ctx).Create(client).Error
	return apperrors.FromDB(err, "create client")
}

// GetByID gets a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := r.readOnlyDB.WithContext(ctx).First(&client, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromDB(err, "client %s", id)
	}
	return &client, nil
}
