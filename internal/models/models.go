package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Lot statuses. Lot status is driven by external actions (inspection
// completion, approval decisions) and is not derived from the stage pipeline.
const (
	LotStatusPlanned         = "PLANNED"
	LotStatusInProduction    = "IN_PRODUCTION"
	LotStatusInspection      = "INSPECTION"
	LotStatusPendingApproval = "PENDING_APPROVAL"
	LotStatusApproved        = "APPROVED"
	LotStatusRejected        = "REJECTED"
	LotStatusShipped         = "SHIPPED"
)

// Stage statuses for a lot-factory-role stage.
const (
	StageStatusNotStarted = "NOT_STARTED"
	StageStatusInProgress = "IN_PROGRESS"
	StageStatusCompleted  = "COMPLETED"
)

// Approval decisions.
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// Tenant represents a brand operating on the platform
type Tenant struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
}

// Client represents a buyer a lot is produced for
type Client struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name      string         `gorm:"not null" json:"name"`
	Tenant    Tenant         `gorm:"foreignKey:TenantID" json:"-"`
}

// Factory represents a production site
type Factory struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt      `gorm:"index" json:"-"`
	TenantID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name           string              `gorm:"not null" json:"name"`
	Country        string              `json:"country"`
	City           string              `json:"city"`
	Certifications []byte              `gorm:"type:jsonb" json:"certifications"`
	Tenant         Tenant              `gorm:"foreignKey:TenantID" json:"-"`
	Capabilities   []FactoryCapability `gorm:"foreignKey:FactoryID" json:"-"`
}

// SupplyChainRole is a catalog entry for a production stage definition.
// Keys are durable identifiers referenced by historical data; renames go
// through an explicit rename step, never a delete-and-recreate.
type SupplyChainRole struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Key             string    `gorm:"not null;uniqueIndex" json:"key"`
	Name            string    `gorm:"not null" json:"name"`
	Description     string    `json:"description"`
	DefaultSequence int       `gorm:"not null" json:"default_sequence"`
	DefaultCo2Kg    float64   `gorm:"type:numeric(10,3);not null" json:"default_co2_kg"`
}

// TableName keeps the original relational name for the catalog table
func (SupplyChainRole) TableName() string {
	return "supply_chain_roles"
}

// FactoryCapability declares that a factory can perform a catalog role
type FactoryCapability struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	FactoryID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_factory_role" json:"factory_id"`
	RoleID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_factory_role" json:"role_id"`
	Co2OverrideKg *float64        `gorm:"type:numeric(10,3)" json:"co2_override_kg"`
	Notes         string          `json:"notes"`
	Factory       Factory         `gorm:"foreignKey:FactoryID" json:"-"`
	Role          SupplyChainRole `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// TableName keeps the original relational name for the capability table
func (FactoryCapability) TableName() string {
	return "factory_roles"
}

// Lot represents a production lot owned by a tenant
type Lot struct {
	ID                uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt         time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt          `gorm:"index" json:"-"`
	TenantID          uuid.UUID               `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ClientID          *uuid.UUID              `gorm:"type:uuid" json:"client_id"`
	FactoryID         *uuid.UUID              `gorm:"type:uuid" json:"factory_id"`
	StyleRef          string                  `gorm:"not null" json:"style_ref"`
	QuantityTotal     int                     `gorm:"not null;default:0" json:"quantity_total"`
	Status            string                  `gorm:"not null;default:PLANNED" json:"status"`
	DefectRate        float64                 `gorm:"not null;default:0" json:"defect_rate"`
	InspectedProgress float64                 `gorm:"not null;default:0" json:"inspected_progress"`
	Tenant            Tenant                  `gorm:"foreignKey:TenantID" json:"-"`
	Client            *Client                 `gorm:"foreignKey:ClientID" json:"-"`
	Factory           *Factory                `gorm:"foreignKey:FactoryID" json:"-"`
	Suppliers         []LotSupplierAssignment `gorm:"foreignKey:LotID" json:"suppliers,omitempty"`
	Inspections       []Inspection            `gorm:"foreignKey:LotID" json:"-"`
}

// LotSupplierAssignment places a factory into a lot's multi-factory chain.
// Sequence values are advisory ordering, not necessarily contiguous.
type LotSupplierAssignment struct {
	ID        uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
	LotID     uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_lot_factory" json:"lot_id"`
	FactoryID uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_lot_factory" json:"factory_id"`
	Sequence  int                   `gorm:"not null;default:0" json:"sequence"`
	IsPrimary bool                  `gorm:"not null;default:false" json:"is_primary"`
	Stage     *string               `json:"stage"`
	Lot       Lot                   `gorm:"foreignKey:LotID" json:"-"`
	Factory   Factory               `gorm:"foreignKey:FactoryID" json:"factory,omitempty"`
	Roles     []LotFactoryRoleStage `gorm:"foreignKey:LotFactoryID" json:"roles,omitempty"`
}

// TableName keeps the original relational name for the assignment table
func (LotSupplierAssignment) TableName() string {
	return "lot_factories"
}

// LotFactoryRoleStage is one production stage a supplier performs on a lot
type LotFactoryRoleStage struct {
	ID           uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
	LotFactoryID uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_lot_factory_role" json:"lot_factory_id"`
	RoleID       uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_lot_factory_role" json:"role_id"`
	Sequence     int                   `gorm:"not null;default:0" json:"sequence"`
	Status       string                `gorm:"not null;default:NOT_STARTED" json:"status"`
	StartedAt    *time.Time            `json:"started_at"`
	CompletedAt  *time.Time            `json:"completed_at"`
	Co2Kg        *float64              `gorm:"type:numeric(10,3)" json:"co2_kg"`
	Notes        string                `json:"notes"`
	Assignment   LotSupplierAssignment `gorm:"foreignKey:LotFactoryID" json:"-"`
	Role         SupplyChainRole       `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// TableName keeps the original relational name for the stage table
func (LotFactoryRoleStage) TableName() string {
	return "lot_factory_roles"
}

// EffectiveCo2Kg returns the stage override when present, the role default
// otherwise. The role association must be loaded.
func (s *LotFactoryRoleStage) EffectiveCo2Kg() float64 {
	if s.Co2Kg != nil {
		return *s.Co2Kg
	}
	return s.Role.DefaultCo2Kg
}

// Approval is the one-time approve/reject decision for a lot
type Approval struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	LotID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"lot_id"`
	Decision  string    `gorm:"not null" json:"decision"`
	Note      string    `json:"note"`
	DecidedBy string    `gorm:"not null" json:"decided_by"`
	DecidedAt time.Time `gorm:"not null" json:"decided_at"`
	Lot       Lot       `gorm:"foreignKey:LotID" json:"-"`
}

// Inspection records one quality-control pass over part of a lot
type Inspection struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	LotID           uuid.UUID `gorm:"type:uuid;not null;index" json:"lot_id"`
	PiecesInspected int       `gorm:"not null;default:0" json:"pieces_inspected"`
	DefectsFound    int       `gorm:"not null;default:0" json:"defects_found"`
	InspectorID     *string   `json:"inspector_id"`
	WorkbenchID     *string   `json:"workbench_id"`
	Notes           string    `json:"notes"`
	Lot             Lot       `gorm:"foreignKey:LotID" json:"-"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Tenant{},
		&Client{},
		&Factory{},
		&SupplyChainRole{},
		&FactoryCapability{},
		&Lot{},
		&LotSupplierAssignment{},
		&LotFactoryRoleStage{},
		&Approval{},
		&Inspection{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
