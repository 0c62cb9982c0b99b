package services

import (
	"context"
	"encoding/json"

	"example.com/loomtrack/services/supplychain/internal/models"
	"example.com/loomtrack/services/supplychain/internal/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

type mockRoleStore struct {
	mock.Mock
}

func (m *mockRoleStore) GetByID(ctx context.Context, id uuid.UUID) (*models.SupplyChainRole, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupplyChainRole), args.Error(1)
}

func (m *mockRoleStore) GetByKey(ctx context.Context, key string) (*models.SupplyChainRole, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupplyChainRole), args.Error(1)
}

func (m *mockRoleStore) List(ctx context.Context) ([]models.SupplyChainRole, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SupplyChainRole), args.Error(1)
}

func (m *mockRoleStore) Create(ctx context.Context, role *models.SupplyChainRole) error {
	return m.Called(ctx, role).Error(0)
}

func (m *mockRoleStore) Save(ctx context.Context, role *models.SupplyChainRole) error {
	return m.Called(ctx, role).Error(0)
}

type mockFactoryStore struct {
	mock.Mock
}

func (m *mockFactoryStore) Create(ctx context.Context, factory *models.Factory) error {
	return m.Called(ctx, factory).Error(0)
}

func (m *mockFactoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Factory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Factory), args.Error(1)
}

func (m *mockFactoryStore) ReplaceCapabilities(ctx context.Context, factoryID uuid.UUID, capabilities []models.FactoryCapability) error {
	return m.Called(ctx, factoryID, capabilities).Error(0)
}

func (m *mockFactoryStore) ListCapabilities(ctx context.Context, factoryID uuid.UUID) ([]models.FactoryCapability, error) {
	args := m.Called(ctx, factoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FactoryCapability), args.Error(1)
}

type mockLotStore struct {
	mock.Mock
}

func (m *mockLotStore) Create(ctx context.Context, lot *models.Lot) error {
	return m.Called(ctx, lot).Error(0)
}

func (m *mockLotStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lot), args.Error(1)
}

func (m *mockLotStore) GetWithPipeline(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lot), args.Error(1)
}

func (m *mockLotStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockLotStore) SetHomeFactory(ctx context.Context, id uuid.UUID, factoryID uuid.UUID) error {
	return m.Called(ctx, id, factoryID).Error(0)
}

func (m *mockLotStore) UpdateAggregates(ctx context.Context, id uuid.UUID, defectRate, inspectedProgress float64) error {
	return m.Called(ctx, id, defectRate, inspectedProgress).Error(0)
}

func (m *mockLotStore) ListByStatus(ctx context.Context, status string, limit int) ([]models.Lot, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lot), args.Error(1)
}

type mockApprovalStore struct {
	mock.Mock
}

func (m *mockApprovalStore) Create(ctx context.Context, approval *models.Approval) error {
	return m.Called(ctx, approval).Error(0)
}

func (m *mockApprovalStore) GetByLotID(ctx context.Context, lotID uuid.UUID) (*models.Approval, error) {
	args := m.Called(ctx, lotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Approval), args.Error(1)
}

type mockInspectionStore struct {
	mock.Mock
}

func (m *mockInspectionStore) Create(ctx context.Context, inspection *models.Inspection) error {
	return m.Called(ctx, inspection).Error(0)
}

func (m *mockInspectionStore) TotalsForLot(ctx context.Context, lotID uuid.UUID) (repositories.InspectionTotals, error) {
	args := m.Called(ctx, lotID)
	return args.Get(0).(repositories.InspectionTotals), args.Error(1)
}

type mockPipelineStore struct {
	mock.Mock
}

func (m *mockPipelineStore) CreateAssignment(ctx context.Context, assignment *models.LotSupplierAssignment) error {
	return m.Called(ctx, assignment).Error(0)
}

func (m *mockPipelineStore) GetAssignment(ctx context.Context, id uuid.UUID) (*models.LotSupplierAssignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LotSupplierAssignment), args.Error(1)
}

func (m *mockPipelineStore) ListAssignments(ctx context.Context) ([]models.LotSupplierAssignment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LotSupplierAssignment), args.Error(1)
}

func (m *mockPipelineStore) CreateStage(ctx context.Context, stage *models.LotFactoryRoleStage) error {
	return m.Called(ctx, stage).Error(0)
}

func (m *mockPipelineStore) GetStage(ctx context.Context, id uuid.UUID) (*models.LotFactoryRoleStage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LotFactoryRoleStage), args.Error(1)
}

func (m *mockPipelineStore) SaveStage(ctx context.Context, stage *models.LotFactoryRoleStage) error {
	return m.Called(ctx, stage).Error(0)
}

func (m *mockPipelineStore) UpdateStageSequence(ctx context.Context, id uuid.UUID, sequence int) error {
	return m.Called(ctx, id, sequence).Error(0)
}

func (m *mockPipelineStore) StagesForAssignment(ctx context.Context, lotFactoryID uuid.UUID) ([]models.LotFactoryRoleStage, error) {
	args := m.Called(ctx, lotFactoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LotFactoryRoleStage), args.Error(1)
}

func (m *mockPipelineStore) StagesForLot(ctx context.Context, lotID uuid.UUID) ([]models.LotFactoryRoleStage, error) {
	args := m.Called(ctx, lotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LotFactoryRoleStage), args.Error(1)
}

type mockRealigner struct {
	mock.Mock
}

func (m *mockRealigner) RealignStageSequences(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// memoryCache is an in-process PipelineCache for tests
type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, value interface{}) error {
	payload, ok := c.data[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(payload, value)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = payload
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}
