package services

import (
	"context"

	"example.com/loomtrack/services/supplychain/internal/apperrors"
	"example.com/loomtrack/services/supplychain/internal/models"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CapabilityInput declares one role a factory can perform
type CapabilityInput struct {
	RoleID        uuid.UUID
	Co2OverrideKg *float64
	Notes         string
}

// CapabilityService manages factory capability declarations
type CapabilityService struct {
	factoryRepo FactoryStore
	roleRepo    RoleStore
	tracer      tracing.Tracer
}

// NewCapabilityService creates a new capability service
func NewCapabilityService(factoryRepo FactoryStore, roleRepo RoleStore, tracer tracing.Tracer) *CapabilityService {
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &CapabilityService{
		factoryRepo: factoryRepo,
		roleRepo:    roleRepo,
		tracer:      tracer,
	}
}

// SetCapabilities replaces a factory's full capability set. The operation
// is all-or-nothing: one unknown role or duplicate entry rejects the whole
// request and leaves the previous set intact.
func (s *CapabilityService) SetCapabilities(ctx context.Context, factoryID uuid.UUID, inputs []CapabilityInput) ([]models.FactoryCapability, error) {
	txn := s.tracer.StartTransaction("set-capabilities")
	defer s.tracer.EndTransaction(txn)

	factory, err := s.factoryRepo.GetByID(ctx, factoryID)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(inputs))
	capabilities := make([]models.FactoryCapability, 0, len(inputs))
	for _, input := range inputs {
		if seen[input.RoleID] {
			return nil, apperrors.Conflictf("role %s listed twice for factory %s", input.RoleID, factory.ID)
		}
		seen[input.RoleID] = true

		if input.Co2OverrideKg != nil && *input.Co2OverrideKg < 0 {
			return nil, apperrors.Validationf("co2 override must be >= 0, got %v", *input.Co2OverrideKg)
		}

		role, err := s.roleRepo.GetByID(ctx, input.RoleID)
		if err != nil {
			s.tracer.RecordError(txn, err)
			return nil, err
		}

		capabilities = append(capabilities, models.FactoryCapability{
			ID:            uuid.New(),
			FactoryID:     factory.ID,
			RoleID:        role.ID,
			Co2OverrideKg: input.Co2OverrideKg,
			Notes:         input.Notes,
			Role:          *role,
		})
	}

	if err := s.factoryRepo.ReplaceCapabilities(ctx, factory.ID, capabilities); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	log.Info().
		Str("factory_id", factory.ID.String()).
		Int("capabilities", len(capabilities)).
		Msg("Factory capabilities replaced")

	return capabilities, nil
}

// ListCapabilities returns a factory's declared capabilities in catalog
// default order
func (s *CapabilityService) ListCapabilities(ctx context.Context, factoryID uuid.UUID) ([]models.FactoryCapability, error) {
	if _, err := s.factoryRepo.GetByID(ctx, factoryID); err != nil {
		return nil, err
	}
	return s.factoryRepo.ListCapabilities(ctx, factoryID)
}
