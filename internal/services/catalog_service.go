package services

import (
	"context"
	"strings"

	"example.com/loomtrack/services/supplychain/internal/apperrors"
	"example.com/loomtrack/services/supplychain/internal/models"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StageRealigner re-ranks existing stage sequences after the catalog's
// default ordering changes.
type StageRealigner interface {
	RealignStageSequences(ctx context.Context) error
}

// CatalogService manages the supply-chain role catalog
type CatalogService struct {
	roleRepo  RoleStore
	realigner StageRealigner
	tracer    tracing.Tracer
}

// NewCatalogService creates a new catalog service
func NewCatalogService(roleRepo RoleStore, realigner StageRealigner, tracer tracing.Tracer) *CatalogService {
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &CatalogService{
		roleRepo:  roleRepo,
		realigner: realigner,
		tracer:    tracer,
	}
}

// RoleInput is the caller-supplied definition for a catalog upsert
type RoleInput struct {
	Key             string
	Name            string
	Description     string
	DefaultSequence int
	DefaultCo2Kg    float64
}

func (in RoleInput) validate() error {
	if strings.TrimSpace(in.Key) == "" {
		return apperrors.Validationf("role key is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.Validationf("role name is required")
	}
	if in.DefaultCo2Kg < 0 {
		return apperrors.Validationf("default co2 must be >= 0, got %v", in.DefaultCo2Kg)
	}
	return nil
}

// ListRoles returns the catalog ordered by default sequence
func (s *CatalogService) ListRoles(ctx context.Context) ([]models.SupplyChainRole, error) {
	return s.roleRepo.List(ctx)
}

// GetRole returns a single catalog entry by key
func (s *CatalogService) GetRole(ctx context.Context, key string) (*models.SupplyChainRole, error) {
	return s.roleRepo.GetByKey(ctx, key)
}

// UpsertRole creates or updates a catalog entry by key. The key itself is
// immutable through this path; use RenameRoleKey for that.
func (s *CatalogService) UpsertRole(ctx context.Context, input RoleInput) (*models.SupplyChainRole, error) {
	txn := s.tracer.StartTransaction("upsert-role")
	defer s.tracer.EndTransaction(txn)

	if err := input.validate(); err != nil {
		return nil, err
	}

	role, err := s.roleRepo.GetByKey(ctx, input.Key)
	switch {
	case err == nil:
		role.Name = input.Name
		role.Description = input.Description
		role.DefaultSequence = input.DefaultSequence
		role.DefaultCo2Kg = input.DefaultCo2Kg
		if err := s.roleRepo.Save(ctx, role); err != nil {
			s.tracer.RecordError(txn, err)
			return nil, err
		}
	case apperrors.IsNotFound(err):
		role = &models.SupplyChainRole{
			ID:              uuid.New(),
			Key:             input.Key,
			Name:            input.Name,
			Description:     input.Description,
			DefaultSequence: input.DefaultSequence,
			DefaultCo2Kg:    input.DefaultCo2Kg,
		}
		if err := s.roleRepo.Create(ctx, role); err != nil {
			s.tracer.RecordError(txn, err)
			return nil, err
		}
	default:
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	log.Info().Str("key", role.Key).Int("default_sequence", role.DefaultSequence).Msg("Catalog role upserted")
	return role, nil
}

// RenameRoleKey changes a role's durable key in place. Historical stage and
// capability rows reference the role by id, so they follow the rename.
func (s *CatalogService) RenameRoleKey(ctx context.Context, oldKey, newKey string) (*models.SupplyChainRole, error) {
	txn := s.tracer.StartTransaction("rename-role-key")
	defer s.tracer.EndTransaction(txn)

	if strings.TrimSpace(newKey) == "" {
		return nil, apperrors.Validationf("new role key is required")
	}
	if oldKey == newKey {
		return nil, apperrors.Validationf("new role key equals the current key")
	}

	if _, err := s.roleRepo.GetByKey(ctx, newKey); err == nil {
		return nil, apperrors.Conflictf("role key %q already exists", newKey)
	} else if !apperrors.IsNotFound(err) {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	role, err := s.roleRepo.GetByKey(ctx, oldKey)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	role.Key = newKey
	if err := s.roleRepo.Save(ctx, role); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	log.Info().Str("old_key", oldKey).Str("new_key", newKey).Msg("Catalog role key renamed")
	return role, nil
}

// AlignCatalog upserts every canonical role definition and then re-ranks
// existing stage sequences against the refreshed default ordering. Running
// it repeatedly converges: a second pass changes nothing.
func (s *CatalogService) AlignCatalog(ctx context.Context) error {
	txn := s.tracer.StartTransaction("align-catalog")
	defer s.tracer.EndTransaction(txn)

	for _, def := range models.CanonicalCatalog() {
		if _, err := s.UpsertRole(ctx, RoleInput{
			Key:             def.Key,
			Name:            def.Name,
			Description:     def.Description,
			DefaultSequence: def.DefaultSequence,
			DefaultCo2Kg:    def.DefaultCo2Kg,
		}); err != nil {
			s.tracer.RecordError(txn, err)
			return err
		}
	}

	if s.realigner != nil {
		if err := s.realigner.RealignStageSequences(ctx); err != nil {
			s.tracer.RecordError(txn, err)
			return err
		}
	}

	log.Info().Msg("Catalog aligned to canonical definitions")
	return nil
}
