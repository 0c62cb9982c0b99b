package services

import (
	"context"
	"sort"
	"time"

	"example.com/loomtrack/services/supplychain/internal/apperrors"
	"example.com/loomtrack/services/supplychain/internal/cache"
	"example.com/loomtrack/services/supplychain/internal/metrics"
	"example.com/loomtrack/services/supplychain/internal/models"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// StageSelection picks one catalog role for stage initialization. Sequence
// and Co2Kg override the catalog defaults when set.
type StageSelection struct {
	RoleID   uuid.UUID
	Sequence *int
	Co2Kg    *float64
	Notes    string
}

// PipelineService maintains the ordered stage pipeline of a lot and its
// status transitions
type PipelineService struct {
	pipelineRepo PipelineStore
	roleRepo     RoleStore
	factoryRepo  FactoryStore
	lotRepo      LotStore
	cache        PipelineCache
	metrics      *metrics.Metrics
	tracer       tracing.Tracer
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	pipelineRepo PipelineStore,
	roleRepo RoleStore,
	factoryRepo FactoryStore,
	lotRepo LotStore,
	redisCache PipelineCache,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
) *PipelineService {
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &PipelineService{
		pipelineRepo: pipelineRepo,
		roleRepo:     roleRepo,
		factoryRepo:  factoryRepo,
		lotRepo:      lotRepo,
		cache:        redisCache,
		metrics:      metricsCollector,
		tracer:       tracer,
	}
}

// AssignSupplier places a factory into a lot's multi-factory chain. When the
// assignment is flagged primary the lot's home factory is updated for
// display.
func (s *PipelineService) AssignSupplier(ctx context.Context, lotID, factoryID uuid.UUID, sequence int, isPrimary bool, stageLabel *string) (*models.LotSupplierAssignment, error) {
	txn := s.tracer.StartTransaction("assign-supplier")
	defer s.tracer.EndTransaction(txn)

	lot, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	factory, err := s.factoryRepo.GetByID(ctx, factoryID)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	assignment := &models.LotSupplierAssignment{
		ID:        uuid.New(),
		LotID:     lot.ID,
		FactoryID: factory.ID,
		Sequence:  sequence,
		IsPrimary: isPrimary,
		Stage:     stageLabel,
	}

	if err := s.pipelineRepo.CreateAssignment(ctx, assignment); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if isPrimary {
		if err := s.lotRepo.SetHomeFactory(ctx, lot.ID, factory.ID); err != nil {
			s.tracer.RecordError(txn, err)
			return nil, err
		}
	}

	s.invalidateSnapshot(ctx, lot.ID)

	log.Info().
		Str("lot_id", lot.ID.String()).
		Str("factory_id", factory.ID.String()).
		Int("sequence", sequence).
		Bool("is_primary", isPrimary).
		Msg("Supplier assigned to lot")

	return assignment, nil
}

// InitializeStages creates one stage per selected role for a lot-supplier
// assignment. An empty selection means the factory's full declared
// capability set. Sequence defaults to the catalog's default_sequence, so
// stages order consistently across suppliers; explicit sequences win.
func (s *PipelineService) InitializeStages(ctx context.Context, lotFactoryID uuid.UUID, selections []StageSelection) ([]models.LotFactoryRoleStage, error) {
	txn := s.tracer.StartTransaction("initialize-stages")
	defer s.tracer.EndTransaction(txn)

	assignment, err := s.pipelineRepo.GetAssignment(ctx, lotFactoryID)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if len(selections) == 0 {
		selections, err = s.selectionsFromCapabilities(ctx, assignment.FactoryID)
		if err != nil {
			s.tracer.RecordError(txn, err)
			return nil, err
		}
	}

	stages := make([]models.LotFactoryRoleStage, 0, len(selections))
	for _, selection := range selections {
		if selection.Co2Kg != nil && *selection.Co2Kg < 0 {
			return nil, apperrors.Validationf("co2 override must be >= 0, got %v", *selection.Co2Kg)
		}

		role, err := s.roleRepo.GetByID(ctx, selection.RoleID)
		if err != nil {
			s.tracer.RecordError(txn, err)
			return nil, err
		}

		sequence := role.DefaultSequence
		if selection.Sequence != nil {
			sequence = *selection.Sequence
		}

		stage := models.LotFactoryRoleStage{
			ID:           uuid.New(),
			LotFactoryID: assignment.ID,
			RoleID:       role.ID,
			Sequence:     sequence,
			Status:       models.StageStatusNotStarted,
			Co2Kg:        selection.Co2Kg,
			Notes:        selection.Notes,
			Role:         *role,
		}

		if err := s.pipelineRepo.CreateStage(ctx, &stage); err != nil {
			s.tracer.RecordError(txn, err)
			return nil, err
		}
		stages = append(stages, stage)
	}

	if s.metrics != nil {
		s.metrics.IncrementCounterBy(metrics.MetricStagesInitialized, int64(len(stages)))
	}
	s.invalidateSnapshot(ctx, assignment.LotID)

	log.Info().
		Str("lot_factory_id", assignment.ID.String()).
		Int("stages", len(stages)).
		Msg("Stages initialized for supplier assignment")

	return stages, nil
}

func (s *PipelineService) selectionsFromCapabilities(ctx context.Context, factoryID uuid.UUID) ([]StageSelection, error) {
	capabilities, err := s.factoryRepo.ListCapabilities(ctx, factoryID)
	if err != nil {
		return nil, err
	}
	if len(capabilities) == 0 {
		return nil, apperrors.Validationf("factory %s declares no capabilities to initialize stages from", factoryID)
	}

	selections := make([]StageSelection, 0, len(capabilities))
	for _, capability := range capabilities {
		selections = append(selections, StageSelection{
			RoleID: capability.RoleID,
			Co2Kg:  capability.Co2OverrideKg,
			Notes:  capability.Notes,
		})
	}
	return selections, nil
}

// AdvanceStage moves a stage through NOT_STARTED → IN_PROGRESS → COMPLETED,
// stamping started_at and completed_at. Reverse transitions are undefined
// and rejected. Nothing prevents two stages of the same lot being
// IN_PROGRESS at once; callers advancing out of order get exactly what they
// asked for.
func (s *PipelineService) AdvanceStage(ctx context.Context, stageID uuid.UUID) (*models.LotFactoryRoleStage, error) {
	txn := s.tracer.StartTransaction("advance-stage")
	defer s.tracer.EndTransaction(txn)

	stage, err := s.pipelineRepo.GetStage(ctx, stageID)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	now := time.Now().UTC()
	switch stage.Status {
	case models.StageStatusNotStarted:
		stage.Status = models.StageStatusInProgress
		stage.StartedAt = &now
	case models.StageStatusInProgress:
		stage.Status = models.StageStatusCompleted
		stage.CompletedAt = &now
	default:
		err := apperrors.Validationf("stage %s is already %s", stage.ID, stage.Status)
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if err := s.pipelineRepo.SaveStage(ctx, stage); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementCounter(metrics.MetricStagesAdvanced)
	}
	s.invalidateSnapshot(ctx, stage.Assignment.LotID)

	log.Info().
		Str("stage_id", stage.ID.String()).
		Str("status", stage.Status).
		Msg("Stage advanced")

	return stage, nil
}

// cachedPipeline is the redis payload for a lot's ordered pipeline view
type cachedPipeline struct {
	Stages   []models.LotFactoryRoleStage `json:"stages"`
	Snapshot models.PipelineSnapshot      `json:"snapshot"`
}

// LotPipeline returns a lot's complete ordered pipeline and its computed
// snapshot. The ordered view is cached as a whole so a hit skips the
// database entirely; stage and assignment writes invalidate it.
func (s *PipelineService) LotPipeline(ctx context.Context, lotID uuid.UUID) ([]models.LotFactoryRoleStage, models.PipelineSnapshot, error) {
	txn := s.tracer.StartTransaction("lot-pipeline")
	defer s.tracer.EndTransaction(txn)

	if s.cache != nil {
		var cached cachedPipeline
		if err := s.cache.Get(ctx, cache.LotPipelineKey(lotID), &cached); err == nil {
			if s.metrics != nil {
				s.metrics.IncrementCounter(metrics.MetricPipelineCacheHits)
			}
			return cached.Stages, cached.Snapshot, nil
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementCounter(metrics.MetricPipelineCacheMiss)
	}

	if _, err := s.lotRepo.GetByID(ctx, lotID); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, models.PipelineSnapshot{}, err
	}

	stages, err := s.pipelineRepo.StagesForLot(ctx, lotID)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, models.PipelineSnapshot{}, err
	}
	ordered := OrderPipeline(stages)
	snapshot := ComputeSnapshot(ordered)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.LotPipelineKey(lotID), cachedPipeline{Stages: ordered, Snapshot: snapshot}); err != nil {
			log.Debug().Err(err).Str("lot_id", lotID.String()).Msg("Failed to cache pipeline view")
		}
	}

	return ordered, snapshot, nil
}

// Snapshot computes the current snapshot for a lot without touching the
// cache. Used by callers that are about to re-index the lot anyway.
func (s *PipelineService) Snapshot(ctx context.Context, lotID uuid.UUID) (models.PipelineSnapshot, error) {
	stages, err := s.pipelineRepo.StagesForLot(ctx, lotID)
	if err != nil {
		return models.PipelineSnapshot{}, err
	}
	return ComputeSnapshot(OrderPipeline(stages)), nil
}

// RealignStageSequences re-ranks every assignment's stages against the
// catalog's current default ordering. The pass is an explicit stable
// re-rank: stages sort by (new catalog sequence, old sequence, creation
// time) and receive dense 0..n-1 positions, so running it twice is a no-op.
func (s *PipelineService) RealignStageSequences(ctx context.Context) error {
	txn := s.tracer.StartTransaction("realign-stage-sequences")
	defer s.tracer.EndTransaction(txn)

	assignments, err := s.pipelineRepo.ListAssignments(ctx)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return err
	}

	realigned := 0
	for _, assignment := range assignments {
		stages, err := s.pipelineRepo.StagesForAssignment(ctx, assignment.ID)
		if err != nil {
			s.tracer.RecordError(txn, err)
			return err
		}

		sort.SliceStable(stages, func(i, j int) bool {
			a, b := &stages[i], &stages[j]
			if a.Role.DefaultSequence != b.Role.DefaultSequence {
				return a.Role.DefaultSequence < b.Role.DefaultSequence
			}
			if a.Sequence != b.Sequence {
				return a.Sequence < b.Sequence
			}
			return a.CreatedAt.Before(b.CreatedAt)
		})

		for rank := range stages {
			if stages[rank].Sequence == rank {
				continue
			}
			if err := s.pipelineRepo.UpdateStageSequence(ctx, stages[rank].ID, rank); err != nil {
				s.tracer.RecordError(txn, err)
				return errors.Wrapf(err, "realign assignment %s", assignment.ID)
			}
			realigned++
		}

		s.invalidateSnapshot(ctx, assignment.LotID)
	}

	log.Info().Int("stages_realigned", realigned).Msg("Stage sequences realigned against catalog")
	return nil
}

func (s *PipelineService) invalidateSnapshot(ctx context.Context, lotID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.LotPipelineKey(lotID)); err != nil {
		log.Debug().Err(err).Str("lot_id", lotID.String()).Msg("Failed to invalidate pipeline snapshot")
	}
}
