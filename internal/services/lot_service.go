package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"example.com/loomtrack/services/supplychain/internal/apperrors"
	"example.com/loomtrack/services/supplychain/internal/metrics"
	"example.com/loomtrack/services/supplychain/internal/models"
	"example.com/loomtrack/services/supplychain/internal/search"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// lotTransitions is the full status graph. A lot moves forward through
// production and inspection; REJECTED and SHIPPED are terminal.
var lotTransitions = map[string][]string{
	models.LotStatusPlanned:         {models.LotStatusInProduction},
	models.LotStatusInProduction:    {models.LotStatusInspection},
	models.LotStatusInspection:      {models.LotStatusPendingApproval},
	models.LotStatusPendingApproval: {models.LotStatusApproved, models.LotStatusRejected},
	models.LotStatusApproved:        {models.LotStatusShipped},
	models.LotStatusRejected:        {},
	models.LotStatusShipped:         {},
}

// SnapshotProvider computes a lot's current pipeline snapshot
type SnapshotProvider interface {
	Snapshot(ctx context.Context, lotID uuid.UUID) (models.PipelineSnapshot, error)
}

// LotService manages lots, their status lifecycle, inspections and the
// one-time approval gate
type LotService struct {
	db             *gorm.DB
	lotRepo        LotStore
	approvalRepo   ApprovalStore
	inspectionRepo InspectionStore
	snapshots      SnapshotProvider
	search         *search.ElasticClient
	metrics        *metrics.Metrics
	tracer         tracing.Tracer
}

// NewLotService creates a new lot service
func NewLotService(
	db *gorm.DB,
	lotRepo LotStore,
	approvalRepo ApprovalStore,
	inspectionRepo InspectionStore,
	snapshots SnapshotProvider,
	searchClient *search.ElasticClient,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
) *LotService {
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &LotService{
		db:             db,
		lotRepo:        lotRepo,
		approvalRepo:   approvalRepo,
		inspectionRepo: inspectionRepo,
		snapshots:      snapshots,
		search:         searchClient,
		metrics:        metricsCollector,
		tracer:         tracer,
	}
}

// LotInput is the caller-supplied definition for creating a lot
type LotInput struct {
	TenantID      uuid.UUID
	ClientID      *uuid.UUID
	FactoryID     *uuid.UUID
	StyleRef      string
	QuantityTotal int
}

// CreateLot creates a new lot in the PLANNED state
func (s *LotService) CreateLot(ctx context.Context, input LotInput) (*models.Lot, error) {
	txn := s.tracer.StartTransaction("create-lot")
	defer s.tracer.EndTransaction(txn)

	if strings.TrimSpace(input.StyleRef) == "" {
		return nil, apperrors.Validationf("style ref is required")
	}
	if input.QuantityTotal <= 0 {
		return nil, apperrors.Validationf("quantity must be > 0, got %d", input.QuantityTotal)
	}

	lot := &models.Lot{
		ID:            uuid.New(),
		TenantID:      input.TenantID,
		ClientID:      input.ClientID,
		FactoryID:     input.FactoryID,
		StyleRef:      input.StyleRef,
		QuantityTotal: input.QuantityTotal,
		Status:        models.LotStatusPlanned,
	}

	if err := s.lotRepo.Create(ctx, lot); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementCounter(metrics.MetricLotsCreated)
	}
	s.indexLot(ctx, lot.ID)

	log.Info().
		Str("lot_id", lot.ID.String()).
		Str("style_ref", lot.StyleRef).
		Int("quantity", lot.QuantityTotal).
		Msg("Lot created")

	return lot, nil
}

// GetLot returns a lot by id
func (s *LotService) GetLot(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	return s.lotRepo.GetByID(ctx, id)
}

// GetLotWithPipeline returns a lot with its supplier assignments and stages
// preloaded in pipeline order
func (s *LotService) GetLotWithPipeline(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	return s.lotRepo.GetWithPipeline(ctx, id)
}

// ListLotsByStatus returns up to limit lots in the given status
func (s *LotService) ListLotsByStatus(ctx context.Context, status string, limit int) ([]models.Lot, error) {
	if _, ok := lotTransitions[status]; !ok {
		return nil, apperrors.Validationf("unknown lot status %q", status)
	}
	return s.lotRepo.ListByStatus(ctx, status, limit)
}

// UpdateStatus moves a lot along the status graph. APPROVED and REJECTED
// are never reachable through this path; they are set only by a recorded
// approval decision.
func (s *LotService) UpdateStatus(ctx context.Context, id uuid.UUID, target string) (*models.Lot, error) {
	txn := s.tracer.StartTransaction("update-lot-status")
	defer s.tracer.EndTransaction(txn)

	if _, ok := lotTransitions[target]; !ok {
		return nil, apperrors.Validationf("unknown lot status %q", target)
	}
	if target == models.LotStatusApproved || target == models.LotStatusRejected {
		return nil, apperrors.Validationf("status %s is set by recording an approval decision", target)
	}

	lot, err := s.lotRepo.GetByID(ctx, id)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if !transitionAllowed(lot.Status, target) {
		err := apperrors.Conflictf("lot %s cannot move from %s to %s", lot.ID, lot.Status, target)
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if err := s.lotRepo.UpdateStatus(ctx, lot.ID, target); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	lot.Status = target

	s.indexLot(ctx, lot.ID)

	log.Info().
		Str("lot_id", lot.ID.String()).
		Str("status", target).
		Msg("Lot status updated")

	return lot, nil
}

func transitionAllowed(from, to string) bool {
	for _, next := range lotTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApprovalInput is the caller-supplied approval decision
type ApprovalInput struct {
	Decision  string
	Note      string
	DecidedBy string
}

// RecordApproval records the one-time approve/reject decision for a lot and
// moves it to the matching terminal-side status. The approval row and the
// status change commit together; a second decision for the same lot hits
// the unique index and surfaces as a conflict.
func (s *LotService) RecordApproval(ctx context.Context, lotID uuid.UUID, input ApprovalInput) (*models.Approval, error) {
	txn := s.tracer.StartTransaction("record-approval")
	defer s.tracer.EndTransaction(txn)

	var target string
	switch input.Decision {
	case models.DecisionApproved:
		target = models.LotStatusApproved
	case models.DecisionRejected:
		target = models.LotStatusRejected
	default:
		return nil, apperrors.Validationf("decision must be %q or %q, got %q", models.DecisionApproved, models.DecisionRejected, input.Decision)
	}
	if strings.TrimSpace(input.DecidedBy) == "" {
		return nil, apperrors.Validationf("decided_by is required")
	}

	lot, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if lot.Status != models.LotStatusPendingApproval {
		err := apperrors.Conflictf("lot %s is %s, approval requires %s", lot.ID, lot.Status, models.LotStatusPendingApproval)
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	approval := &models.Approval{
		ID:        uuid.New(),
		LotID:     lot.ID,
		Decision:  input.Decision,
		Note:      input.Note,
		DecidedBy: input.DecidedBy,
		DecidedAt: time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(approval).Error; err != nil {
			return apperrors.FromDB(err, "approval for lot %s already recorded", lot.ID)
		}

		result := tx.Model(&models.Lot{}).
			Where("id = ? AND status = ?", lot.ID, models.LotStatusPendingApproval).
			Update("status", target)
		if result.Error != nil {
			return apperrors.FromDB(result.Error, "update status for lot %s", lot.ID)
		}
		if result.RowsAffected == 0 {
			return apperrors.Conflictf("lot %s left %s while recording approval", lot.ID, models.LotStatusPendingApproval)
		}
		return nil
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementCounter(metrics.MetricApprovalsRecorded)
	}
	s.indexLot(ctx, lot.ID)

	log.Info().
		Str("lot_id", lot.ID.String()).
		Str("decision", input.Decision).
		Str("decided_by", input.DecidedBy).
		Msg("Approval recorded")

	return approval, nil
}

// GetApproval returns the recorded decision for a lot, if any
func (s *LotService) GetApproval(ctx context.Context, lotID uuid.UUID) (*models.Approval, error) {
	return s.approvalRepo.GetByLotID(ctx, lotID)
}

// InspectionInput is one quality-control pass over part of a lot
type InspectionInput struct {
	PiecesInspected int
	DefectsFound    int
	InspectorID     *string
	WorkbenchID     *string
	Notes           string
}

// RecordInspection stores an inspection result and refreshes the lot's
// defect rate and inspected progress from the running totals.
func (s *LotService) RecordInspection(ctx context.Context, lotID uuid.UUID, input InspectionInput) (*models.Inspection, error) {
	txn := s.tracer.StartTransaction("record-inspection")
	defer s.tracer.EndTransaction(txn)

	if input.PiecesInspected <= 0 {
		return nil, apperrors.Validationf("pieces inspected must be > 0, got %d", input.PiecesInspected)
	}
	if input.DefectsFound < 0 || input.DefectsFound > input.PiecesInspected {
		return nil, apperrors.Validationf("defects found must be between 0 and %d, got %d", input.PiecesInspected, input.DefectsFound)
	}

	lot, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	inspection := &models.Inspection{
		ID:              uuid.New(),
		LotID:           lot.ID,
		PiecesInspected: input.PiecesInspected,
		DefectsFound:    input.DefectsFound,
		InspectorID:     input.InspectorID,
		WorkbenchID:     input.WorkbenchID,
		Notes:           input.Notes,
	}

	if err := s.inspectionRepo.Create(ctx, inspection); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if err := s.refreshAggregates(ctx, lot); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementCounter(metrics.MetricInspectionsGot)
	}
	s.indexLot(ctx, lot.ID)

	log.Info().
		Str("lot_id", lot.ID.String()).
		Int("pieces_inspected", input.PiecesInspected).
		Int("defects_found", input.DefectsFound).
		Msg("Inspection recorded")

	return inspection, nil
}

func (s *LotService) refreshAggregates(ctx context.Context, lot *models.Lot) error {
	totals, err := s.inspectionRepo.TotalsForLot(ctx, lot.ID)
	if err != nil {
		return err
	}

	var defectRate, inspectedProgress float64
	if totals.PiecesInspected > 0 {
		defectRate = float64(totals.DefectsFound) / float64(totals.PiecesInspected) * 100.0
	}
	if lot.QuantityTotal > 0 {
		inspectedProgress = float64(totals.PiecesInspected) / float64(lot.QuantityTotal) * 100.0
		if inspectedProgress > 100.0 {
			inspectedProgress = 100.0
		}
	}

	return s.lotRepo.UpdateAggregates(ctx, lot.ID, defectRate, inspectedProgress)
}

// ReconcileLotAggregates recomputes defect rates and inspected progress for
// lots still moving through inspection. The worker runs it on a schedule to
// repair aggregates missed when an inspection write raced a crash.
func (s *LotService) ReconcileLotAggregates(ctx context.Context, batchSize int) error {
	txn := s.tracer.StartTransaction("reconcile-lot-aggregates")
	defer s.tracer.EndTransaction(txn)

	reconciled := 0
	for _, status := range []string{models.LotStatusInspection, models.LotStatusPendingApproval} {
		lots, err := s.lotRepo.ListByStatus(ctx, status, batchSize)
		if err != nil {
			s.tracer.RecordError(txn, err)
			return err
		}
		for i := range lots {
			if err := s.refreshAggregates(ctx, &lots[i]); err != nil {
				s.tracer.RecordError(txn, err)
				return errors.Wrapf(err, "reconcile lot %s", lots[i].ID)
			}
			reconciled++
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementCounter(metrics.MetricReconcileRuns)
	}
	log.Info().Int("lots_reconciled", reconciled).Msg("Lot aggregates reconciled")
	return nil
}

// inspectionEvent is the queue payload emitted by workbench stations
type inspectionEvent struct {
	LotID           uuid.UUID `json:"lot_id"`
	PiecesInspected int       `json:"pieces_inspected"`
	DefectsFound    int       `json:"defects_found"`
	InspectorID     *string   `json:"inspector_id"`
	WorkbenchID     *string   `json:"workbench_id"`
	Notes           string    `json:"notes"`
}

// HandleInspectionMessage processes one inspection event from the queue
func (s *LotService) HandleInspectionMessage(ctx context.Context, message *azservicebus.ReceivedMessage, txn *newrelic.Transaction) error {
	var event inspectionEvent
	if err := json.Unmarshal(message.Body, &event); err != nil {
		return errors.Wrap(err, "failed to unmarshal inspection event")
	}

	s.tracer.AddAttribute(txn, "lot_id", event.LotID.String())

	_, err := s.RecordInspection(ctx, event.LotID, InspectionInput{
		PiecesInspected: event.PiecesInspected,
		DefectsFound:    event.DefectsFound,
		InspectorID:     event.InspectorID,
		WorkbenchID:     event.WorkbenchID,
		Notes:           event.Notes,
	})
	if err != nil {
		return errors.Wrap(err, "failed to record inspection from queue")
	}

	return nil
}

// SearchLots queries the lot summary index. Free text matches the style
// reference, status filters exactly when set.
func (s *LotService) SearchLots(ctx context.Context, text string, status string) ([]map[string]interface{}, error) {
	txn := s.tracer.StartTransaction("search-lots")
	defer s.tracer.EndTransaction(txn)

	if s.search == nil {
		return nil, apperrors.Validationf("lot search is not configured")
	}
	if status != "" {
		if _, ok := lotTransitions[status]; !ok {
			return nil, apperrors.Validationf("unknown lot status %q", status)
		}
	}

	must := make([]map[string]interface{}, 0, 2)
	if text != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"style_ref": text},
		})
	}
	if status != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"status": status},
		})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
	}

	docs, err := s.search.SearchLots(ctx, query)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	return docs, nil
}

// indexLot refreshes the lot's search document. Indexing is best effort and
// never fails the calling operation.
func (s *LotService) indexLot(ctx context.Context, lotID uuid.UUID) {
	if s.search == nil {
		return
	}

	lot, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		log.Debug().Err(err).Str("lot_id", lotID.String()).Msg("Failed to load lot for indexing")
		return
	}

	var snapshot models.PipelineSnapshot
	if s.snapshots != nil {
		if snapshot, err = s.snapshots.Snapshot(ctx, lot.ID); err != nil {
			log.Debug().Err(err).Str("lot_id", lotID.String()).Msg("Failed to compute snapshot for indexing")
			return
		}
	}

	if err := s.search.IndexLot(ctx, lot, snapshot); err != nil {
		log.Debug().Err(err).Str("lot_id", lotID.String()).Msg("Failed to index lot")
	}
}
