package services

import (
	"context"
	"encoding/json"
	"testing"

	"example.com/loomtrack/services/supplychain/internal/apperrors"
	"example.com/loomtrack/services/supplychain/internal/models"
	"example.com/loomtrack/services/supplychain/internal/repositories"
	"example.com/loomtrack/services/supplychain/internal/search"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLotServiceWithMocks(lots *mockLotStore, approvals *mockApprovalStore, inspections *mockInspectionStore) *LotService {
	return NewLotService(nil, lots, approvals, inspections, nil, nil, nil, nil)
}

func TestCreateLotStartsPlanned(t *testing.T) {
	lots := new(mockLotStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), new(mockInspectionStore))

	lots.On("Create", mock.Anything, mock.MatchedBy(func(l *models.Lot) bool {
		return l.Status == models.LotStatusPlanned && l.StyleRef == "SS26-TEE-001" && l.QuantityTotal == 1200
	})).Return(nil)

	lot, err := svc.CreateLot(context.Background(), LotInput{
		TenantID:      uuid.New(),
		StyleRef:      "SS26-TEE-001",
		QuantityTotal: 1200,
	})

	require.NoError(t, err)
	require.Equal(t, models.LotStatusPlanned, lot.Status)
	lots.AssertExpectations(t)
}

func TestCreateLotValidation(t *testing.T) {
	svc := newLotServiceWithMocks(new(mockLotStore), new(mockApprovalStore), new(mockInspectionStore))

	_, err := svc.CreateLot(context.Background(), LotInput{TenantID: uuid.New(), StyleRef: " ", QuantityTotal: 10})
	require.True(t, apperrors.IsValidation(err))

	_, err = svc.CreateLot(context.Background(), LotInput{TenantID: uuid.New(), StyleRef: "X", QuantityTotal: 0})
	require.True(t, apperrors.IsValidation(err))
}

func TestUpdateStatusFollowsGraph(t *testing.T) {
	lots := new(mockLotStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), new(mockInspectionStore))

	lotID := uuid.New()
	lots.On("GetByID", mock.Anything, lotID).
		Return(&models.Lot{ID: lotID, Status: models.LotStatusPlanned}, nil)
	lots.On("UpdateStatus", mock.Anything, lotID, models.LotStatusInProduction).Return(nil)

	lot, err := svc.UpdateStatus(context.Background(), lotID, models.LotStatusInProduction)

	require.NoError(t, err)
	require.Equal(t, models.LotStatusInProduction, lot.Status)
}

func TestUpdateStatusRejectsSkips(t *testing.T) {
	lots := new(mockLotStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), new(mockInspectionStore))

	lotID := uuid.New()
	lots.On("GetByID", mock.Anything, lotID).
		Return(&models.Lot{ID: lotID, Status: models.LotStatusPlanned}, nil)

	_, err := svc.UpdateStatus(context.Background(), lotID, models.LotStatusPendingApproval)
	require.True(t, apperrors.IsConflict(err))
	lots.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatusTerminalStatesFrozen(t *testing.T) {
	lots := new(mockLotStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), new(mockInspectionStore))

	lotID := uuid.New()
	lots.On("GetByID", mock.Anything, lotID).
		Return(&models.Lot{ID: lotID, Status: models.LotStatusRejected}, nil)

	_, err := svc.UpdateStatus(context.Background(), lotID, models.LotStatusInProduction)
	require.True(t, apperrors.IsConflict(err))
}

func TestUpdateStatusUnknownAndDecisionStatuses(t *testing.T) {
	svc := newLotServiceWithMocks(new(mockLotStore), new(mockApprovalStore), new(mockInspectionStore))

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), "SOMEWHERE")
	require.True(t, apperrors.IsValidation(err))

	// APPROVED/REJECTED only arrive through a recorded decision.
	_, err = svc.UpdateStatus(context.Background(), uuid.New(), models.LotStatusApproved)
	require.True(t, apperrors.IsValidation(err))
}

func TestRecordApprovalValidation(t *testing.T) {
	lots := new(mockLotStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), new(mockInspectionStore))

	_, err := svc.RecordApproval(context.Background(), uuid.New(), ApprovalInput{Decision: "maybe", DecidedBy: "qa"})
	require.True(t, apperrors.IsValidation(err))

	_, err = svc.RecordApproval(context.Background(), uuid.New(), ApprovalInput{Decision: models.DecisionApproved, DecidedBy: ""})
	require.True(t, apperrors.IsValidation(err))
}

func TestRecordApprovalRequiresPendingApproval(t *testing.T) {
	lots := new(mockLotStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), new(mockInspectionStore))

	lotID := uuid.New()
	lots.On("GetByID", mock.Anything, lotID).
		Return(&models.Lot{ID: lotID, Status: models.LotStatusInProduction}, nil)

	_, err := svc.RecordApproval(context.Background(), lotID, ApprovalInput{
		Decision:  models.DecisionApproved,
		DecidedBy: "qa-lead",
	})
	require.True(t, apperrors.IsConflict(err))
}

func TestRecordInspectionRefreshesAggregates(t *testing.T) {
	lots := new(mockLotStore)
	inspections := new(mockInspectionStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), inspections)

	lotID := uuid.New()
	lots.On("GetByID", mock.Anything, lotID).
		Return(&models.Lot{ID: lotID, Status: models.LotStatusInspection, QuantityTotal: 1000}, nil)
	inspections.On("Create", mock.Anything, mock.MatchedBy(func(i *models.Inspection) bool {
		return i.LotID == lotID && i.PiecesInspected == 200 && i.DefectsFound == 5
	})).Return(nil)
	inspections.On("TotalsForLot", mock.Anything, lotID).
		Return(repositories.InspectionTotals{PiecesInspected: 400, DefectsFound: 10}, nil)
	lots.On("UpdateAggregates", mock.Anything, lotID, 2.5, 40.0).Return(nil)

	_, err := svc.RecordInspection(context.Background(), lotID, InspectionInput{
		PiecesInspected: 200,
		DefectsFound:    5,
	})

	require.NoError(t, err)
	lots.AssertExpectations(t)
	inspections.AssertExpectations(t)
}

func TestHandleInspectionMessageRecordsInspection(t *testing.T) {
	lots := new(mockLotStore)
	inspections := new(mockInspectionStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), inspections)

	lotID := uuid.New()
	workbench := "WB-07"
	body, err := json.Marshal(map[string]interface{}{
		"lot_id":           lotID,
		"pieces_inspected": 150,
		"defects_found":    3,
		"workbench_id":     workbench,
		"notes":            "end of shift batch",
	})
	require.NoError(t, err)

	lots.On("GetByID", mock.Anything, lotID).
		Return(&models.Lot{ID: lotID, Status: models.LotStatusInspection, QuantityTotal: 600}, nil)
	inspections.On("Create", mock.Anything, mock.MatchedBy(func(i *models.Inspection) bool {
		return i.LotID == lotID && i.PiecesInspected == 150 && i.DefectsFound == 3 &&
			i.WorkbenchID != nil && *i.WorkbenchID == workbench
	})).Return(nil)
	inspections.On("TotalsForLot", mock.Anything, lotID).
		Return(repositories.InspectionTotals{PiecesInspected: 150, DefectsFound: 3}, nil)
	lots.On("UpdateAggregates", mock.Anything, lotID, 2.0, 25.0).Return(nil)

	err = svc.HandleInspectionMessage(context.Background(), &azservicebus.ReceivedMessage{Body: body}, nil)

	require.NoError(t, err)
	lots.AssertExpectations(t)
	inspections.AssertExpectations(t)
}

func TestHandleInspectionMessageMalformedBody(t *testing.T) {
	lots := new(mockLotStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), new(mockInspectionStore))

	err := svc.HandleInspectionMessage(context.Background(), &azservicebus.ReceivedMessage{
		Body: []byte("{not json"),
	}, nil)

	require.Error(t, err)
	lots.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestHandleInspectionMessagePropagatesRecordError(t *testing.T) {
	lots := new(mockLotStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), new(mockInspectionStore))

	body, err := json.Marshal(map[string]interface{}{
		"lot_id":           uuid.New(),
		"pieces_inspected": 0,
		"defects_found":    0,
	})
	require.NoError(t, err)

	err = svc.HandleInspectionMessage(context.Background(), &azservicebus.ReceivedMessage{Body: body}, nil)

	// The consumer abandons the message on a non-nil return.
	require.Error(t, err)
	require.True(t, apperrors.IsValidation(err))
}

func TestSearchLotsValidation(t *testing.T) {
	svc := newLotServiceWithMocks(new(mockLotStore), new(mockApprovalStore), new(mockInspectionStore))

	_, err := svc.SearchLots(context.Background(), "SS26", "")
	require.True(t, apperrors.IsValidation(err), "nil search backend must reject")
}

func TestSearchLotsUnknownStatus(t *testing.T) {
	svc := NewLotService(nil, new(mockLotStore), new(mockApprovalStore), new(mockInspectionStore), nil, &search.ElasticClient{}, nil, nil)

	_, err := svc.SearchLots(context.Background(), "", "MISPLACED")
	require.True(t, apperrors.IsValidation(err))
}

func TestRecordInspectionProgressCapped(t *testing.T) {
	lots := new(mockLotStore)
	inspections := new(mockInspectionStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), inspections)

	lotID := uuid.New()
	lots.On("GetByID", mock.Anything, lotID).
		Return(&models.Lot{ID: lotID, QuantityTotal: 100}, nil)
	inspections.On("Create", mock.Anything, mock.Anything).Return(nil)
	inspections.On("TotalsForLot", mock.Anything, lotID).
		Return(repositories.InspectionTotals{PiecesInspected: 150, DefectsFound: 0}, nil)
	lots.On("UpdateAggregates", mock.Anything, lotID, 0.0, 100.0).Return(nil)

	_, err := svc.RecordInspection(context.Background(), lotID, InspectionInput{PiecesInspected: 150})
	require.NoError(t, err)
	lots.AssertExpectations(t)
}

func TestRecordInspectionValidation(t *testing.T) {
	svc := newLotServiceWithMocks(new(mockLotStore), new(mockApprovalStore), new(mockInspectionStore))

	_, err := svc.RecordInspection(context.Background(), uuid.New(), InspectionInput{PiecesInspected: 0})
	require.True(t, apperrors.IsValidation(err))

	_, err = svc.RecordInspection(context.Background(), uuid.New(), InspectionInput{PiecesInspected: 10, DefectsFound: 11})
	require.True(t, apperrors.IsValidation(err))

	_, err = svc.RecordInspection(context.Background(), uuid.New(), InspectionInput{PiecesInspected: 10, DefectsFound: -1})
	require.True(t, apperrors.IsValidation(err))
}

func TestReconcileLotAggregates(t *testing.T) {
	lots := new(mockLotStore)
	inspections := new(mockInspectionStore)
	svc := newLotServiceWithMocks(lots, new(mockApprovalStore), inspections)

	lotID := uuid.New()
	lots.On("ListByStatus", mock.Anything, models.LotStatusInspection, 50).
		Return([]models.Lot{{ID: lotID, QuantityTotal: 500}}, nil)
	lots.On("ListByStatus", mock.Anything, models.LotStatusPendingApproval, 50).
		Return([]models.Lot{}, nil)
	inspections.On("TotalsForLot", mock.Anything, lotID).
		Return(repositories.InspectionTotals{PiecesInspected: 250, DefectsFound: 25}, nil)
	lots.On("UpdateAggregates", mock.Anything, lotID, 10.0, 50.0).Return(nil)

	require.NoError(t, svc.ReconcileLotAggregates(context.Background(), 50))
	lots.AssertExpectations(t)
}
