package services

import (
	"testing"
	"time"

	"example.com/loomtrack/services/supplychain/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func stage(supplierSeq, stageSeq int, status string, role models.SupplyChainRole, co2 *float64, createdAt time.Time) models.LotFactoryRoleStage {
	return models.LotFactoryRoleStage{
		ID:        uuid.New(),
		CreatedAt: createdAt,
		Sequence:  stageSeq,
		Status:    status,
		Co2Kg:     co2,
		RoleID:    role.ID,
		Role:      role,
		Assignment: models.LotSupplierAssignment{
			Sequence: supplierSeq,
		},
	}
}

func role(key, name string, seq int, co2 float64) models.SupplyChainRole {
	return models.SupplyChainRole{
		ID:              uuid.New(),
		Key:             key,
		Name:            name,
		DefaultSequence: seq,
		DefaultCo2Kg:    co2,
	}
}

func TestOrderPipelineGlobalOrdering(t *testing.T) {
	dyeing := role("FABRIC_DYE_FINISH", "Fabric Dyeing & Finishing", 20, 7.1)
	cutting := role("MARKER_CUTTING", "Marker Making & Cutting", 30, 4.2)
	sewing := role("BUNDLING_SEWING", "Bundling & Sewing", 40, 6.8)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Deliberately shuffled: the second supplier's stages come first.
	stages := []models.LotFactoryRoleStage{
		stage(1, 0, models.StageStatusNotStarted, cutting, nil, base.Add(2*time.Minute)),
		stage(1, 1, models.StageStatusNotStarted, sewing, nil, base.Add(3*time.Minute)),
		stage(0, 0, models.StageStatusCompleted, dyeing, nil, base),
	}

	ordered := OrderPipeline(stages)

	require.Len(t, ordered, 3)
	require.Equal(t, "FABRIC_DYE_FINISH", ordered[0].Role.Key)
	require.Equal(t, "MARKER_CUTTING", ordered[1].Role.Key)
	require.Equal(t, "BUNDLING_SEWING", ordered[2].Role.Key)

	// The input is untouched.
	require.Equal(t, "MARKER_CUTTING", stages[0].Role.Key)
}

func TestOrderPipelineCreationTimeBreaksTies(t *testing.T) {
	lab := role("LAB_TESTING", "Laboratory Testing", 80, 0.6)
	esg := role("SUSTAINABILITY_TRACKING", "Sustainability Tracking", 90, 0.2)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	stages := []models.LotFactoryRoleStage{
		stage(0, 5, models.StageStatusNotStarted, esg, nil, base.Add(time.Hour)),
		stage(0, 5, models.StageStatusNotStarted, lab, nil, base),
	}

	ordered := OrderPipeline(stages)
	require.Equal(t, "LAB_TESTING", ordered[0].Role.Key)
	require.Equal(t, "SUSTAINABILITY_TRACKING", ordered[1].Role.Key)
}

func TestComputeSnapshotEmptyPipeline(t *testing.T) {
	snapshot := ComputeSnapshot(nil)

	require.Zero(t, snapshot.TotalStages)
	require.Zero(t, snapshot.CompletedStages)
	require.Zero(t, snapshot.StageProgressPercent)
	require.Empty(t, snapshot.CurrentStageLabel)
	require.Empty(t, snapshot.NextStageLabel)
	require.Zero(t, snapshot.TotalCo2Kg)
}

func TestComputeSnapshotTwoSupplierScenario(t *testing.T) {
	dyeing := role("FABRIC_DYE_FINISH", "Fabric Dyeing & Finishing", 20, 7.1)
	cutting := role("MARKER_CUTTING", "Marker Making & Cutting", 30, 4.2)
	sewing := role("BUNDLING_SEWING", "Bundling & Sewing", 40, 6.8)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	ordered := OrderPipeline([]models.LotFactoryRoleStage{
		stage(0, 0, models.StageStatusCompleted, dyeing, nil, base),
		stage(1, 0, models.StageStatusNotStarted, cutting, nil, base.Add(time.Minute)),
		stage(1, 1, models.StageStatusNotStarted, sewing, nil, base.Add(2*time.Minute)),
	})

	snapshot := ComputeSnapshot(ordered)

	require.Equal(t, 3, snapshot.TotalStages)
	require.Equal(t, 1, snapshot.CompletedStages)
	require.Equal(t, 33, snapshot.StageProgressPercent)
	require.Equal(t, "Marker Making & Cutting", snapshot.CurrentStageLabel)
	require.Equal(t, "Bundling & Sewing", snapshot.NextStageLabel)
	require.InDelta(t, 18.1, snapshot.TotalCo2Kg, 1e-9)
}

func TestComputeSnapshotCo2OverrideWins(t *testing.T) {
	dyeing := role("FABRIC_DYE_FINISH", "Fabric Dyeing & Finishing", 20, 7.1)
	cutting := role("MARKER_CUTTING", "Marker Making & Cutting", 30, 4.2)

	override := 5.0
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	snapshot := ComputeSnapshot(OrderPipeline([]models.LotFactoryRoleStage{
		stage(0, 0, models.StageStatusNotStarted, dyeing, &override, base),
		stage(0, 1, models.StageStatusNotStarted, cutting, nil, base.Add(time.Minute)),
	}))

	require.InDelta(t, 9.2, snapshot.TotalCo2Kg, 1e-9)
}

func TestComputeSnapshotAllCompleted(t *testing.T) {
	qc := role("FINAL_QC", "Final Quality Control", 50, 1.2)
	packing := role("PACKING", "Packing & Cartoning", 60, 0.9)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	snapshot := ComputeSnapshot(OrderPipeline([]models.LotFactoryRoleStage{
		stage(0, 0, models.StageStatusCompleted, qc, nil, base),
		stage(0, 1, models.StageStatusCompleted, packing, nil, base.Add(time.Minute)),
	}))

	require.Equal(t, 2, snapshot.CompletedStages)
	require.Equal(t, 100, snapshot.StageProgressPercent)
	require.Empty(t, snapshot.CurrentStageLabel)
	require.Empty(t, snapshot.NextStageLabel)
}

func TestComputeSnapshotRounding(t *testing.T) {
	roles := []models.SupplyChainRole{
		role("FIBER_PREPARATION", "Fiber Preparation & Spinning", 10, 3.5),
		role("FABRIC_DYE_FINISH", "Fabric Dyeing & Finishing", 20, 7.1),
		role("MARKER_CUTTING", "Marker Making & Cutting", 30, 4.2),
		role("BUNDLING_SEWING", "Bundling & Sewing", 40, 6.8),
		role("FINAL_QC", "Final Quality Control", 50, 1.2),
		role("PACKING", "Packing & Cartoning", 60, 0.9),
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	stages := make([]models.LotFactoryRoleStage, 0, len(roles))
	for i, r := range roles {
		status := models.StageStatusNotStarted
		if i == 0 {
			status = models.StageStatusCompleted
		}
		stages = append(stages, stage(0, i, status, r, nil, base.Add(time.Duration(i)*time.Minute)))
	}

	// 1/6 rounds to 17, not 16.
	snapshot := ComputeSnapshot(stages)
	require.Equal(t, 17, snapshot.StageProgressPercent)

	// An in-progress stage counts toward total but not completed.
	stages[1].Status = models.StageStatusInProgress
	snapshot = ComputeSnapshot(stages)
	require.Equal(t, 6, snapshot.TotalStages)
	require.Equal(t, 1, snapshot.CompletedStages)
	require.Equal(t, "Fabric Dyeing & Finishing", snapshot.CurrentStageLabel)
	require.Equal(t, "Marker Making & Cutting", snapshot.NextStageLabel)
	require.LessOrEqual(t, snapshot.CompletedStages, snapshot.TotalStages)
}
