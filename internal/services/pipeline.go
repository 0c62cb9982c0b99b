package services

import (
	"math"
	"sort"

	"example.com/loomtrack/services/supplychain/internal/models"
)

// OrderPipeline returns a lot's stages in global pipeline order: supplier
// sequence first, then stage sequence, with creation time breaking ties.
// Sequence values are advisory and need not be contiguous. The sort is
// stable so equal keys keep their input order.
func OrderPipeline(stages []models.LotFactoryRoleStage) []models.LotFactoryRoleStage {
	ordered := make([]models.LotFactoryRoleStage, len(stages))
	copy(ordered, stages)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := &ordered[i], &ordered[j]
		if a.Assignment.Sequence != b.Assignment.Sequence {
			return a.Assignment.Sequence < b.Assignment.Sequence
		}
		if a.Sequence != b.Sequence {
			return a.Sequence < b.Sequence
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	return ordered
}

// ComputeSnapshot rolls an ordered pipeline up into the figures the
// dashboard renders. The current stage is the first non-completed stage;
// the next stage is the first non-completed stage after it. CO₂ per stage
// is the override when set, the catalog default otherwise.
func ComputeSnapshot(ordered []models.LotFactoryRoleStage) models.PipelineSnapshot {
	var snapshot models.PipelineSnapshot
	snapshot.TotalStages = len(ordered)

	currentIdx := -1
	for i := range ordered {
		stage := &ordered[i]
		snapshot.TotalCo2Kg += stage.EffectiveCo2Kg()

		if stage.Status == models.StageStatusCompleted {
			snapshot.CompletedStages++
			continue
		}
		if currentIdx == -1 {
			currentIdx = i
			snapshot.CurrentStageLabel = stage.Role.Name
		} else if snapshot.NextStageLabel == "" {
			snapshot.NextStageLabel = stage.Role.Name
		}
	}

	if snapshot.TotalStages > 0 {
		ratio := float64(snapshot.CompletedStages) / float64(snapshot.TotalStages)
		snapshot.StageProgressPercent = int(math.Round(ratio * 100))
	}

	return snapshot
}
