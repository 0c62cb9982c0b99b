package models

// PipelineSnapshot is the computed rollup of a lot's ordered stage pipeline.
// It is derived, never stored; the dashboard renders it directly.
type PipelineSnapshot struct {
	TotalStages          int     `json:"total_stages"`
	CompletedStages      int     `json:"completed_stages"`
	StageProgressPercent int     `json:"stage_progress_percent"`
	CurrentStageLabel    string  `json:"current_stage_label"`
	NextStageLabel       string  `json:"next_stage_label"`
	TotalCo2Kg           float64 `json:"total_co2_kg"`
}
