package jobs

type CreateJobPayload struct {
	Type string      `json:"type" validate:"required,oneof=reconcile_all series_sync"`
	Data interface{} `json:"data,omitempty"`
}

type ListJobsQuery struct {
	Limit  int      `query:"limit" json:"limit,omitempty" default:"10" validate:"min=1,max=100"`
	Offset int      `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status []string `query:"status" json:"status,omitempty" validate:"dive,oneof=pending in_progress completed failed"`
}
