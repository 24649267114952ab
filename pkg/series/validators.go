package series

type ListSeriesQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=ongoing completed unknown"`
}

type CreateSeriesPayload struct {
	Name          string  `json:"name" validate:"required,max=300"`
	PrimaryAuthor *string `json:"primary_author,omitempty" validate:"omitempty,max=300"`
	Total         *int    `json:"total,omitempty" validate:"omitempty,min=1"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=ongoing completed unknown"`
}

type UpdateSeriesPayload struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=300"`
	PrimaryAuthor *string  `json:"primary_author,omitempty" validate:"omitempty,max=300"`
	Total         *int     `json:"total,omitempty" validate:"omitempty,min=1"`
	Status        *string  `json:"status,omitempty" validate:"omitempty,oneof=ongoing completed unknown"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Tags          []string `json:"tags,omitempty" validate:"omitempty,dive,max=100"`
}

type UpdateVolumePayload struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=300"`
	Position *int    `json:"position,omitempty" validate:"omitempty,min=1"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=owned wanted missing"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}
