package items

type ListItemsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Series *string `query:"series" json:"series,omitempty" validate:"omitempty,max=300"`
}

type EditionPayload struct {
	ISBN      *string `json:"isbn,omitempty" validate:"omitempty,isbn"`
	Format    *string `json:"format,omitempty" validate:"omitempty,max=50"`
	Publisher *string `json:"publisher,omitempty" validate:"omitempty,max=300"`
	IsPrimary bool    `json:"is_primary"`
}

type CreateItemPayload struct {
	Title    string           `json:"title" validate:"required,max=300"`
	Authors  []string         `json:"authors,omitempty" validate:"omitempty,dive,max=300"`
	Series   *string          `json:"series,omitempty" validate:"omitempty,max=300"`
	Position *int             `json:"position,omitempty" validate:"omitempty,min=1"`
	Notes    *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Editions []EditionPayload `json:"editions,omitempty" validate:"omitempty,dive"`
}

type UpdateItemPayload struct {
	Title    *string  `json:"title,omitempty" validate:"omitempty,max=300"`
	Authors  []string `json:"authors,omitempty" validate:"omitempty,dive,max=300"`
	Series   *string  `json:"series,omitempty" validate:"omitempty,max=300"`
	Position *int     `json:"position,omitempty" validate:"omitempty,min=1"`
	Notes    *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}
