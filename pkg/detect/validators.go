package detect

type DetectPayload struct {
	Title   string   `json:"title" validate:"required,max=500"`
	Authors []string `json:"authors,omitempty" validate:"omitempty,dive,max=300"`
	Series  *string  `json:"series,omitempty" validate:"omitempty,max=300"`
}
