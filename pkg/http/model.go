package http

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Status  int    `json:"status" example:"200"`
	Message string `json:"message" example:"OK"`
	Data    any    `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string         `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string         `json:"field,omitempty" example:"limit"`
	Message string         `json:"message,omitempty" example:"limit must be at least 0"`
	Params  map[string]any `json:"params,omitempty"`
}
