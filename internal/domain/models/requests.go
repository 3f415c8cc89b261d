package models

// ScreenerRequest addresses one screener's published output.
// Limit caps the rows after the header; 0 returns all of them.
type ScreenerRequest struct {
	Name  string `param:"name" json:"name" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"0" validate:"gte=0,lte=10000"`
}
