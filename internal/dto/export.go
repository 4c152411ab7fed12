package dto

import "time"

// ExportPlansRequest renders a plan group's active schedule to a file.
type ExportPlansRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportPlansResponse returns the signed download handle.
type ExportPlansResponse struct {
	ExportID    string    `json:"exportId"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
