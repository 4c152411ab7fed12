package models

// ContentType distinguishes the origin of a learning content item.
type ContentType string

const (
	ContentTypeBook    ContentType = "book"
	ContentTypeLecture ContentType = "lecture"
	ContentTypeCustom  ContentType = "custom"
)

// ContentInfo is the resolved, placement-ready view of one content item.
// TotalAmount is in units (pages or minutes); 1 unit occupies 1 minute.
type ContentInfo struct {
	ID          string      `json:"id"`
	Type        ContentType `json:"type"`
	Title       string      `json:"title"`
	Subject     string      `json:"subject"`
	TotalAmount int         `json:"total_amount" validate:"gt=0"`
	RiskScore   *float64    `json:"risk_score,omitempty"`
}

// ContentRef identifies content requested for a generation run. Master
// content gets copied to a student-owned row during resolution.
type ContentRef struct {
	ContentID string      `json:"content_id" validate:"required"`
	Type      ContentType `json:"type" validate:"required,oneof=book lecture custom"`
}

// ContentCopyFailure records one content item that could not be resolved.
// Resolution continues past individual failures; these surface as warnings.
type ContentCopyFailure struct {
	ContentID string `json:"content_id"`
	Reason    string `json:"reason"`
}

// StudentContent is a student-owned content row in student_contents.
type StudentContent struct {
	ID              string      `db:"id" json:"id"`
	StudentID       string      `db:"student_id" json:"student_id"`
	MasterContentID *string     `db:"master_content_id" json:"master_content_id,omitempty"`
	Type            ContentType `db:"content_type" json:"type"`
	Title           string      `db:"title" json:"title"`
	Subject         string      `db:"subject" json:"subject"`
	TotalAmount     int         `db:"total_amount" json:"total_amount"`
}

// SubjectRiskIndex is a per-subject risk score used by risk-based ordering.
type SubjectRiskIndex struct {
	Subject   string  `db:"subject" json:"subject"`
	RiskScore float64 `db:"risk_score" json:"risk_score"`
}
