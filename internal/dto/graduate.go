package dto

// ── graduate portal ──

// DashboardItem a document type with the graduate's latest submission
type DashboardItem struct {
	DocumentType DocumentTypeResponse `json:"document_type"`
	Latest       *SubmissionResponse  `json:"latest,omitempty"`
	Required     bool                 `json:"required"`
}

// DashboardResponse graduate home
type DashboardResponse struct {
	Graduate  GraduateSummary `json:"graduate"`
	Required  []string        `json:"required"`
	Missing   []string        `json:"missing"`
	Documents []DashboardItem `json:"documents"`
}

// UploadResponse result of a graduate upload
type UploadResponse struct {
	Stored   int             `json:"stored"`
	Graduate GraduateSummary `json:"graduate"`
}

// NamedRef id + name of a catalog entry
type NamedRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// GraduateProfileResponse full graduate record
type GraduateProfileResponse struct {
	GraduateSummary
	Name             string    `json:"name"`
	FirstSurname     string    `json:"first_surname"`
	SecondSurname    string    `json:"second_surname"`
	GraduationYear   *int      `json:"graduation_year,omitempty"`
	GraduationPeriod *string   `json:"graduation_period,omitempty"`
	PlanGroup        *NamedRef `json:"plan_group,omitempty"`
	TitlingOption    *NamedRef `json:"titling_option,omitempty"`
}

// GenerateDocumentRequest generated document selector
type GenerateDocumentRequest struct {
	Key string `form:"clave_documento" binding:"required"`
}

// ── staff record admin ──

// UpdateGraduateRequest academic attributes editable by staff; nil fields stay untouched
type UpdateGraduateRequest struct {
	GraduationYear   *int    `json:"graduation_year"   binding:"omitempty,min=1950,max=2100"`
	GraduationPeriod *string `json:"graduation_period" binding:"omitempty,oneof=1 2"`
	PlanGroupID      *uint   `json:"plan_group_id"`
	TitlingOptionID  *uint   `json:"titling_option_id"`
}

// GraduateListRequest staff graduate search
type GraduateListRequest struct {
	PaginationRequest
	Stage  string `form:"stage"`
	Search string `form:"q"`
}

// StageMoveResponse outcome of a manual or review-driven stage move
type StageMoveResponse struct {
	Move     string          `json:"move"` // none | move | reset
	Graduate GraduateSummary `json:"graduate"`
}
