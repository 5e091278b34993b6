package dto

// ── pagination ──

// PaginationRequest common paging parameters
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage page number with default
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize page size with default
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset row offset
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── shared responses ──

// StageResponse stage summary
type StageResponse struct {
	ID          uint    `json:"id"`
	Order       int     `json:"order"`
	Name        string  `json:"name"`
	Title       *string `json:"title,omitempty"`
	Description string  `json:"description"`
}

// GraduateSummary what every screen shows about a graduate
type GraduateSummary struct {
	CURP          string         `json:"curp"`
	ControlNumber string         `json:"control_number"`
	FullName      string         `json:"full_name"`
	Gender        string         `json:"gender"`
	HasAccount    bool           `json:"has_account"`
	Stage         *StageResponse `json:"stage,omitempty"`
}

// DocumentTypeResponse document type with its accepted extensions
type DocumentTypeResponse struct {
	ID                 uint     `json:"id"`
	Key                string   `json:"key"`
	Title              string   `json:"title"`
	Description        *string  `json:"description,omitempty"`
	AcceptedExtensions []string `json:"accepted_extensions"`
}

// SubmissionResponse one submitted document
type SubmissionResponse struct {
	ID          uint   `json:"id"`
	DocumentKey string `json:"document_key"`
	File        string `json:"file"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
	SubmittedAt string `json:"submitted_at"`
	UpdatedAt   string `json:"updated_at"`
}
