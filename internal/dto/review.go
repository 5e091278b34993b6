package dto

// ── review board ──

// BoardGraduate graduate row on the staff board
type BoardGraduate struct {
	GraduateSummary
	Documents []SubmissionResponse `json:"documents"`
	Missing   []string             `json:"missing"`
}

// BoardStage one column of the board
type BoardStage struct {
	Stage     StageResponse   `json:"stage"`
	Required  []string        `json:"required"`
	Graduates []BoardGraduate `json:"graduates"`
}

// ReviewBoardResponse staff board
type ReviewBoardResponse struct {
	Stages []BoardStage `json:"stages"`
}

// ReviewResult outcome of one review submission
type ReviewResult struct {
	Graduate GraduateSummary `json:"graduate"`
	Updated  int             `json:"updated"`
	Uploaded int             `json:"uploaded"`
	Skipped  int             `json:"skipped"`
	Rejected bool            `json:"rejected"`
	Moves    []string        `json:"moves"`
}

// BatchAdvanceRequest bulk advance of selected graduates (control numbers)
type BatchAdvanceRequest struct {
	ControlNumbers []string `form:"egresados_seleccionados" json:"egresados_seleccionados" binding:"omitempty,dive,max=20"`
}

// BatchAdvanceResponse how many graduates actually advanced
type BatchAdvanceResponse struct {
	Requested int `json:"requested"`
	Advanced  int `json:"advanced"`
}

// ── import ──

// ImportResult bulk import counters
type ImportResult struct {
	Rows    int `json:"rows"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}
