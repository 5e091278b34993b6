package dto

// CreatePlanGroupRequest new plan group
type CreatePlanGroupRequest struct {
	Name        string  `json:"name"        binding:"required,max=50"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// CreatePlanRequest new plan inside a group
type CreatePlanRequest struct {
	Name        string  `json:"name"        binding:"required,max=50"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// CreateTitlingOptionRequest new titling option
type CreateTitlingOptionRequest struct {
	Name        string  `json:"name"        binding:"required,max=50"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}
