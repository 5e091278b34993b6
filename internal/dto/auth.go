package dto

// ── requests ──

// StaffLoginRequest password login for school-services staff
type StaffLoginRequest struct {
	Username   string `json:"username"    binding:"required"`
	Password   string `json:"password"    binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// GraduateLoginRequest passwordless graduate login
type GraduateLoginRequest struct {
	CURP       string `json:"curp"        binding:"required"`
	Email      string `json:"correo"      binding:"required,email"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterRequest self-registration form; the identity document comes as file field "id"
type RegisterRequest struct {
	Email string `form:"correo" binding:"required,email"`
	CURP  string `form:"curp"   binding:"required"`
}

// RefreshTokenRequest body variant when the cookie is not used
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ── responses ──

// AccountResponse login details without secrets
type AccountResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// TokenResponse token pair
type TokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token,omitempty"` // omitted when sent as cookie
	ExpiresIn    int              `json:"expires_in"`              // seconds
	RememberMe   bool             `json:"-"`
	Account      AccountResponse  `json:"account"`
	Graduate     *GraduateSummary `json:"graduate,omitempty"`
}
