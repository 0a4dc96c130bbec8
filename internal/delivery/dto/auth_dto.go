package dto

// Request DTOs

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Response DTOs

type StaffUserResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type TokenResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresIn   int64             `json:"expires_in"`
	User        StaffUserResponse `json:"user"`
}

type VerifyResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          StaffUserResponse `json:"user"`
}
