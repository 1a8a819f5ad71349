package dto

import (
	"github.com/google/uuid"
)

type RegisterInput struct {
	CollegeEmail     string `json:"college_email" binding:"required,email"`
	Batch            string `json:"batch" binding:"max=10"`
	IsCurrentStudent *bool  `json:"is_current_student"`
}

type RegisterResponse struct {
	Detail string `json:"detail"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh" binding:"required"`
}

// UserRecord is the basic directory view of an account, as exposed to staff
// (list) and to the account holder (retrieve).
type UserRecord struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	SecondaryEmail   *string   `json:"secondary_email"`
	Batch            string    `json:"batch"`
	IsCurrentStudent bool      `json:"is_current_student"`
}
