package handler

import (
	"time"

	"medichain/internal/auth/models"
)

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse mirrors a user without credential material.
type UserResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
}

// LoginResponse carries the bearer token and its expiry.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   string       `json:"expires_at"`
	User        UserResponse `json:"user"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		UserID:      u.ID.String(),
		Email:       u.Email,
		Role:        string(u.Role),
		AccountID:   u.AccountID.String(),
		DisplayName: u.DisplayName,
	}
}

func toLoginResponse(token string, u *models.User, expiresAt time.Time) LoginResponse {
	return LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		User:        toUserResponse(u),
	}
}
