package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest is the credential payload checked against the allow-list.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and session flags consumed by the
// client route guard.
type LoginResponse struct {
	Token           string   `json:"token"`
	IsAuthenticated bool     `json:"isAuthenticated"`
	Role            UserRole `json:"userRole"`
	Identifier      string   `json:"identifier"`
}

// JWTClaims are the claims embedded in access tokens.
type JWTClaims struct {
	UserID    string   `json:"uid"`
	Role      UserRole `json:"role"`
	StudentID string   `json:"studentId,omitempty"`
	jwt.RegisteredClaims
}
