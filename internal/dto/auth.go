package dto

import (
	"time"

	"github.com/seonlab/studyplan-api/internal/models"
)

// LoginRequest holds operator credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued access token and user info.
type LoginResponse struct {
	AccessToken string          `json:"accessToken"`
	ExpiresIn   int64           `json:"expiresIn"`
	User        models.UserInfo `json:"user"`
	IssuedAt    time.Time       `json:"issuedAt"`
}
