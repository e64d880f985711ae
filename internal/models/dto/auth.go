package dto

import "github.com/hongminglow/casetrack-be/internal/models"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// MeResponse is returned by GET /me.
type MeResponse struct {
	User       models.User              `json:"user"`
	Dashboards []models.DashboardAccess `json:"dashboards"`
}
