package dto

import "github.com/hongminglow/casetrack-be/internal/models"

type CreateUserRequest struct {
	Username    string                 `json:"username"`
	Email       string                 `json:"email"`
	Password    string                 `json:"password"`
	Role        string                 `json:"role"`
	Permissions []models.TabPermission `json:"permissions"`
	Dashboards  []string               `json:"dashboards"`
}

// UpdateUserRequest carries the mutable user fields. Nil fields are left
// unchanged.
type UpdateUserRequest struct {
	Email       *string                 `json:"email"`
	Password    *string                 `json:"password"`
	Role        *string                 `json:"role"`
	Permissions *[]models.TabPermission `json:"permissions"`
	Dashboards  *[]string               `json:"dashboards"`
}
