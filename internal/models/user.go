package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin  UserRole = "SUPERADMIN"
	RoleAdmin       UserRole = "ADMIN"
	RoleHeadTeacher UserRole = "HEAD_TEACHER"
	RoleTeacher     UserRole = "TEACHER"
)

// IsAdministrative reports whether the role bypasses per-class access checks.
func (r UserRole) IsAdministrative() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleHeadTeacher:
		return true
	}
	return false
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
