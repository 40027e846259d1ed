package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by the scholarship workflow.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleVerifier  UserRole = "VERIFIER"
	RoleEvaluator UserRole = "EVALUATOR"
	RoleApprover  UserRole = "APPROVER"
	RoleStudent   UserRole = "STUDENT"
)

// IsStaff reports whether the role belongs to scholarship office staff.
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleVerifier, RoleEvaluator, RoleApprover:
		return true
	}
	return false
}

// Valid reports whether the role is one this API recognises.
func (r UserRole) Valid() bool {
	return r == RoleStudent || r.IsStaff()
}

// Actor is the already-authenticated caller of a workflow operation.
type Actor struct {
	ID   string   `json:"id"`
	Role UserRole `json:"role"`
}

// JWTClaims represents the access token payload minted by the identity service.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into a workflow actor.
func (c *JWTClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{ID: c.UserID, Role: c.Role}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
