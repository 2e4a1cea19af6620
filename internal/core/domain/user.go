package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Auth providers. Provider records the last channel used to establish or
// update the account, not a history.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

var ErrInvalidInput = errors.New("invalid input")
var ErrEmailTaken = errors.New("email already registered")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidToken = errors.New("invalid token")
var ErrUserNotFound = errors.New("user not found")
var ErrForbidden = errors.New("access forbidden")
var ErrUnknownProvider = errors.New("unknown provider")

// User models an account in the credential store. Email is the merge key
// across auth channels: local registration and every OAuth provider converge
// onto the single row holding that email.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Provider      string    `json:"provider"`
	ProviderID    string    `json:"provider_id,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	Role          string    `json:"role"`
	Plan          string    `json:"plan"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PublicUser is the outward-facing projection of a User. It has no password
// field at all, so a serialization bug cannot leak the hash.
type PublicUser struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Provider      string    `json:"provider"`
	Avatar        string    `json:"avatar,omitempty"`
	Role          string    `json:"role"`
	Plan          string    `json:"plan"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Public returns the outward-facing view of the user.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Provider:      u.Provider,
		Avatar:        u.Avatar,
		Role:          u.Role,
		Plan:          u.Plan,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// ExternalProfile is a provider-agnostic view of an OAuth userinfo payload,
// produced by the provider normalizers and consumed by the federation resolver.
type ExternalProfile struct {
	ID       string
	Email    string
	Name     string
	Username string
	Avatar   string
}

// NormalizeEmail lowercases and trims an email address. Uniqueness is
// case-insensitive, so every lookup and write goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is a known authorization tag.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
