package model

import "time"

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// User owns tracked job records and import tasks. Inactive users can neither
// log in nor authenticate with their API key.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Name      string    `json:"name" db:"name"`
	Role      UserRole  `json:"role" db:"role"`
	APIKey    string    `json:"-" db:"api_key"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	User      *User  `json:"user"`
}

type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

// TokenClaims identifies the caller of an authenticated request, whether it
// came with a JWT or an API key.
type TokenClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}

func (c *TokenClaims) IsAdmin() bool {
	return c != nil && c.Role == UserRoleAdmin
}

// CanAccess reports whether the caller may read or change a record owned by
// ownerID. Admins may access every record.
func (c *TokenClaims) CanAccess(ownerID string) bool {
	return c != nil && (c.UserID == ownerID || c.Role == UserRoleAdmin)
}
