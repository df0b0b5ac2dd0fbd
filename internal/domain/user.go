package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller, resolved once by the HTTP layer and
// passed explicitly into every operation that needs it.
type Identity struct {
	UserID string
	Role   Role
}

func (id Identity) Admin() bool {
	return id.Role == RoleAdmin
}
