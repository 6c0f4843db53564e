package model

import "time"

// Role is a capability grant. The role table is the only source of truth for roles.
type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSeller || r == RoleAdmin
}

// Profile is the public face of a user. Roles are not stored here.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleAssignment grants Role to UserID.
type RoleAssignment struct {
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	GrantedBy string    `json:"granted_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchlistEntry marks an auction as watched by a user.
type WatchlistEntry struct {
	UserID    string    `json:"user_id"`
	AuctionID string    `json:"auction_id"`
	CreatedAt time.Time `json:"created_at"`
}
