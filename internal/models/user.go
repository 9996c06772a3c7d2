// Package models defines the domain types for offcuts.
package models

// User roles.
const (
	RoleMaster = "master"
	RoleBuyer  = "buyer"
	RoleAdmin  = "admin"
)

// User statuses.
const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

// User is a marketplace participant as returned to callers. The password never leaves the store.
type User struct {
	Login       string `json:"login"`
	Role        string `json:"role"`
	FullName    string `json:"full_name"`
	Age         int64  `json:"age"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Education   string `json:"education"`
	PhotoURL    string `json:"photo_url"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// NewUser carries the fields accepted when registering a user.
type NewUser struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	FullName    string `json:"full_name"`
	Age         int64  `json:"age"`
	Description string `json:"description"`
	Education   string `json:"education"`
	PhotoURL    string `json:"photo_url"`
}

// UserProfile is the editable part of a user. Login, password, role and status are not part of it.
type UserProfile struct {
	FullName    string `json:"full_name"`
	Age         int64  `json:"age"`
	Description string `json:"description"`
	Education   string `json:"education"`
	PhotoURL    string `json:"photo_url"`
}
