package models

// User roles.
const (
	RoleStudent   = "student"
	RoleAppraiser = "appraiser"
	RoleAdmin     = "admin"
)

// Sign-in providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User is a registered account. The record id is the identity provider uid.
type User struct {
	Name          string           `json:"name,omitempty"`
	Email         string           `json:"email,omitempty"`
	Role          string           `json:"role,omitempty"`
	ProfileImages string           `json:"profileImages,omitempty"`
	Attempts      []map[string]any `json:"attempts"`
	Provider      string           `json:"provider,omitempty"`
}

func (u *User) Defaults() {
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if u.Attempts == nil {
		u.Attempts = []map[string]any{}
	}
	if u.Provider == "" {
		u.Provider = ProviderPassword
	}
}
