// Package models defines the client-side view of passvault API payloads.
package models

import "time"

// Credential is a stored (site, username, password) record as returned by
// the server.
type Credential struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId,omitempty"`
	Site      string    `json:"site"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is the result of a successful register or login.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Export points at a downloadable vault export.
type Export struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
