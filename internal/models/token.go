package models

import "time"

// Token is one active session. A user holds one row per logged-in
// device; deleting the row revokes that session only.
type Token struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
}
