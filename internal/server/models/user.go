// Package models defines the server-side data models persisted in the
// database and the message shapes exchanged with the thumbnail worker.
package models

import "time"

// User is an account that owns nodes in the hierarchy. The password is
// stored as a bcrypt hash and never leaves the service layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
