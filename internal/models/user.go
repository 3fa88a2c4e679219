package models

import "time"

// User represents a registered account.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose this to the client
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
