package models

import "time"

// Note is a user-owned record. Tags holds the names of the note's current
// tag associations in alphabetical order and is never nil.
type Note struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Tags      []string  `json:"tags" db:"-"`
}
