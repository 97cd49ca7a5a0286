// Package models defines the server-side records persisted in the database.
package models

import "time"

// User is an account identity. Email is unique and compared exactly.
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
