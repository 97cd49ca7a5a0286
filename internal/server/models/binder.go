package models

import "time"

const DefaultIndustry = "general"

// Binder is the unit of ownership; tasks and documents belong to exactly one.
type Binder struct {
	ID        int64     `db:"id"`
	OwnerID   int64     `db:"owner_id"`
	Name      string    `db:"name"`
	Industry  string    `db:"industry"`
	CreatedAt time.Time `db:"created_at"`
}
