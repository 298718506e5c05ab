package models

import "time"

// Role is free-form; nothing in the service authorizes on it.
type Role string

type User struct {
	ID        int64      `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	Password  string     `db:"password_hash" json:"-"`
	Role      Role       `db:"role" json:"role"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	LastLogin *time.Time `db:"last_login" json:"last_login,omitempty"`
}
