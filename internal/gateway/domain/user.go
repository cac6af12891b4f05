package domain

import "time"

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string // argon2id encoded
	Role         string // "user" or "admin"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
