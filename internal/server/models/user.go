package models

import "time"

type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}
