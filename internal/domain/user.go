package domain

import "time"

// User represents a platform account. The password is stored only as a
// bcrypt hash; PasswordHash never serializes into API responses.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
