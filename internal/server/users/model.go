package users

import "time"

// User is a locally registered account.
type User struct {
	ID           string // fully qualified, "@localpart:server"
	PasswordHash string
	CreatedAt    time.Time
}
