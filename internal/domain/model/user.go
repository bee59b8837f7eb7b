package model

import "time"

// User is a dashboard account. ClerkID is the identity provider's subject id
// and is the only identifier callers ever present.
type User struct {
	ID        string
	ClerkID   string
	Email     string
	CreatedAt time.Time
}
