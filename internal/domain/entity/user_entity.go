package entity

import (
	"time"
)

// User is the aggregate root for the accounts domain.
// Password holds a bcrypt hash; plaintext is never persisted.
//
// Password is serialized on purpose: the list and lookup endpoints
// return stored records verbatim, hashes included, for wire
// compatibility with existing consumers.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Password      string    `json:"password"`
	ReferralName  string    `json:"referralName,omitempty"`
	ReferralEmail string    `json:"referralEmail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
