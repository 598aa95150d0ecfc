package domain

import "time"

// Citizen is owned by the citizen registry; billing only reads it.
type Citizen struct {
	ID        string    `json:"id" db:"id"`
	Mobile    string    `json:"mobile" db:"mobile"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	Address   string    `json:"address,omitempty" db:"address"`
	City      string    `json:"city,omitempty" db:"city"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
