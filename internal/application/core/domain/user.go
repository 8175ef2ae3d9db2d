package domain

import (
	"github.com/google/uuid"
	"time"
)

// User is a representation of one record from the user_data table.
type User struct {
	// ID is the UUID that uniquely identifies the User.
	ID uuid.UUID
	// Name of the User.
	Name string
	// Email of the User; unique within the table.
	Email string
	// Age of the User in years. The source column is DECIMAL(5,2), so
	// fractional ages are preserved.
	Age float64
	// CreatedAt is when the User row was first inserted.
	CreatedAt time.Time
}
