package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the minimal account record this core reads. Registration,
// credentials and session issuance live outside this service.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
