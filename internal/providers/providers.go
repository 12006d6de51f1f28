// Package providers defines the read-only views of collaborating services.
// The scheduling core consumes identity and studio master data through these
// interfaces and never writes back.
package providers

import (
	"context"

	"github.com/google/uuid"
)

// User is the slice of identity data the scheduler needs.
type User struct {
	ID       uuid.UUID `json:"id"`
	Role     string    `json:"role"`
	StudioID uuid.UUID `json:"studio_id"`
}

// Classroom is a studio-management master record.
type Classroom struct {
	ID       uuid.UUID `json:"id"`
	StudioID uuid.UUID `json:"studio_id"`
	Name     string    `json:"name"`
	Capacity int       `json:"capacity"`
}

type Identity interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

type Studio interface {
	GetClassroom(ctx context.Context, id uuid.UUID) (*Classroom, error)
	ListClassrooms(ctx context.Context, studioID uuid.UUID) ([]*Classroom, error)
}
