package repository

import (
	"context"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
)

// UserRepository is the read-only view of the loaded user snapshot.
type UserRepository interface {
	// All returns every record in enumeration order. Callers must not modify the slice.
	All() []entity.User
	Count() int
}

// UserSource loads the raw records the store is built from.
type UserSource interface {
	Load(ctx context.Context) ([]entity.User, error)
}
