package repositories

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
)

// UserReader defines read operations for user data
type UserReader interface {
	// FindUserByID retrieves a specific user by their ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// ListUsersByCompany retrieves the users of a company ordered by name.
	ListUsersByCompany(ctx context.Context, companyID string) ([]domain.User, error)
}

// UserRepositoryFacade combines all user-related repository interfaces.
// Users are provisioned outside this service, so there is no writer.
type UserRepositoryFacade interface {
	UserReader
}
