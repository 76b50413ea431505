package api

import (
	"context"

	ratehub "github.com/ratehub/ratehub-go"
)

// API provides typed access to the store-rating REST backend.
type API interface {
	// Login exchanges credentials for a token and identity.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// Register creates a new account and returns its token and identity.
	Register(ctx context.Context, args RegisterArgs) (*AuthResult, error)

	// ChangePassword changes the password for an account.
	ChangePassword(ctx context.Context, args ChangePasswordArgs) error

	// Users retrieves all users.
	Users(ctx context.Context) ([]User, error)

	// UsersByRole retrieves the users holding the given role.
	UsersByRole(ctx context.Context, role ratehub.Role) ([]User, error)

	// AdminDashboard retrieves the admin dashboard aggregates.
	AdminDashboard(ctx context.Context) (*DashboardStats, error)

	// Stores retrieves stores. Empty params are omitted from the query.
	Stores(ctx context.Context, params map[string]string) ([]Store, error)

	// StoreByID retrieves a single store with its server-computed aggregates.
	StoreByID(ctx context.Context, id string) (*Store, error)

	// CreateStore creates a store.
	CreateStore(ctx context.Context, args CreateStoreArgs) (*Store, error)

	// CreateUser creates a user.
	CreateUser(ctx context.Context, args CreateUserArgs) (*User, error)

	// OwnerDashboard retrieves the calling store-owner's dashboard.
	OwnerDashboard(ctx context.Context) (*OwnerDashboard, error)

	// SubmitRating submits or updates a rating.
	SubmitRating(ctx context.Context, args SubmitRatingArgs) (*Rating, error)

	// UserRatings retrieves the ratings submitted for stores owned by or
	// rated by the given user.
	UserRatings(ctx context.Context, userID string) ([]Rating, error)

	// SetToken sets the bearer token attached to subsequent requests.
	// An empty token detaches authentication.
	SetToken(token string)
}
