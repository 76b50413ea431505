package api

import (
	"time"

	ratehub "github.com/ratehub/ratehub-go"
)

// User represents an account from the API.
type User struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Address   string       `json:"address"`
	Role      ratehub.Role `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
}

// Store represents a store from the API. AverageRating and TotalRatings are
// server-computed aggregates; UserRating is the calling user's own rating
// when the backend includes it.
type Store struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Address       string              `json:"address"`
	OwnerID       string              `json:"owner_id"`
	OwnerName     string              `json:"owner_name"`
	AverageRating ratehub.RatingValue `json:"average_rating"`
	TotalRatings  int                 `json:"total_ratings"`
	UserRating    ratehub.RatingValue `json:"user_rating"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Rating represents a single submitted rating.
type Rating struct {
	ID        string              `json:"id"`
	StoreID   string              `json:"store_id"`
	UserID    string              `json:"user_id"`
	Value     ratehub.RatingValue `json:"rating"`
	CreatedAt time.Time           `json:"created_at"`
}

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	UserCount    int `json:"userCount"`
	StoresCount  int `json:"storesCount"`
	RatingsCount int `json:"ratingsCount"`
}

// OwnerDashboard is the store-owner dashboard payload: the owner's stores
// with their server-computed aggregates.
type OwnerDashboard struct {
	Stores []Store `json:"stores"`
}

// AuthResult is the response to a successful login or registration.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterArgs is the payload for POST /auth/register.
type RegisterArgs struct {
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Address  string       `json:"address,omitempty"`
	Password string       `json:"password"`
	Role     ratehub.Role `json:"role,omitempty"`
}

// ChangePasswordArgs is the payload for POST /auth/change-password.
type ChangePasswordArgs struct {
	UserID      string `json:"userId"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// CreateUserArgs is the payload for POST /users.
type CreateUserArgs struct {
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Address  string       `json:"address,omitempty"`
	Password string       `json:"password"`
	Role     ratehub.Role `json:"role"`
}

// CreateStoreArgs is the payload for POST /stores.
type CreateStoreArgs struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	OwnerID string `json:"owner_id,omitempty"`
}

// SubmitRatingArgs is the canonical payload for POST /ratings.
type SubmitRatingArgs struct {
	StoreID string `json:"storeId"`
	UserID  string `json:"userId"`
	Rating  int    `json:"rating"`
}
