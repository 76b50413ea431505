// Package dashboard loads the role-scoped dashboard payloads. Independent
// fetches for one dashboard run concurrently and are joined before anything
// is returned: a partial dashboard is never rendered.
package dashboard

import (
	"context"
	"sync"

	ratehub "github.com/ratehub/ratehub-go"
	"github.com/ratehub/ratehub-go/api"
)

// AdminAPI is the slice of the backend API the admin dashboard needs.
type AdminAPI interface {
	AdminDashboard(ctx context.Context) (*api.DashboardStats, error)
	Users(ctx context.Context) ([]api.User, error)
}

// AdminOverview is the joined admin dashboard payload.
type AdminOverview struct {
	Stats api.DashboardStats
	Users []api.User
}

// LoadAdmin fetches the aggregate stats and the full user list concurrently.
// If either fetch fails the whole load fails; no partial result is returned.
func LoadAdmin(ctx context.Context, a AdminAPI) (*AdminOverview, error) {
	var (
		stats    *api.DashboardStats
		users    []api.User
		statsErr error
		usersErr error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		stats, statsErr = a.AdminDashboard(ctx)
	}()
	go func() {
		defer wg.Done()
		users, usersErr = a.Users(ctx)
	}()
	wg.Wait()

	if statsErr != nil {
		return nil, statsErr
	}
	if usersErr != nil {
		return nil, usersErr
	}
	return &AdminOverview{Stats: *stats, Users: users}, nil
}

// OwnerAPI is the slice of the backend API the store-owner dashboard needs.
type OwnerAPI interface {
	OwnerDashboard(ctx context.Context) (*api.OwnerDashboard, error)
}

// OwnerOverview is the store-owner dashboard payload with its client-side
// rollups across the owner's stores.
type OwnerOverview struct {
	Stores        []api.Store
	AverageRating float64
	TotalRatings  int
}

// LoadOwner fetches the owner dashboard and derives the cross-store rollups:
// the mean of the per-store averages and the total rating count.
func LoadOwner(ctx context.Context, a OwnerAPI) (*OwnerOverview, error) {
	data, err := a.OwnerDashboard(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]ratehub.RatingValue, 0, len(data.Stores))
	total := 0
	for _, s := range data.Stores {
		values = append(values, s.AverageRating)
		total += s.TotalRatings
	}

	return &OwnerOverview{
		Stores:        data.Stores,
		AverageRating: ratehub.CalculateAverageRating(values),
		TotalRatings:  total,
	}, nil
}
