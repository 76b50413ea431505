package mutate

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	ratehub "github.com/ratehub/ratehub-go"
	"github.com/ratehub/ratehub-go/api"
	"github.com/ratehub/ratehub-go/view"
)

type fakeStoreAPI struct {
	createResult *api.Store
	createErr    error
	byID         map[string]*api.Store
	byIDErr      error
	ratingErr    error

	createCalls int
	ratingCalls int
	lastRating  api.SubmitRatingArgs
}

func (f *fakeStoreAPI) CreateStore(ctx context.Context, args api.CreateStoreArgs) (*api.Store, error) {
	f.createCalls++
	return f.createResult, f.createErr
}

func (f *fakeStoreAPI) StoreByID(ctx context.Context, id string) (*api.Store, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byID[id], nil
}

func (f *fakeStoreAPI) SubmitRating(ctx context.Context, args api.SubmitRatingArgs) (*api.Rating, error) {
	f.ratingCalls++
	f.lastRating = args
	if f.ratingErr != nil {
		return nil, f.ratingErr
	}
	return &api.Rating{ID: "r1", StoreID: args.StoreID, UserID: args.UserID, Value: ratehub.Rating(float64(args.Rating))}, nil
}

func newStoreView(t *testing.T, stores []api.Store) *view.View[api.Store] {
	t.Helper()

	v, err := view.New(view.Config[api.Store]{
		Schema: view.StoreFields,
		Key:    func(s api.Store) string { return s.ID },
		Field: func(s api.Store, name string) string {
			switch name {
			case "name":
				return s.Name
			case "email":
				return s.Email
			case "address":
				return s.Address
			case "owner":
				return s.OwnerName
			default:
				return ""
			}
		},
	})
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}
	v.SetRecords(stores)
	return v
}

func TestCreateStoreValidationBlocksNetwork(t *testing.T) {
	a := &fakeStoreAPI{}

	var vErr *ratehub.ValidationError
	if _, err := CreateStore(context.Background(), a, api.CreateStoreArgs{}); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := CreateStore(context.Background(), a, api.CreateStoreArgs{Name: "Tea", Email: "bad", Address: "1 Main"}); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for email, got %v", err)
	}
	assert.Equal(t, 0, a.createCalls)
}

func TestValidEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"ada@example.com", true},
		{"a@b.c", true},
		{"", false},
		{"noat", false},
		{"@example.com", false},
		{"ada@", false},
		{"a b@example.com", false},
		{"Ada <ada@example.com>", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, validEmail(tc.email))
	}
}

func TestCreateStoreDuplicateEmailLeavesCollectionUnchanged(t *testing.T) {
	existing := []api.Store{{ID: "s1", Name: "Tea House", Email: "tea@example.com"}}
	v := newStoreView(t, existing)

	a := &fakeStoreAPI{
		createErr: &ratehub.MutationError{
			Status:  409,
			Code:    "STORE_EMAIL_CONFLICT",
			Message: "Store with this email already exists",
		},
	}

	_, err := CreateStore(context.Background(), a, api.CreateStoreArgs{
		Name:    "Tea House Two",
		Email:   "tea@example.com",
		Address: "2 Main St",
	})

	var mErr *ratehub.MutationError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected MutationError, got %v", err)
	}
	assert.Equal(t, "Store with this email already exists", mErr.Message)

	// No optimistic insert: the collection still holds only the original.
	assert.Equal(t, 1, len(v.Records()))
	assert.Equal(t, "s1", v.Records()[0].ID)
}

func TestCreateStoreSuccess(t *testing.T) {
	a := &fakeStoreAPI{
		createResult: &api.Store{ID: "s9", Name: "New Store", Email: "new@example.com"},
	}

	store, err := CreateStore(context.Background(), a, api.CreateStoreArgs{
		Name:    "New Store",
		Email:   "new@example.com",
		Address: "9 Main St",
	})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	assert.Equal(t, "s9", store.ID)
}

func TestRateStoreValidation(t *testing.T) {
	a := &fakeStoreAPI{}

	if _, err := RateStore(context.Background(), a, nil, "", "s1", 5); !errors.Is(err, ratehub.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	var vErr *ratehub.ValidationError
	if _, err := RateStore(context.Background(), a, nil, "u1", "s1", 0); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := RateStore(context.Background(), a, nil, "u1", "s1", 6); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	assert.Equal(t, 0, a.ratingCalls)
}

func TestRateStoreReplacesRecordWithAuthoritativeData(t *testing.T) {
	stale := api.Store{ID: "s1", Name: "Tea House", AverageRating: ratehub.Rating(3.0), TotalRatings: 2}
	fresh := api.Store{ID: "s1", Name: "Tea House", AverageRating: ratehub.Rating(3.7), TotalRatings: 3, UserRating: ratehub.Rating(5)}

	v := newStoreView(t, []api.Store{stale})
	a := &fakeStoreAPI{byID: map[string]*api.Store{"s1": &fresh}}

	store, err := RateStore(context.Background(), a, v, "u1", "s1", 5)
	if err != nil {
		t.Fatalf("RateStore: %v", err)
	}

	assert.Equal(t, api.SubmitRatingArgs{StoreID: "s1", UserID: "u1", Rating: 5}, a.lastRating)
	assert.Equal(t, fresh, *store)

	records := v.Records()
	assert.Equal(t, 1, len(records))
	// Aggregates come from the refetch, never from local patching.
	assert.Equal(t, ratehub.Rating(3.7), records[0].AverageRating)
	assert.Equal(t, 3, records[0].TotalRatings)
}

func TestRateStoreSubmitFailureLeavesCollectionUntouched(t *testing.T) {
	stale := api.Store{ID: "s1", Name: "Tea House", AverageRating: ratehub.Rating(3.0)}
	v := newStoreView(t, []api.Store{stale})
	a := &fakeStoreAPI{ratingErr: &ratehub.MutationError{Status: 400, Message: "already rated"}}

	_, err := RateStore(context.Background(), a, v, "u1", "s1", 4)

	var mErr *ratehub.MutationError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected MutationError, got %v", err)
	}
	assert.Equal(t, ratehub.Rating(3.0), v.Records()[0].AverageRating)
}

func TestRateStoreRefetchFailureKeepsStaleRow(t *testing.T) {
	stale := api.Store{ID: "s1", Name: "Tea House", AverageRating: ratehub.Rating(3.0)}
	v := newStoreView(t, []api.Store{stale})
	a := &fakeStoreAPI{byIDErr: &ratehub.FetchError{Status: 500, Message: "boom"}}

	_, err := RateStore(context.Background(), a, v, "u1", "s1", 4)
	if err == nil {
		t.Fatal("expected the refetch error")
	}
	assert.Equal(t, 1, a.ratingCalls)
	assert.Equal(t, ratehub.Rating(3.0), v.Records()[0].AverageRating)
}

type fakeUserAPI struct {
	createCalls int
	result      *api.User
	err         error
}

func (f *fakeUserAPI) CreateUser(ctx context.Context, args api.CreateUserArgs) (*api.User, error) {
	f.createCalls++
	return f.result, f.err
}

func TestCreateUserValidation(t *testing.T) {
	a := &fakeUserAPI{}

	var vErr *ratehub.ValidationError
	if _, err := CreateUser(context.Background(), a, api.CreateUserArgs{}); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := CreateUser(context.Background(), a, api.CreateUserArgs{
		Name: "Ada", Email: "ada@a.org", Password: "pw", Role: "superuser",
	}); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for role, got %v", err)
	}
	assert.Equal(t, 0, a.createCalls)

	a.result = &api.User{ID: "u1"}
	if _, err := CreateUser(context.Background(), a, api.CreateUserArgs{
		Name: "Ada", Email: "ada@a.org", Password: "pw", Role: ratehub.RoleUser,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	assert.Equal(t, 1, a.createCalls)
}
