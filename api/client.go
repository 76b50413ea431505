package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	ratehub "github.com/ratehub/ratehub-go"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultConnectTimeout = 5 * time.Second
	defaultTLSTimeout     = 5 * time.Second
)

// Fallback messages used when the server does not send a structured error body.
const (
	fallbackFetchMessage    = "something went wrong"
	fallbackMutationMessage = "request failed"
	networkErrorMessage     = "network error, please try again later"
)

// Config holds API client configuration.
type Config struct {
	// BaseURL is the root of the REST backend, e.g. "https://api.example.com/api".
	BaseURL string

	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client

	// Timeout applies to the default client only. Optional.
	Timeout time.Duration
}

// Client implements the API interface over HTTP.
type Client struct {
	baseURL string
	http    *http.Client

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ratehub.ErrInvalidConfig)
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %v", ratehub.ErrInvalidConfig, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		dialer := &net.Dialer{Timeout: defaultConnectTimeout}
		httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: defaultTLSTimeout,
			},
			Timeout: timeout,
		}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}, nil
}

// SetToken sets the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// OnUnauthorized registers a hook fired whenever the server answers 401.
// The session layer uses it to force a local logout.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Login exchanges credentials for a token and identity.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	args := map[string]string{"email": email, "password": password}
	return postJSON[*AuthResult](ctx, c, "/auth/login", args, false)
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, args RegisterArgs) (*AuthResult, error) {
	return postJSON[*AuthResult](ctx, c, "/auth/register", args, false)
}

// ChangePassword changes the password for an account.
func (c *Client) ChangePassword(ctx context.Context, args ChangePasswordArgs) error {
	_, err := postJSON[struct{}](ctx, c, "/auth/change-password", args, false)
	return err
}

// Users retrieves all users.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	return getJSON[[]User](ctx, c, "/users", nil)
}

// UsersByRole retrieves the users holding the given role.
func (c *Client) UsersByRole(ctx context.Context, role ratehub.Role) ([]User, error) {
	return getJSON[[]User](ctx, c, "/users/role/"+url.PathEscape(string(role)), nil)
}

// AdminDashboard retrieves the admin dashboard aggregates.
func (c *Client) AdminDashboard(ctx context.Context) (*DashboardStats, error) {
	return getJSON[*DashboardStats](ctx, c, "/users/dashboard", nil)
}

// Stores retrieves stores. Empty params are omitted from the query so the
// backend never sees an empty string as a filter constraint.
func (c *Client) Stores(ctx context.Context, params map[string]string) ([]Store, error) {
	return getJSON[[]Store](ctx, c, "/stores", params)
}

// StoreByID retrieves a single store.
func (c *Client) StoreByID(ctx context.Context, id string) (*Store, error) {
	return getJSON[*Store](ctx, c, "/stores/"+url.PathEscape(id), nil)
}

// CreateStore creates a store.
func (c *Client) CreateStore(ctx context.Context, args CreateStoreArgs) (*Store, error) {
	return postJSON[*Store](ctx, c, "/stores", args, true)
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, args CreateUserArgs) (*User, error) {
	return postJSON[*User](ctx, c, "/users", args, true)
}

// OwnerDashboard retrieves the calling store-owner's dashboard.
func (c *Client) OwnerDashboard(ctx context.Context) (*OwnerDashboard, error) {
	return getJSON[*OwnerDashboard](ctx, c, "/stores/owner/dashboard", nil)
}

// SubmitRating submits or updates a rating.
func (c *Client) SubmitRating(ctx context.Context, args SubmitRatingArgs) (*Rating, error) {
	return postJSON[*Rating](ctx, c, "/ratings", args, true)
}

// UserRatings retrieves the ratings associated with the given user.
func (c *Client) UserRatings(ctx context.Context, userID string) ([]Rating, error) {
	return getJSON[[]Rating](ctx, c, "/ratings/user/"+url.PathEscape(userID), nil)
}

func getJSON[R any](ctx context.Context, c *Client, path string, params map[string]string) (R, error) {
	var out R
	body, err := c.do(ctx, http.MethodGet, path, params, nil, false, false)
	if err != nil {
		return out, err
	}
	if err := decodeBody(body, &out); err != nil {
		return out, &ratehub.FetchError{Message: "unexpected response from server"}
	}
	return out, nil
}

func postJSON[R any](ctx context.Context, c *Client, path string, args any, idempotent bool) (R, error) {
	var out R
	body, err := c.do(ctx, http.MethodPost, path, nil, args, true, idempotent)
	if err != nil {
		return out, err
	}
	if err := decodeBody(body, &out); err != nil {
		return out, &ratehub.MutationError{Message: "unexpected response from server"}
	}
	return out, nil
}

// do performs one request and returns the raw response body on 2xx. Non-2xx
// and transport failures are converted to FetchError (reads) or MutationError
// (writes) carrying the server's message when it sent one. A 401 additionally
// fires the unauthorized hook.
func (c *Client) do(ctx context.Context, method, path string, params map[string]string, args any, write, idempotent bool) ([]byte, error) {
	var reqBody io.Reader
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, params), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if idempotent {
		req.Header.Set("Idempotency-Key", ulid.Make().String())
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(write, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(write, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.fireUnauthorized()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(write, resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) buildURL(path string, params map[string]string) string {
	u := c.baseURL + path
	q := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) fireUnauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// decodeBody unmarshals a response body into out, unwrapping the optional
// {"data": ...} envelope first. The backend answers some endpoints with a
// bare array and others with a wrapped one; the ambiguity stops here.
func decodeBody(body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		body = env.Data
	}
	return json.Unmarshal(body, out)
}

// serverMessage extracts a human-readable message from a structured error
// body, preferring "message" over "error", else the fallback.
func serverMessage(body []byte, fallback string) (message, code string) {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message, payload.Code
		}
		if payload.Error != "" {
			return payload.Error, payload.Code
		}
	}
	return fallback, ""
}

func transportError(write bool, err error) error {
	glog.Warningf("api: transport failure: %v", err)
	if write {
		return &ratehub.MutationError{Message: networkErrorMessage}
	}
	return &ratehub.FetchError{Message: networkErrorMessage}
}

func statusError(write bool, status int, body []byte) error {
	if write {
		message, code := serverMessage(body, fallbackMutationMessage)
		return &ratehub.MutationError{Status: status, Code: code, Message: message}
	}
	message, _ := serverMessage(body, fallbackFetchMessage)
	return &ratehub.FetchError{Status: status, Message: message}
}

// Compile-time check that Client implements API.
var _ API = (*Client)(nil)
