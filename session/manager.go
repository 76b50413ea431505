package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/golang/glog"

	ratehub "github.com/ratehub/ratehub-go"
	"github.com/ratehub/ratehub-go/api"
)

// defaultTokenTTL is the persisted credential lifetime when the token itself
// does not carry an expiry.
const defaultTokenTTL = 7 * 24 * time.Hour

// AuthAPI is the slice of the backend API the manager needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Register(ctx context.Context, args api.RegisterArgs) (*api.AuthResult, error)
	ChangePassword(ctx context.Context, args api.ChangePasswordArgs) error
	SetToken(token string)
	OnUnauthorized(fn func())
}

// ManagerOption is a functional option for configuring a Manager.
type ManagerOption func(*Manager)

// WithRevoker sets a best-effort server-side token revocation call made on
// logout. Local clearing never depends on it succeeding.
func WithRevoker(fn func(ctx context.Context) error) ManagerOption {
	return func(m *Manager) {
		m.revoke = fn
	}
}

// WithTokenTTL overrides the fallback credential lifetime.
func WithTokenTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.tokenTTL = ttl
		}
	}
}

// WithClock overrides the time source. For tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns the process-wide session. It is the only writer: consumers
// read through Current and State, and mutate only via Login, Logout and
// Register.
type Manager struct {
	api      AuthAPI
	store    Store
	revoke   func(ctx context.Context) error
	tokenTTL time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	state   State
	session *Session
}

// NewManager creates a session manager over the given API and durable store.
func NewManager(a AuthAPI, store Store, opts ...ManagerOption) (*Manager, error) {
	if a == nil || store == nil {
		return nil, ratehub.ErrInvalidConfig
	}

	m := &Manager{
		api:      a,
		store:    store,
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
		state:    StateUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	// Any 401 from the backend means the credential is dead; drop the
	// session locally rather than letting callers keep retrying with it.
	a.OnUnauthorized(m.ForceLogout)
	return m, nil
}

// Initialize restores a persisted session, if any, before anything protected
// runs. The state stays Initializing until the restore settles, so callers
// gating on State never see a protected view flash. Calling Initialize more
// than once is a no-op.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateUninitialized {
		m.mu.Unlock()
		return nil
	}
	m.state = StateInitializing
	m.mu.Unlock()

	sess, err := m.store.Load(ctx)
	if err != nil {
		glog.Warningf("session: restore failed: %v", err)
		m.settle(nil)
		return err
	}

	if !sess.Valid() || sess.Expired(m.now()) {
		if sess != nil {
			// Stale or malformed credentials are cleared, not kept around.
			if err := m.store.Clear(ctx); err != nil {
				glog.Warningf("session: clear stale session: %v", err)
			}
		}
		m.settle(nil)
		return nil
	}

	m.settle(sess)
	return nil
}

// Login exchanges credentials for a session, persists it, and attaches the
// token to the API client. On failure the current session is left unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	result, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, authError(err)
	}

	sess := m.buildSession(result, "")
	if !sess.Valid() {
		return nil, malformedAuthResponse()
	}
	m.persist(ctx, sess)
	m.settle(sess)
	return sess, nil
}

// Register creates a new identity and signs it in. The role the server
// returns is authoritative; the requested role is used only when the server
// omits one.
func (m *Manager) Register(ctx context.Context, args api.RegisterArgs) (*Session, error) {
	result, err := m.api.Register(ctx, args)
	if err != nil {
		return nil, authError(err)
	}

	sess := m.buildSession(result, args.Role)
	if !sess.Valid() {
		return nil, malformedAuthResponse()
	}
	m.persist(ctx, sess)
	m.settle(sess)
	return sess, nil
}

// Logout revokes the server-side token when a revoker is configured, then
// unconditionally clears the session and the persisted credentials. Leaving
// stale credentials behind on a network failure is a security defect, so the
// local clearing never depends on the server call succeeding.
func (m *Manager) Logout(ctx context.Context) error {
	if m.revoke != nil {
		if err := m.revoke(ctx); err != nil {
			glog.Warningf("session: server-side revocation failed: %v", err)
		}
	}
	m.clearLocal(ctx)
	return nil
}

// ForceLogout clears the session locally without a server call. Wired to the
// API client's unauthorized hook: any 401 lands here.
func (m *Manager) ForceLogout() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.clearLocal(ctx)
}

// ChangePassword validates locally, then asks the backend to change the
// current user's password. Validation failures never reach the network.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	current := m.Current()
	if current == nil {
		return ratehub.ErrNotAuthenticated
	}
	if oldPassword == "" {
		return &ratehub.ValidationError{Field: "oldPassword", Message: "current password is required"}
	}
	if newPassword == "" {
		return &ratehub.ValidationError{Field: "newPassword", Message: "new password is required"}
	}
	if newPassword == oldPassword {
		return &ratehub.ValidationError{Field: "newPassword", Message: "new password must differ from the current one"}
	}

	return m.api.ChangePassword(ctx, api.ChangePasswordArgs{
		UserID:      current.Identity.ID,
		OldPassword: oldPassword,
		NewPassword: newPassword,
	})
}

// Current returns a copy of the active session, or nil when anonymous or not
// yet initialized.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.session == nil {
		return nil
	}
	copied := *m.session
	return &copied
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Authenticated reports whether a session is active.
func (m *Manager) Authenticated() bool {
	return m.State() == StateAuthenticated
}

func (m *Manager) buildSession(result *api.AuthResult, requestedRole ratehub.Role) *Session {
	role := result.User.Role
	if role == "" {
		role = requestedRole
	}

	expiresAt := m.now().Add(m.tokenTTL)
	if exp, ok := tokenExpiry(result.Token); ok {
		expiresAt = exp
	}

	return &Session{
		Identity: Identity{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
			Role:  role,
		},
		Token:     result.Token,
		ExpiresAt: expiresAt,
	}
}

func (m *Manager) persist(ctx context.Context, sess *Session) {
	if err := m.store.Save(ctx, sess); err != nil {
		// The session still works for this process; it just won't survive
		// a restart.
		glog.Warningf("session: persist failed: %v", err)
	}
}

// settle installs a session (or nil) and moves the lifecycle out of
// Initializing.
func (m *Manager) settle(sess *Session) {
	m.mu.Lock()
	m.session = sess
	if sess != nil {
		m.state = StateAuthenticated
		m.api.SetToken(sess.Token)
	} else {
		m.state = StateAnonymous
		m.api.SetToken("")
	}
	m.mu.Unlock()
}

func (m *Manager) clearLocal(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		glog.Warningf("session: clear persisted session: %v", err)
	}
	m.settle(nil)
}

// malformedAuthResponse is returned when a 2xx auth response is missing the
// token or a recognizable role. Signing in on such a response would install a
// session that cannot make authenticated calls.
func malformedAuthResponse() error {
	return &ratehub.AuthError{Message: "malformed auth response"}
}

// authError converts an API failure into an AuthError with the
// human-readable message the backend sent, when it sent one.
func authError(err error) error {
	var mErr *ratehub.MutationError
	if errors.As(err, &mErr) {
		return &ratehub.AuthError{Status: mErr.Status, Message: mErr.Message}
	}
	var fErr *ratehub.FetchError
	if errors.As(err, &fErr) {
		return &ratehub.AuthError{Status: fErr.Status, Message: fErr.Message}
	}
	return &ratehub.AuthError{Message: err.Error()}
}

// tokenExpiry extracts the exp claim from a JWT credential without verifying
// the signature. The client has no signing key; it only needs the expiry.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0), true
}
