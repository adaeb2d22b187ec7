// Package session owns the authenticated identity and its bearer credential.
//
// The identity and the credential are written and cleared together, in one
// local-store transaction, so no observer can see one without the other. The
// store subscribes to the transport's authorization-denied event: a single
// rejected credential tears the whole session down no matter which feature
// made the call.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"brewcart/internal/api"
	"brewcart/internal/cryptox"
	"brewcart/internal/localstore"
	"brewcart/internal/models"
	"brewcart/internal/timeutil"
	"brewcart/internal/validation"
)

var (
	// ErrBusy is returned when a login or register call is already in
	// flight; the caller should keep its control disabled instead of
	// queueing a second call.
	ErrBusy = errors.New("an authentication request is already in flight")
)

// AuthAPI is the slice of the remote API the session store needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Register(ctx context.Context, name, email, password string) (*api.AuthResult, error)
}

// Store is the process-wide session singleton, constructed once at bootstrap.
type Store struct {
	api    AuthAPI
	local  *localstore.Store
	secret []byte
	clock  timeutil.Clock

	mu          sync.Mutex
	current     *models.Session
	ready       bool
	loading     bool
	invalidated bool
	subs        map[int]func()
	nextSub     int
	onClear     []func()
}

// NewStore creates the session store. secret is the per-device key used to
// seal the persisted bearer credential.
func NewStore(authAPI AuthAPI, local *localstore.Store, secret []byte, clock timeutil.Clock) *Store {
	if clock == nil {
		clock = timeutil.System()
	}
	return &Store{
		api:    authAPI,
		local:  local,
		secret: secret,
		clock:  clock,
		subs:   make(map[int]func()),
	}
}

// SetAPI wires the remote client after construction. The store is the
// client's token source, so the two reference each other and one side has to
// be attached late.
func (s *Store) SetAPI(authAPI AuthAPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.api = authAPI
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Current returns a copy of the active session, or nil.
func (s *Store) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Authenticated reports whether a session is active.
func (s *Store) Authenticated() bool {
	return s.Current() != nil
}

// Loading reports whether a login or register call is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Ready reports whether startup rehydration has completed. Route guards show
// a neutral placeholder until it has.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Invalidated reports whether the last teardown came from an
// authorization-denied response rather than an explicit logout.
func (s *Store) Invalidated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

// Subscribe registers fn to run after every session state change and returns
// an unsubscribe function.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// OnClear registers fn to run whenever the session is torn down, by logout or
// by invalidation. The catalog cache registers here so results fetched under
// the previous identity are discarded.
func (s *Store) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Rehydrate restores the session from the local store at startup. A stored
// credential whose expiry has passed is discarded rather than restored.
//
// The ready flag is only raised once the restored session, if any, is
// installed. Raising it earlier would let a guard observe a ready store with
// no session and bounce a signed-in user to login mid-restore.
func (s *Store) Rehydrate() error {
	defer func() {
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
		s.notify()
	}()

	sealed, hasToken, err := s.local.Get(localstore.KeyAuthToken)
	if err != nil {
		return fmt.Errorf("failed to read stored credential: %w", err)
	}
	rawUser, hasUser, err := s.local.Get(localstore.KeyUser)
	if err != nil {
		return fmt.Errorf("failed to read stored identity: %w", err)
	}
	if !hasToken || !hasUser {
		// A half-present pair should never happen; drop whatever is there.
		if hasToken || hasUser {
			return s.local.Delete(localstore.KeyAuthToken, localstore.KeyUser)
		}
		return nil
	}

	token, err := cryptox.Open(sealed, s.secret)
	if err != nil {
		log.Printf("Discarding unreadable stored credential: %v", err)
		return s.local.Delete(localstore.KeyAuthToken, localstore.KeyUser)
	}

	var identity models.Identity
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
		log.Printf("Discarding unreadable stored identity: %v", err)
		return s.local.Delete(localstore.KeyAuthToken, localstore.KeyUser)
	}

	if tokenExpired(token, s.clock.Now()) {
		return s.local.Delete(localstore.KeyAuthToken, localstore.KeyUser)
	}

	s.mu.Lock()
	s.current = &models.Session{Identity: identity, Token: token}
	s.mu.Unlock()
	return nil
}

// Login authenticates with the remote API and installs the session. Exactly
// one of {session installed} or {error returned} holds.
func (s *Store) Login(ctx context.Context, email, password string, remember bool) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return validation.ValidationError{Field: "password", Message: "password is required"}
	}

	release, err := s.beginCall()
	if err != nil {
		return err
	}
	defer release()

	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := s.install(result, remember, email); err != nil {
		return err
	}
	return nil
}

// Register creates an account and installs the session, recording the email
// as pending verification.
func (s *Store) Register(ctx context.Context, name, email, password string, remember bool) error {
	if err := validation.ValidateName(name); err != nil {
		return err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	release, err := s.beginCall()
	if err != nil {
		return err
	}
	defer release()

	result, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		return err
	}

	if err := s.install(result, remember, email); err != nil {
		return err
	}
	if !result.User.Verified {
		if err := s.local.Set(localstore.KeyPendingVerificationEmail, email); err != nil {
			return fmt.Errorf("failed to record pending verification: %w", err)
		}
	}
	return nil
}

// InstallExternal installs a session acquired outside the local login and
// registration calls, such as an OAuth exchange or a verification step that
// returned a fresh credential.
func (s *Store) InstallExternal(token string, identity models.Identity) error {
	release, err := s.beginCall()
	if err != nil {
		return err
	}
	defer release()

	return s.install(&api.AuthResult{Token: token, User: identity}, false, "")
}

// beginCall claims the single in-flight auth slot.
func (s *Store) beginCall() (func(), error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.loading = true
	s.mu.Unlock()
	s.notify()

	return func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.notify()
	}, nil
}

// install persists the credential and identity atomically, applies the
// remember-me keys, and publishes the new session. The in-memory session is
// only installed after the durable write succeeds.
func (s *Store) install(result *api.AuthResult, remember bool, email string) error {
	sealed, err := cryptox.Seal(result.Token, s.secret)
	if err != nil {
		return fmt.Errorf("failed to seal credential: %w", err)
	}
	rawUser, err := json.Marshal(result.User)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	pairs := map[string]string{
		localstore.KeyAuthToken: sealed,
		localstore.KeyUser:      string(rawUser),
	}
	if remember {
		pairs[localstore.KeyRememberedEmail] = email
		pairs[localstore.KeyRememberMe] = "true"
	}
	if err := s.local.SetMany(pairs); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if !remember {
		if err := s.local.Delete(localstore.KeyRememberedEmail, localstore.KeyRememberMe); err != nil {
			return fmt.Errorf("failed to clear remembered email: %w", err)
		}
	}

	s.mu.Lock()
	s.current = &models.Session{Identity: result.User, Token: result.Token}
	s.invalidated = false
	s.mu.Unlock()
	return nil
}

// Logout unconditionally clears the session from memory and durable storage
// and discards caches tied to the previous identity.
func (s *Store) Logout() error {
	return s.clear(false)
}

// HandleUnauthorized is the transport's authorization-denied subscriber.
// Register it with api.Client.OnUnauthorized exactly once at bootstrap.
func (s *Store) HandleUnauthorized() {
	if err := s.clear(true); err != nil {
		log.Printf("Failed to clear session after authorization denial: %v", err)
	}
}

func (s *Store) clear(invalidated bool) error {
	s.mu.Lock()
	s.current = nil
	s.invalidated = invalidated
	hooks := make([]func(), len(s.onClear))
	copy(hooks, s.onClear)
	s.mu.Unlock()

	err := s.local.Delete(localstore.KeyAuthToken, localstore.KeyUser)

	for _, fn := range hooks {
		fn()
	}
	s.notify()

	if err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}
	return nil
}

// RememberedEmail returns the email persisted by a remember-me login.
func (s *Store) RememberedEmail() (string, bool) {
	flag, ok, err := s.local.Get(localstore.KeyRememberMe)
	if err != nil || !ok || flag != "true" {
		return "", false
	}
	email, ok, err := s.local.Get(localstore.KeyRememberedEmail)
	if err != nil || !ok {
		return "", false
	}
	return email, true
}

// PendingVerificationEmail returns the email awaiting verification, if any.
func (s *Store) PendingVerificationEmail() (string, bool) {
	email, ok, err := s.local.Get(localstore.KeyPendingVerificationEmail)
	if err != nil || !ok {
		return "", false
	}
	return email, true
}

// CompleteVerification clears the pending-verification marker and flips the
// in-memory verified flag after a successful email verification.
func (s *Store) CompleteVerification() error {
	if err := s.local.Delete(localstore.KeyPendingVerificationEmail); err != nil {
		return err
	}

	s.mu.Lock()
	changed := false
	if s.current != nil && !s.current.Identity.Verified {
		s.current.Identity.Verified = true
		changed = true
	}
	var rawUser []byte
	if changed {
		rawUser, _ = json.Marshal(s.current.Identity)
	}
	s.mu.Unlock()

	if changed {
		if err := s.local.Set(localstore.KeyUser, string(rawUser)); err != nil {
			return fmt.Errorf("failed to persist verified identity: %w", err)
		}
		s.notify()
	}
	return nil
}

// Reset tears down all session state, including remembered keys. Test hook.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.current = nil
	s.loading = false
	s.ready = false
	s.invalidated = false
	s.mu.Unlock()

	err := s.local.Delete(
		localstore.KeyAuthToken,
		localstore.KeyUser,
		localstore.KeyRememberedEmail,
		localstore.KeyRememberMe,
		localstore.KeyPendingVerificationEmail,
	)
	s.notify()
	return err
}
