// Package session owns "who is logged in" for one browser.
//
// A Store keeps the session in memory for the current request and mirrors
// every transition into the browser's durable storage. The mirror is passive:
// it is written on each transition and read once by Restore.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/diagnosis/festa-decor/internal/domain"
	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/pkg/logger"
)

// ErrIncompleteAuth is returned when the backend reports success without
// both a token and a user.
var ErrIncompleteAuth = errors.New("authentication response is missing token or user")

// AuthAPI is the slice of the backend the session needs.
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	SendOTP(ctx context.Context, mobile string) error
	LoginWithOTP(ctx context.Context, req domain.OTPLogin) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
}

type State struct {
	Token string
	User  *domain.User
}

func (s State) Authenticated() bool {
	return s.Token != ""
}

type EventType string

const (
	EventLogin    EventType = "login"
	EventRegister EventType = "register"
	EventRestore  EventType = "restore"
	EventLogout   EventType = "logout"
)

type Event struct {
	Type  EventType
	State State
}

// sessionKeys are removed on logout. userName and userMobile stay behind so
// a returning guest can have booking forms prefilled.
var sessionKeys = []string{
	storage.KeyToken,
	storage.KeyUser,
	storage.KeyRole,
	storage.KeyLoggedIn,
}

type Store struct {
	api AuthAPI
	kv  storage.Store

	mu        sync.RWMutex
	state     State
	listeners map[int]func(Event)
	nextID    int
}

func New(api AuthAPI, kv storage.Store) *Store {
	return &Store{
		api:       api,
		kv:        kv,
		listeners: make(map[int]func(Event)),
	}
}

func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for every transition. The returned func removes it.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) emit(ev Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Restore loads the session from durable storage. A present token is taken
// at face value: no expiry check and no network call. A missing or
// unreadable user leaves a partial session. Restore never fails.
func (s *Store) Restore(ctx context.Context) {
	token, ok, err := s.kv.Get(ctx, storage.KeyToken)
	if err != nil {
		logger.WarnContext(ctx, "Failed to restore session token", "error", err)
		return
	}
	if !ok || token == "" {
		return
	}

	st := State{Token: token}
	if raw, ok, err := s.kv.Get(ctx, storage.KeyUser); err != nil {
		logger.WarnContext(ctx, "Failed to restore session user", "error", err)
	} else if ok && raw != "" {
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			logger.WarnContext(ctx, "Stored user is not valid JSON", "error", err)
		} else {
			st.User = &u
		}
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.emit(Event{Type: EventRestore, State: st})
}

// Set replaces the session. An unauthenticated state clears it.
func (s *Store) Set(ctx context.Context, st State) error {
	if !st.Authenticated() {
		return s.Clear(ctx)
	}
	if err := s.persist(ctx, st); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

// Clear drops the in-memory session and the session keys in storage.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()

	if err := s.kv.Delete(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("failed to clear session storage: %w", err)
	}
	return nil
}

func (s *Store) persist(ctx context.Context, st State) error {
	userJSON, err := json.Marshal(st.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	writes := [][2]string{
		{storage.KeyToken, st.Token},
		{storage.KeyUser, string(userJSON)},
		{storage.KeyRole, st.User.Role},
		{storage.KeyLoggedIn, "true"},
		{storage.KeyUserName, st.User.DisplayName()},
	}
	if st.User.Mobile != "" {
		writes = append(writes, [2]string{storage.KeyUserMobile, st.User.Mobile})
	}

	for _, w := range writes {
		if err := s.kv.Set(ctx, w[0], w[1]); err != nil {
			return fmt.Errorf("failed to persist %s: %w", w[0], err)
		}
	}
	return nil
}

func (s *Store) establish(ctx context.Context, res *domain.AuthResult, typ EventType) error {
	if res == nil || res.Token == "" || res.User == nil {
		return ErrIncompleteAuth
	}
	st := State{Token: res.Token, User: res.User}
	if err := s.Set(ctx, st); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Session established", "type", string(typ), "role", st.User.Role)
	s.emit(Event{Type: typ, State: st})
	return nil
}

// Login authenticates with email and password. Backend errors are returned
// as is so the caller can show the backend's message.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	res, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, res, EventLogin); err != nil {
		return nil, err
	}
	return res.User, nil
}

// RequestOTP asks the backend to send a one-time code. The session is untouched.
func (s *Store) RequestOTP(ctx context.Context, mobile string) error {
	return s.api.SendOTP(ctx, mobile)
}

func (s *Store) LoginWithOTP(ctx context.Context, req domain.OTPLogin) (*domain.User, error) {
	res, err := s.api.LoginWithOTP(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, res, EventLogin); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Register creates an account. When the backend logs the new user in by
// returning a token, the session is established exactly as for Login.
// Otherwise the raw result comes back and no session exists.
func (s *Store) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	res, err := s.api.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if res != nil && res.Token != "" {
		if err := s.establish(ctx, res, EventRegister); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Logout is idempotent.
func (s *Store) Logout(ctx context.Context) error {
	prev := s.Get()
	if err := s.Clear(ctx); err != nil {
		return err
	}
	if prev.Authenticated() {
		s.emit(Event{Type: EventLogout, State: prev})
	}
	return nil
}

// HomeFor is where a user lands after logging in.
func HomeFor(u *domain.User) string {
	if u.IsAdmin() {
		return "/admin/dashboard"
	}
	return "/"
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) *Store {
	if s, ok := ctx.Value(ctxKey{}).(*Store); ok {
		return s
	}
	return nil
}
