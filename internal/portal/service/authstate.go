package service

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
	"github.com/aussiebroadwan/payslip/pkg/slogx"
)

// InitFailedMessage is recorded in AuthState.Error when Init cannot reach a
// verdict.
const InitFailedMessage = "Failed to initialize authentication"

// Navigator sends the browser somewhere else entirely.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(url string)

func (f NavigatorFunc) Navigate(url string) { f(url) }

// AuthStore holds what one page knows about its viewer. It is created when
// the page is built and dropped with it. Every change is published to
// subscribers.
//
// Init has no re-entrancy guard: overlapping calls are last-writer-wins.
type AuthStore struct {
	checker AuthChecker
	urls    NavigationURLs
	nav     Navigator

	mu    sync.RWMutex
	state domain.AuthState

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func(domain.AuthState)
}

// NewAuthStore returns a store in its initial, signed-out state.
func NewAuthStore(checker AuthChecker, urls NavigationURLs, nav Navigator) *AuthStore {
	return &AuthStore{
		checker: checker,
		urls:    urls,
		nav:     nav,
	}
}

// Init asks the API who the viewer is and records the answer. It returns
// whether the viewer is authenticated. Loading is true for the duration.
func (s *AuthStore) Init(ctx context.Context) bool {
	s.update(func(st *domain.AuthState) {
		st.Loading = true
		st.Error = ""
	})
	defer s.update(func(st *domain.AuthState) {
		st.Loading = false
	})

	status, err := checkAuth(ctx, s.checker)
	if err != nil {
		slogx.FromContext(ctx).Error("auth initialization error", "err", err)
		s.update(func(st *domain.AuthState) {
			st.IsAuthenticated = false
			st.User = nil
			st.Error = InitFailedMessage
		})
		return false
	}

	user := authenticatedUser(status)
	s.update(func(st *domain.AuthState) {
		st.IsAuthenticated = user != nil
		st.User = user
	})
	return user != nil
}

// Login leaves the portal for the API's login page.
func (s *AuthStore) Login() {
	s.nav.Navigate(s.urls.LoginURL(""))
}

// Logout leaves the portal for the API's logout page.
func (s *AuthStore) Logout() {
	s.nav.Navigate(s.urls.LogoutURL())
}

// ClearAuth forgets the viewer locally. Loading is untouched and the API is
// not contacted.
func (s *AuthStore) ClearAuth() {
	s.update(func(st *domain.AuthState) {
		st.User = nil
		st.IsAuthenticated = false
		st.Error = ""
	})
}

// HasRole reports whether the viewer's role is exactly role.
func (s *AuthStore) HasRole(role string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User != nil && s.state.User.Role == role
}

// State returns a snapshot; mutating it does not affect the store.
func (s *AuthStore) State() domain.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive a snapshot after every change. Calls are
// synchronous, in registration order. The returned func unsubscribes.
func (s *AuthStore) Subscribe(fn func(domain.AuthState)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// update applies fn under the lock and publishes the result outside it.
func (s *AuthStore) update(fn func(st *domain.AuthState)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot.Clone())
	}
}
