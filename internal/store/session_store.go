package store

import (
	"context"
	"sync"
	"time"

	"datagpt-client/internal/entity"
	"datagpt-client/internal/gateway"
	"datagpt-client/internal/pkg/logger"
	"datagpt-client/internal/pkg/validate"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
)

const (
	// Background revalidation cadence while authenticated.
	subscriptionPollInterval = 5 * time.Minute

	// Bursts of gated actions within this window reuse the last check result
	// instead of hammering the subscription endpoint.
	subscriptionCacheTTL = 30 * time.Second

	subscriptionCacheKey = "subscription"
)

// SessionStore holds identity, bearer credential and subscription validity,
// revalidates the subscription on an interval, and gates feature access.
type SessionStore struct {
	notifier

	gw  *gateway.Client
	log logger.ILogger

	mu       sync.Mutex
	session  entity.Session
	stopPoll chan struct{}

	subCache *cache.Cache
}

func NewSessionStore(gw *gateway.Client, log logger.ILogger) *SessionStore {
	return &SessionStore{
		gw:       gw,
		log:      log,
		subCache: cache.New(subscriptionCacheTTL, time.Minute),
	}
}

// Snapshot returns a copy of the current session state.
func (s *SessionStore) Snapshot() entity.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.session
	if s.session.User != nil {
		u := *s.session.User
		snap.User = &u
	}
	if s.session.SubscriptionExpiry != nil {
		t := *s.session.SubscriptionExpiry
		snap.SubscriptionExpiry = &t
	}
	return snap
}

// SignIn authenticates against the backend. Subscription validity requires
// both the server's validity flag and an expiry strictly in the future.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) error {
	req := struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required"`
	}{Email: email, Password: password}
	if err := validate.Request(req); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	s.mu.Lock()
	s.session.Loading = true
	s.mu.Unlock()
	s.publish()

	resp, err := s.gw.SignIn(ctx, email, password)
	if err != nil {
		s.mu.Lock()
		s.session.Loading = false
		s.mu.Unlock()
		s.publish()
		s.log.Error("session", "sign in failed", map[string]interface{}{"email": email, "error": err.Error()})
		return err
	}

	expiry := s.resolveExpiry(resp.ExpiryDate, resp.Token)
	now := time.Now()

	s.mu.Lock()
	s.session = entity.Session{
		User:               &entity.User{Id: resp.User.Id, Email: resp.User.Email, Name: resp.User.Name},
		Token:              resp.Token,
		SubscriptionValid:  resp.IsAppValid && expiry != nil && expiry.After(now),
		SubscriptionExpiry: expiry,
		Loading:            false,
	}
	if s.stopPoll == nil {
		s.stopPoll = make(chan struct{})
		go s.pollSubscription(s.stopPoll)
	}
	s.mu.Unlock()
	s.publish()

	s.log.Info("session", "signed in", map[string]interface{}{"user_id": resp.User.Id})
	return nil
}

// SignOut clears all session fields synchronously and cancels the
// revalidation timer so no invocation leaks past the session's end.
func (s *SessionStore) SignOut() {
	s.mu.Lock()
	s.session = entity.Session{}
	if s.stopPoll != nil {
		close(s.stopPoll)
		s.stopPoll = nil
	}
	s.mu.Unlock()
	s.subCache.Flush()
	s.publish()
}

// Close tears the store down. Like SignOut but without touching the session
// snapshot, so a late caller still sees consistent state.
func (s *SessionStore) Close() {
	s.mu.Lock()
	if s.stopPoll != nil {
		close(s.stopPoll)
		s.stopPoll = nil
	}
	s.mu.Unlock()
}

// CheckSubscription revalidates the entitlement window. No-op without a
// token. Any failure is fail-closed: validity is forced false and the expiry
// cleared. Poll failures are logged only; surfacing each one would be noise.
func (s *SessionStore) CheckSubscription(ctx context.Context) {
	s.mu.Lock()
	token := s.session.Token
	s.mu.Unlock()
	if token == "" {
		return
	}

	if _, fresh := s.subCache.Get(subscriptionCacheKey); fresh {
		return
	}

	resp, err := s.gw.CheckSubscription(ctx, token)
	if err != nil {
		s.mu.Lock()
		s.session.SubscriptionValid = false
		s.session.SubscriptionExpiry = nil
		s.mu.Unlock()
		s.publish()
		s.log.Warn("session", "subscription check failed, failing closed", map[string]interface{}{"error": err.Error()})
		return
	}

	expiry := s.resolveExpiry(resp.ExpiryDate, token)
	now := time.Now()

	s.mu.Lock()
	s.session.SubscriptionValid = resp.IsAppValid && expiry != nil && expiry.After(now)
	s.session.SubscriptionExpiry = expiry
	s.mu.Unlock()
	s.subCache.Set(subscriptionCacheKey, resp, cache.DefaultExpiration)
	s.publish()
}

// Guard is the feature gate every mutating or chat action consults before
// touching the network. Returns a *SubscriptionRequired refusal, never a
// generic error, when the gate is closed.
func (s *SessionStore) Guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.SubscriptionValid {
		return nil
	}
	expired := s.session.SubscriptionExpiry == nil || !s.session.SubscriptionExpiry.After(time.Now())
	return &SubscriptionRequired{Expired: expired}
}

func (s *SessionStore) pollSubscription(stop chan struct{}) {
	ticker := time.NewTicker(subscriptionPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.CheckSubscription(context.Background())
		case <-stop:
			return
		}
	}
}

// resolveExpiry parses the server's expiry date, falling back to the bearer
// token's exp claim when the field is missing or unparseable. The claim is
// read unverified; the client never holds the signing secret.
func (s *SessionStore) resolveExpiry(expiryDate, token string) *time.Time {
	if expiryDate != "" {
		if t, err := time.Parse(time.RFC3339, expiryDate); err == nil {
			return &t
		}
		s.log.Warn("session", "unparseable expiry date", map[string]interface{}{"expiry_date": expiryDate})
	}

	if token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}
