// Package session owns the signed-in employer: the bearer token, the user
// record and the idle timeout. It is the only writer of that state and
// announces every change on its bus.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/ehanapbuhay/employer-panel/internal/domain"
	"github.com/ehanapbuhay/employer-panel/internal/events"
	"github.com/ehanapbuhay/employer-panel/internal/metrics"
)

const (
	DefaultIdleMinutes = 30
	MinIdleMinutes     = 5
	MaxIdleMinutes     = 120
)

var (
	ErrUnauthenticated = errors.New("not signed in")
	ErrNotEmployer     = errors.New("account is not an employer account")
	ErrTokenExpired    = errors.New("session token expired")
	ErrIdleTimeout     = errors.New("session timed out")
)

type ChangeKind int

const (
	SignedIn ChangeKind = iota
	SignedOut
	UserUpdated
	SettingsUpdated
)

type Change struct {
	Kind      ChangeKind
	SessionID string
	User      domain.User
}

type Service struct {
	store       Store
	changes     *events.Bus[Change]
	metrics     *metrics.Collector
	now         func() time.Time
	defaultIdle int
}

func NewService(store Store, m *metrics.Collector) *Service {
	return &Service{
		store:       store,
		changes:     events.NewBus[Change](),
		metrics:     m,
		now:         time.Now,
		defaultIdle: DefaultIdleMinutes,
	}
}

func (s *Service) SetDefaultIdle(minutes int) {
	s.defaultIdle = ClampIdleMinutes(minutes)
}

func (s *Service) Changes() *events.Bus[Change] { return s.changes }

// ClampIdleMinutes keeps a timeout within 5..120 minutes; 0 means default.
func ClampIdleMinutes(minutes int) int {
	switch {
	case minutes == 0:
		return DefaultIdleMinutes
	case minutes < MinIdleMinutes:
		return MinIdleMinutes
	case minutes > MaxIdleMinutes:
		return MaxIdleMinutes
	}
	return minutes
}

func (r Record) idle() time.Duration {
	return time.Duration(ClampIdleMinutes(r.IdleMinutes)) * time.Minute
}

// Begin opens a session for a login result. Only employer accounts get in.
func (s *Service) Begin(ctx context.Context, token string, user domain.User) (Record, error) {
	if !user.IsEmployer() {
		return Record{}, ErrNotEmployer
	}
	if tokenExpired(token, s.now()) {
		return Record{}, ErrTokenExpired
	}
	now := s.now()
	rec := Record{
		ID:          uuid.NewString(),
		Token:       token,
		CSRF:        uuid.NewString(),
		User:        user,
		IdleMinutes: s.defaultIdle,
		CreatedAt:   now,
		LastSeen:    now,
	}
	if err := s.store.Save(ctx, rec, rec.idle()); err != nil {
		return Record{}, fmt.Errorf("save session: %w", err)
	}
	s.metrics.SessionOpened()
	s.changes.Publish(Change{Kind: SignedIn, SessionID: rec.ID, User: user})
	return rec, nil
}

func (s *Service) End(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.metrics.SessionClosed()
	s.changes.Publish(Change{Kind: SignedOut, SessionID: id})
	return nil
}

// Guard loads the session behind id and checks it may still use the panel.
// Any failure wipes the stored record; the error always matches
// ErrUnauthenticated.
func (s *Service) Guard(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrUnauthenticated
	}
	var reason error
	rec, err := s.store.Update(ctx, id, func(r *Record) error {
		now := s.now()
		reason = nil
		switch {
		case !r.User.IsEmployer():
			reason = ErrNotEmployer
		case tokenExpired(r.Token, now):
			reason = ErrTokenExpired
		case now.Sub(r.LastSeen) > r.idle():
			reason = ErrIdleTimeout
		}
		if reason != nil {
			return reason
		}
		r.LastSeen = now
		return nil
	})
	switch {
	case errors.Is(err, ErrNotFound):
		return Record{}, ErrUnauthenticated
	case errors.Is(err, ErrCorruptSession):
		log.Printf("session %s unreadable, wiping: %v", id, err)
		s.wipe(ctx, id)
		return Record{}, errors.Join(ErrUnauthenticated, err)
	case reason != nil:
		s.wipe(ctx, id)
		return Record{}, errors.Join(ErrUnauthenticated, reason)
	case err != nil:
		return Record{}, fmt.Errorf("touch session: %w", err)
	}
	return rec, nil
}

func (s *Service) wipe(ctx context.Context, id string) {
	if err := s.store.Delete(ctx, id); err != nil {
		log.Printf("session %s wipe failed: %v", id, err)
		return
	}
	s.metrics.SessionClosed()
	s.changes.Publish(Change{Kind: SignedOut, SessionID: id})
}

func (s *Service) update(ctx context.Context, id string, kind ChangeKind, fn func(*Record)) (Record, error) {
	rec, err := s.store.Update(ctx, id, func(r *Record) error {
		fn(r)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, ErrUnauthenticated
		}
		return Record{}, fmt.Errorf("save session: %w", err)
	}
	if kind >= 0 {
		s.changes.Publish(Change{Kind: kind, SessionID: id, User: rec.User})
	}
	return rec, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, fn func(*domain.User)) (Record, error) {
	return s.update(ctx, id, UserUpdated, func(r *Record) { fn(&r.User) })
}

// SetIdleTimeout stores a clamped timeout and returns the value applied.
func (s *Service) SetIdleTimeout(ctx context.Context, id string, minutes int) (int, error) {
	applied := ClampIdleMinutes(minutes)
	_, err := s.update(ctx, id, SettingsUpdated, func(r *Record) { r.IdleMinutes = applied })
	return applied, err
}

func (s *Service) SetFlash(ctx context.Context, id string, f Flash) error {
	_, err := s.update(ctx, id, -1, func(r *Record) { r.Flash = &f })
	return err
}

// TakeFlash returns and clears the pending flash.
func (s *Service) TakeFlash(ctx context.Context, id string) (Flash, bool) {
	var taken *Flash
	_, err := s.update(ctx, id, -1, func(r *Record) {
		taken = r.Flash
		r.Flash = nil
	})
	if err != nil || taken == nil {
		return Flash{}, false
	}
	return *taken, true
}

// Follow keeps cached avatars and names in step with profile edits.
func (s *Service) Follow(bus *events.Bus[events.ProfileChanged]) (unsubscribe func()) {
	return bus.Subscribe(func(e events.ProfileChanged) {
		if e.SessionID == "" {
			return
		}
		_, err := s.UpdateUser(context.Background(), e.SessionID, func(u *domain.User) {
			if e.FullName != "" {
				u.FullName = e.FullName
			}
			if e.AvatarURL != "" {
				u.AvatarURL = e.AvatarURL
			}
		})
		if err != nil {
			log.Printf("session %s profile refresh failed: %v", e.SessionID, err)
		}
	})
}

// tokenExpired reads the exp claim without verifying the signature; the
// server checks signatures. Opaque tokens never expire here.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return false
	}
	return now.Unix() > int64(exp)
}
