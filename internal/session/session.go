// Package session gives every browser its own asset ledger.
//
// A session is identified by a random UUID carried in a cookie. Ledgers live
// in an idle-expiring LRU cache; nothing is shared between sessions and
// nothing outlives the process.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"aurum/internal/cache"
	"aurum/internal/ledger"
)

// CookieName is the cookie carrying the session id.
const CookieName = "aurum_session"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	ledgerKey    contextKey = "ledger"
)

// Config holds session store settings.
type Config struct {
	TTL         time.Duration
	MaxSessions int
	Secure      bool // mark the cookie Secure
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		TTL:         2 * time.Hour,
		MaxSessions: 1000,
	}
}

// Store maps session ids to ledgers.
type Store struct {
	ledgers *cache.LRUCache[*ledger.Ledger]
	cfg     Config
	newFn   func() *ledger.Ledger
}

// NewStore creates a store whose new sessions start from newLedger. A nil
// newLedger seeds sessions with the sample assets.
func NewStore(cfg Config, newLedger func() *ledger.Ledger) *Store {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if newLedger == nil {
		newLedger = ledger.NewSeeded
	}

	s := &Store{
		ledgers: cache.NewLRUCache[*ledger.Ledger](cfg.MaxSessions, cfg.TTL),
		cfg:     cfg,
		newFn:   newLedger,
	}
	s.ledgers.OnEvict(func(id string, _ *ledger.Ledger) {
		slog.Debug("Session expired", "session_id", id)
	})
	return s
}

// Ledger returns the ledger of session id, creating a fresh one when the id
// is unknown or expired. The second result reports a new session.
func (s *Store) Ledger(id string) (*ledger.Ledger, bool) {
	l, existed := s.ledgers.GetOrCreate(id, s.newFn)
	return l, !existed
}

// Lookup returns the ledger of a live session without creating one.
func (s *Store) Lookup(id string) (*ledger.Ledger, bool) {
	return s.ledgers.Get(id)
}

// End drops a session.
func (s *Store) End(id string) {
	s.ledgers.Delete(id)
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	return s.ledgers.Size()
}

// Cleaner exposes the backing cache for periodic cleanup.
func (s *Store) Cleaner() cache.Cleaner {
	return s.ledgers
}

// Middleware attaches the caller's session id and ledger to the request
// context, issuing a new session cookie when the request has no usable one.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(CookieName); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		l, created := s.Ledger(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			slog.InfoContext(r.Context(), "Session started", "session_id", id)
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, id)
		ctx = context.WithValue(ctx, ledgerKey, l)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session id and ledger placed by Middleware.
func FromContext(ctx context.Context) (string, *ledger.Ledger, bool) {
	l, ok := ctx.Value(ledgerKey).(*ledger.Ledger)
	if !ok || l == nil {
		return "", nil, false
	}
	id, _ := ctx.Value(sessionIDKey).(string)
	return id, l, true
}

// WithLedger returns a context carrying id and l, for callers outside the
// HTTP middleware chain.
func WithLedger(ctx context.Context, id string, l *ledger.Ledger) context.Context {
	ctx = context.WithValue(ctx, sessionIDKey, id)
	return context.WithValue(ctx, ledgerKey, l)
}
