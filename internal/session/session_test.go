package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core"
	"aurum/internal/ledger"
)

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := NewStore(DefaultConfig(), nil)

	a, created := s.Ledger("a")
	require.True(t, created)
	b, _ := s.Ledger("b")

	_, err := a.Add(core.NewAsset("Yacht", "Cars", 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 7, a.Len())
	assert.Equal(t, 6, b.Len())

	again, created := s.Ledger("a")
	assert.False(t, created)
	assert.Same(t, a, again)
	assert.Equal(t, 2, s.Count())
}

func TestStore_CustomLedgerFactory(t *testing.T) {
	s := NewStore(Config{}, func() *ledger.Ledger { return ledger.New(nil) })
	l, _ := s.Ledger("x")
	assert.Equal(t, 0, l.Len())
}

func TestStore_LookupAndEnd(t *testing.T) {
	s := NewStore(DefaultConfig(), nil)
	_, ok := s.Lookup("missing")
	assert.False(t, ok)

	s.Ledger("x")
	_, ok = s.Lookup("x")
	assert.True(t, ok)

	s.End("x")
	_, ok = s.Lookup("x")
	assert.False(t, ok)
}

func TestMiddleware_IssuesCookieAndReusesSession(t *testing.T) {
	s := NewStore(DefaultConfig(), nil)

	var seenID string
	var seenLedger *ledger.Ledger
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, l, ok := FromContext(r.Context())
		require.True(t, ok)
		seenID, seenLedger = id, l
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	_, err := uuid.Parse(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, cookies[0].Value, seenID)
	first := seenLedger

	// second request with the cookie lands on the same ledger, no new cookie
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Result().Cookies())
	assert.Same(t, first, seenLedger)
}

func TestMiddleware_RejectsMalformedCookie(t *testing.T) {
	s := NewStore(DefaultConfig(), nil)
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "../../etc/passwd"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "../../etc/passwd", cookies[0].Value)
}

func TestFromContext_Missing(t *testing.T) {
	_, _, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithLedger(context.Background(), "id", ledger.New(nil))
	id, l, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "id", id)
	assert.NotNil(t, l)
}
