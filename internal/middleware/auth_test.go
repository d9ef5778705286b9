package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightevents/bright-events/internal/auth"
	"github.com/brightevents/bright-events/internal/model"
)

const guardSecret = "guard-test-secret"

type fakeUsers struct{ byID map[uint64]model.User }

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

type fakeLedger struct{ revoked map[string]bool }

func (f *fakeLedger) IsRevoked(_ context.Context, digest string) (bool, error) {
	return f.revoked[digest], nil
}

func newGuardFixture() (echo.MiddlewareFunc, *fakeUsers, *fakeLedger) {
	users := &fakeUsers{byID: map[uint64]model.User{
		1: {ID: 1, Username: "alice", Email: "alice@x.com"},
	}}
	ledger := &fakeLedger{revoked: map[string]bool{}}
	return SessionGuard(guardSecret, users, ledger), users, ledger
}

// run sends one request through the guard with an admitted next handler
// that echoes the context identity.
func run(t *testing.T, guard echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get(CtxUserID),
			"email":   c.Get(CtxUserEmail),
		})
	}
	require.NoError(t, guard(next)(c))
	return rec
}

func TestGuardMissingToken(t *testing.T) {
	guard, _, _ := newGuardFixture()

	rec := run(t, guard, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token is missing")

	// A header without the Bearer scheme counts as missing too.
	rec = run(t, guard, "some-raw-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token is missing")
}

func TestGuardMalformedToken(t *testing.T) {
	guard, _, _ := newGuardFixture()

	rec := run(t, guard, "Bearer garbage.token.here")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token is invalid")
}

func TestGuardExpiredToken(t *testing.T) {
	guard, _, _ := newGuardFixture()

	expired, err := auth.NewSessionToken(guardSecret, 1, -1)
	require.NoError(t, err)

	rec := run(t, guard, "Bearer "+expired.Value)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token is invalid")
}

func TestGuardRejectsResetToken(t *testing.T) {
	guard, _, _ := newGuardFixture()

	// Reset tokens carry a different purpose claim and must never be
	// admitted as sessions, even while still fresh.
	reset, err := auth.NewResetToken(guardSecret, 1, 60)
	require.NoError(t, err)

	rec := run(t, guard, "Bearer "+reset.Value)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token is invalid")
}

func TestGuardRevokedToken(t *testing.T) {
	guard, _, ledger := newGuardFixture()

	tok, err := auth.NewSessionToken(guardSecret, 1, 7)
	require.NoError(t, err)
	ledger.revoked[auth.Digest(tok.Value)] = true

	rec := run(t, guard, "Bearer "+tok.Value)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "logged out")
}

func TestGuardUnresolvableSubject(t *testing.T) {
	guard, _, _ := newGuardFixture()

	// Token signed for an account that no longer exists.
	tok, err := auth.NewSessionToken(guardSecret, 999, 7)
	require.NoError(t, err)

	rec := run(t, guard, "Bearer "+tok.Value)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token is invalid")
}

func TestGuardAdmitsValidToken(t *testing.T) {
	guard, _, _ := newGuardFixture()

	tok, err := auth.NewSessionToken(guardSecret, 1, 7)
	require.NoError(t, err)

	rec := run(t, guard, "Bearer "+tok.Value)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":1`)
	assert.Contains(t, rec.Body.String(), "alice@x.com")
}
