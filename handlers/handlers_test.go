// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/getpinion/pinion-server/cliparse"
	"github.com/getpinion/pinion-server/idgen"
	"github.com/getpinion/pinion-server/middleware"
	"github.com/getpinion/pinion-server/models"
	"github.com/getpinion/pinion-server/testutil"
)

// testEnv bundles what every handler test needs: an isolated database,
// config, a generator, and the auth guard handlers run behind.
type testEnv struct {
	db    *sql.DB
	cfg   cliparse.Config
	gen   *idgen.Generator
	guard *middleware.Auth
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	return testEnv{
		db:    conn,
		cfg:   cfg,
		gen:   idgen.New(),
		guard: middleware.NewAuth(conn, cfg),
	}
}

// verifiedUser creates a verified user and returns their ID and a live
// auth token.
func (e testEnv) verifiedUser(t *testing.T, handle, phone string) (models.ID, string) {
	t.Helper()
	id := testutil.CreateTestUser(t, e.db, handle, phone, true)
	return id, testutil.CreateAuthToken(t, e.db, e.cfg, id)
}

// authHeaders builds the header map for an authenticated request.
func authHeaders(token string) map[string]string {
	return map[string]string{middleware.AuthHeader: token}
}

// verified wraps a handler the way the router does for endpoints that
// need a verified phone.
func (e testEnv) verified(h http.HandlerFunc) http.HandlerFunc {
	return e.guard.RequireVerified(h)
}

// loggedIn wraps a handler for endpoints that allow unverified users.
func (e testEnv) loggedIn(h http.HandlerFunc) http.HandlerFunc {
	return e.guard.RequireUser(h)
}
