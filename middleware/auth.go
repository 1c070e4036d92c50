// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/getpinion/pinion-server/auth"
	"github.com/getpinion/pinion-server/cliparse"
	"github.com/getpinion/pinion-server/models"
)

// AuthHeader carries the bearer token on every authenticated request.
const AuthHeader = "X-Pinion-Auth"

type contextKey string

const userKey contextKey = "pinion-user"

// Auth resolves bearer tokens to users and guards handlers.
type Auth struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAuth(db *sql.DB, cfg cliparse.Config) *Auth {
	return &Auth{db: db, cfg: cfg}
}

// UserFrom returns the authenticated user attached by RequireUser or
// RequireVerified. The bool is false on unauthenticated requests.
func UserFrom(r *http.Request) (models.User, bool) {
	u, ok := r.Context().Value(userKey).(models.User)
	return u, ok
}

// RequireUser admits any logged-in user, verified or not. Used by the
// verification endpoints themselves.
func (a *Auth) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := a.lookup(r)
		if !ok {
			ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

// RequireVerified admits only users with a verified phone number.
// Everything past the auth flow runs behind this.
func (a *Auth) RequireVerified(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := a.lookup(r)
		if !ok {
			ErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if user.PhoneVerified == nil {
			ErrorResponseKey(w, http.StatusUnauthorized, "Unverified", "UNVERIFIED")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

// lookup resolves the auth header to a live user. Tokens are stored
// hashed, so the header value is HMACed before the query.
func (a *Auth) lookup(r *http.Request) (models.User, bool) {
	token := r.Header.Get(AuthHeader)
	if token == "" {
		return models.User{}, false
	}
	hash := auth.HashToken(token, a.cfg.SigningKey)

	var user models.User
	err := a.db.QueryRow(`
		SELECT u.id, u.handle, u.created, u.modified,
		       p.number, p.verified,
		       pr.name
		FROM users u
		INNER JOIN auth_tokens at ON at.user_id = u.id
		INNER JOIN phones p ON p.user_id = u.id
		LEFT OUTER JOIN profiles pr ON pr.user_id = u.id AND pr.deleted IS FALSE
		WHERE at.hash = $1
		  AND at.deleted IS FALSE
		  AND at.expires > $2
		  AND u.deleted IS FALSE
		  AND p.deleted IS FALSE
	`, hash, time.Now().UTC()).Scan(
		&user.ID, &user.Handle, &user.Created, &user.Modified,
		&user.PhoneNumber, &user.PhoneVerified,
		&user.Name,
	)
	if err == sql.ErrNoRows {
		return models.User{}, false
	}
	if err != nil {
		slog.Error("failed to resolve auth token", "error", err)
		return models.User{}, false
	}

	user.NeedsHandle = models.IsPlaceholderHandle(user.Handle)
	return user, true
}
