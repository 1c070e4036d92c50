// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/getpinion/pinion-server/auth"
	"github.com/getpinion/pinion-server/cliparse"
	"github.com/getpinion/pinion-server/db"
	"github.com/getpinion/pinion-server/idgen"
	"github.com/getpinion/pinion-server/middleware"
	"github.com/getpinion/pinion-server/models"
	"github.com/getpinion/pinion-server/sms"
)

type AccountHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	gen    *idgen.Generator
	sender sms.Sender
}

func NewAccountHandler(conn *sql.DB, cfg cliparse.Config, gen *idgen.Generator, sender sms.Sender) *AccountHandler {
	return &AccountHandler{db: conn, cfg: cfg, gen: gen, sender: sender}
}

// nextID draws a fresh ID from the shared generator, writing a 500 on
// failure.
func nextID(w http.ResponseWriter, gen *idgen.Generator) (models.ID, bool) {
	id, err := gen.NextID()
	if err != nil {
		slog.Error("failed to generate ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to generate ID")
		return 0, false
	}
	return models.ID(id), true
}

// Signup handles POST /auth/signup
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Handle == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "handle is required")
		return
	}
	if req.PhoneNumber == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	// A verified phone belongs to exactly one account.
	var existing int
	err := h.db.QueryRow(`
		SELECT COUNT(*) FROM phones
		WHERE number = $1 AND verified IS NOT NULL AND deleted IS FALSE
	`, req.PhoneNumber).Scan(&existing)
	if err != nil {
		slog.Error("failed to check phone", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if existing > 0 {
		middleware.ErrorResponseKey(w, http.StatusConflict, "Phone number already registered", "UNAVAILABLE_PHONE")
		return
	}

	now := time.Now().UTC()

	userID, ok := nextID(w, h.gen)
	if !ok {
		return
	}
	_, err = h.db.Exec(`
		INSERT INTO users (id, handle, created, modified)
		VALUES ($1, $2, $3, $4)
	`, userID, req.Handle, now, now)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponseKey(w, http.StatusConflict, "Handle is taken", "UNAVAILABLE_HANDLE")
		return
	}
	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	phoneID, ok := nextID(w, h.gen)
	if !ok {
		return
	}
	_, err = h.db.Exec(`
		INSERT INTO phones (id, user_id, number, created, modified)
		VALUES ($1, $2, $3, $4, $5)
	`, phoneID, userID, req.PhoneNumber, now, now)
	if err != nil {
		slog.Error("failed to insert phone", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	var name *string
	if req.Name != "" {
		profileID, ok := nextID(w, h.gen)
		if !ok {
			return
		}
		_, err = h.db.Exec(`
			INSERT INTO profiles (id, user_id, name, created, modified)
			VALUES ($1, $2, $3, $4, $5)
		`, profileID, userID, req.Name, now, now)
		if err != nil {
			slog.Error("failed to insert profile", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create account")
			return
		}
		name = &req.Name
	}

	if err := h.sendCode(r, userID, phoneID, req.PhoneNumber); err != nil {
		slog.Error("failed to send verification code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to send verification code")
		return
	}

	token, ok := h.issueToken(w, userID)
	if !ok {
		return
	}

	slog.Info("user signed up", "user_id", userID, "handle", req.Handle)

	middleware.JSONResponse(w, http.StatusCreated, models.LoginSuccess{
		AuthToken: token,
		User: models.User{
			ID:          userID,
			Handle:      req.Handle,
			Name:        name,
			PhoneNumber: req.PhoneNumber,
			Created:     now,
			Modified:    now,
		},
	})
}

// Login handles POST /auth/login
//
// Phone-first login: unknown numbers get a fresh account with a UUID
// placeholder handle. The response is the same either way, so the
// endpoint does not leak which numbers are registered.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PhoneNumber == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	var userID, phoneID models.ID
	err := h.db.QueryRow(`
		SELECT user_id, id FROM phones
		WHERE number = $1 AND verified IS NOT NULL AND deleted IS FALSE
	`, req.PhoneNumber).Scan(&userID, &phoneID)

	if err == sql.ErrNoRows {
		// Unknown number: create the account now, handle comes later.
		now := time.Now().UTC()

		var ok bool
		userID, ok = nextID(w, h.gen)
		if !ok {
			return
		}
		_, err = h.db.Exec(`
			INSERT INTO users (id, handle, created, modified)
			VALUES ($1, $2, $3, $4)
		`, userID, uuid.NewString(), now, now)
		if err != nil {
			slog.Error("failed to insert user", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
			return
		}

		phoneID, ok = nextID(w, h.gen)
		if !ok {
			return
		}
		_, err = h.db.Exec(`
			INSERT INTO phones (id, user_id, number, created, modified)
			VALUES ($1, $2, $3, $4, $5)
		`, phoneID, userID, req.PhoneNumber, now, now)
		if err != nil {
			slog.Error("failed to insert phone", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
			return
		}
	} else if err != nil {
		slog.Error("failed to query phone", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := h.sendCode(r, userID, phoneID, req.PhoneNumber); err != nil {
		slog.Error("failed to send verification code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to send verification code")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{Sent: true})
}

// Confirm handles POST /auth/confirm
//
// Completes a login started with POST /auth/login by checking the SMS
// code, marking the phone verified, and issuing an auth token.
func (h *AccountHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PhoneNumber == "" || req.Code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "phone_number and code are required")
		return
	}

	// Most recent live phone row for the number, verified or not.
	var userID, phoneID models.ID
	err := h.db.QueryRow(`
		SELECT user_id, id FROM phones
		WHERE number = $1 AND deleted IS FALSE
		ORDER BY created DESC
		LIMIT 1
	`, req.PhoneNumber).Scan(&userID, &phoneID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponseKey(w, http.StatusUnauthorized, "Invalid code", "INVALID_CODE")
		return
	}
	if err != nil {
		slog.Error("failed to query phone", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !h.checkCode(w, userID, phoneID, req.Code) {
		return
	}

	now := time.Now().UTC()
	_, err = h.db.Exec(`
		UPDATE phones SET verified = $1, modified = $2
		WHERE id = $3 AND verified IS NULL
	`, now, now, phoneID)
	if db.IsUniqueViolation(err) {
		// Another account verified this number first.
		middleware.ErrorResponseKey(w, http.StatusConflict, "Phone number already registered", "UNAVAILABLE_PHONE")
		return
	}
	if err != nil {
		slog.Error("failed to mark phone verified", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	token, ok := h.issueToken(w, userID)
	if !ok {
		return
	}

	user, err := h.loadUser(userID)
	if err != nil {
		slog.Error("failed to load user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("user logged in", "user_id", userID)

	middleware.JSONResponse(w, http.StatusOK, models.LoginSuccess{
		AuthToken: token,
		User:      user,
	})
}

// Verify handles POST /auth/verify (authed, unverified allowed)
//
// Verifies the phone of an already-authenticated session, which is the
// tail of the signup flow.
func (h *AccountHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	var req models.VerifyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "code is required")
		return
	}

	var phoneID models.ID
	err := h.db.QueryRow(`
		SELECT id FROM phones
		WHERE user_id = $1 AND deleted IS FALSE
		ORDER BY created DESC
		LIMIT 1
	`, user.ID).Scan(&phoneID)
	if err != nil {
		slog.Error("failed to query phone", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !h.checkCode(w, user.ID, phoneID, req.Code) {
		return
	}

	now := time.Now().UTC()
	_, err = h.db.Exec(`
		UPDATE phones SET verified = $1, modified = $2
		WHERE id = $3 AND verified IS NULL
	`, now, now, phoneID)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponseKey(w, http.StatusConflict, "Phone number already registered", "UNAVAILABLE_PHONE")
		return
	}
	if err != nil {
		slog.Error("failed to mark phone verified", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("phone verified", "user_id", user.ID)

	loaded, err := h.loadUser(user.ID)
	if err != nil {
		slog.Error("failed to load user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, loaded)
}

// Resend handles POST /auth/resend (authed, unverified allowed)
func (h *AccountHandler) Resend(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	var phoneID models.ID
	var number string
	var sent *time.Time
	err := h.db.QueryRow(`
		SELECT id, number, verification_sent FROM phones
		WHERE user_id = $1 AND deleted IS FALSE
		ORDER BY created DESC
		LIMIT 1
	`, user.ID).Scan(&phoneID, &number, &sent)
	if err != nil {
		slog.Error("failed to query phone", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now().UTC()

	// Two throttles: a short gap between sends and a per-minute cap.
	if sent != nil && now.Sub(*sent) < 5*time.Second {
		middleware.ErrorResponseKey(w, http.StatusTooManyRequests, "Wait before requesting another code", "RATE_LIMITED")
		return
	}
	var recent int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM verification_codes
		WHERE user_id = $1 AND created > $2
	`, user.ID, now.Add(-time.Minute)).Scan(&recent)
	if err != nil {
		slog.Error("failed to count codes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if recent >= 5 {
		middleware.ErrorResponseKey(w, http.StatusTooManyRequests, "Too many codes requested", "RATE_LIMITED")
		return
	}

	if err := h.sendCode(r, user.ID, phoneID, number); err != nil {
		slog.Error("failed to send verification code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to send verification code")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{Sent: true})
}

// Logout handles POST /auth/logout (authed)
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	hash := auth.HashToken(r.Header.Get(middleware.AuthHeader), h.cfg.SigningKey)
	_, err := h.db.Exec(`
		UPDATE auth_tokens SET deleted = TRUE, modified = $1
		WHERE hash = $2 AND deleted IS FALSE
	`, time.Now().UTC(), hash)
	if err != nil {
		slog.Error("failed to delete auth token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("user logged out", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount handles DELETE /account (authed)
//
// Destructive, so it demands a fresh SMS code like the login flow.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	var req models.DeleteAccountRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "code is required")
		return
	}

	var phoneID models.ID
	err := h.db.QueryRow(`
		SELECT id FROM phones
		WHERE user_id = $1 AND deleted IS FALSE
		ORDER BY created DESC
		LIMIT 1
	`, user.ID).Scan(&phoneID)
	if err != nil {
		slog.Error("failed to query phone", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !h.checkCode(w, user.ID, phoneID, req.Code) {
		return
	}

	now := time.Now().UTC()
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`UPDATE users SET deleted = TRUE, modified = $1 WHERE id = $2`,
		`UPDATE phones SET deleted = TRUE, modified = $1 WHERE user_id = $2`,
		`UPDATE profiles SET deleted = TRUE, modified = $1 WHERE user_id = $2`,
		`UPDATE auth_tokens SET deleted = TRUE, modified = $1 WHERE user_id = $2`,
	} {
		if _, err := tx.Exec(stmt, now, user.ID); err != nil {
			slog.Error("failed to delete account", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete account")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	slog.Info("account deleted", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /me (authed)
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)
	middleware.JSONResponse(w, http.StatusOK, user)
}

// SetHandle handles PUT /me/handle (authed)
func (h *AccountHandler) SetHandle(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	var req models.SetHandleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Handle == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "handle is required")
		return
	}

	_, err := h.db.Exec(`
		UPDATE users SET handle = $1, modified = $2
		WHERE id = $3
	`, req.Handle, time.Now().UTC(), user.ID)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponseKey(w, http.StatusConflict, "Handle is taken", "UNAVAILABLE_HANDLE")
		return
	}
	if err != nil {
		slog.Error("failed to update handle", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("handle updated", "user_id", user.ID, "handle", req.Handle)

	loaded, err := h.loadUser(user.ID)
	if err != nil {
		slog.Error("failed to load user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, loaded)
}

// SetProfile handles PUT /me/profile (authed)
func (h *AccountHandler) SetProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	var req models.SetProfileRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	now := time.Now().UTC()

	// Profiles are versioned through soft delete: retire the live row
	// and insert a new one.
	_, err := h.db.Exec(`
		UPDATE profiles SET deleted = TRUE, modified = $1
		WHERE user_id = $2 AND deleted IS FALSE
	`, now, user.ID)
	if err != nil {
		slog.Error("failed to retire profile", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	profileID, ok := nextID(w, h.gen)
	if !ok {
		return
	}
	_, err = h.db.Exec(`
		INSERT INTO profiles (id, user_id, name, created, modified)
		VALUES ($1, $2, $3, $4, $5)
	`, profileID, user.ID, req.Name, now, now)
	if err != nil {
		slog.Error("failed to insert profile", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	loaded, err := h.loadUser(user.ID)
	if err != nil {
		slog.Error("failed to load user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, loaded)
}

// CheckPhones handles POST /phones/check (authed, verified)
//
// The contact-matching endpoint: reports which of the submitted
// numbers belong to registered users.
func (h *AccountHandler) CheckPhones(w http.ResponseWriter, r *http.Request) {
	var req models.CheckPhonesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	checks := make([]models.PhoneCheck, 0, len(req.PhoneNumbers))
	for _, number := range req.PhoneNumbers {
		var count int
		err := h.db.QueryRow(`
			SELECT COUNT(*) FROM phones
			WHERE number = $1 AND verified IS NOT NULL AND deleted IS FALSE
		`, number).Scan(&count)
		if err != nil {
			slog.Error("failed to check phone", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		checks = append(checks, models.PhoneCheck{Number: number, SignedUp: count > 0})
	}

	middleware.JSONResponse(w, http.StatusOK, checks)
}

// sendCode creates a verification code, stores its salted hash, and
// delivers it. Delivery outside ALLOWED_PHONE_NUMBERS is logged
// instead of sent, so dev numbers never hit Twilio.
func (h *AccountHandler) sendCode(r *http.Request, userID, phoneID models.ID, number string) error {
	code, err := auth.NewVerificationCode()
	if err != nil {
		return err
	}
	salt, err := auth.NewCodeSalt()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	codeID, err := h.gen.NextID()
	if err != nil {
		return err
	}
	_, err = h.db.Exec(`
		INSERT INTO verification_codes (id, user_id, salt, hash, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, models.ID(codeID), userID, hex.EncodeToString(salt), hex.EncodeToString(auth.HashCode(code, salt)), now, now)
	if err != nil {
		return err
	}

	_, err = h.db.Exec(`
		UPDATE phones SET verification_sent = $1, modified = $2
		WHERE id = $3
	`, now, now, phoneID)
	if err != nil {
		return err
	}

	sender := h.sender
	if !h.allowedNumber(number) {
		sender = sms.LogSender{}
	}
	return sender.Send(r.Context(), number, "Your Pinion verification code is "+code)
}

func (h *AccountHandler) allowedNumber(number string) bool {
	if len(h.cfg.AllowedPhoneNumbers) == 0 {
		return true
	}
	for _, n := range h.cfg.AllowedPhoneNumbers {
		if n == number {
			return true
		}
	}
	return false
}

// checkCode verifies a submitted SMS code against the newest live code
// for the user. On failure it writes the error response and bumps the
// phone's attempt counter.
func (h *AccountHandler) checkCode(w http.ResponseWriter, userID, phoneID models.ID, code string) bool {
	var codeID models.ID
	var saltHex, hashHex string
	var created time.Time
	err := h.db.QueryRow(`
		SELECT id, salt, hash, created FROM verification_codes
		WHERE user_id = $1 AND deleted IS FALSE
		ORDER BY created DESC
		LIMIT 1
	`, userID).Scan(&codeID, &saltHex, &hashHex, &created)
	if err == sql.ErrNoRows {
		middleware.ErrorResponseKey(w, http.StatusUnauthorized, "Invalid code", "INVALID_CODE")
		return false
	}
	if err != nil {
		slog.Error("failed to query verification code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}

	now := time.Now().UTC()
	expired := now.Sub(created) > time.Duration(h.cfg.CodeExpirationSeconds)*time.Second

	if expired || !auth.VerifyCode(code, saltHex, hashHex) {
		_, err := h.db.Exec(`
			UPDATE phones SET verification_attempts = verification_attempts + 1, modified = $1
			WHERE id = $2
		`, now, phoneID)
		if err != nil {
			slog.Error("failed to bump verification attempts", "error", err)
		}
		if expired {
			middleware.ErrorResponseKey(w, http.StatusUnauthorized, "Code expired", "EXPIRED_CODE")
		} else {
			middleware.ErrorResponseKey(w, http.StatusUnauthorized, "Invalid code", "INVALID_CODE")
		}
		return false
	}

	// One use per code.
	_, err = h.db.Exec(`
		UPDATE verification_codes SET deleted = TRUE, modified = $1
		WHERE user_id = $2 AND deleted IS FALSE
	`, now, userID)
	if err != nil {
		slog.Error("failed to retire verification codes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}

	return true
}

// issueToken creates and stores a new auth token for a user, returning
// the clear token for the client.
func (h *AccountHandler) issueToken(w http.ResponseWriter, userID models.ID) (string, bool) {
	token, err := auth.GenerateToken()
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return "", false
	}

	now := time.Now().UTC()
	expires := now.Add(time.Duration(h.cfg.AuthExpirationSeconds) * time.Second)

	tokenID, ok := nextID(w, h.gen)
	if !ok {
		return "", false
	}
	_, err = h.db.Exec(`
		INSERT INTO auth_tokens (id, user_id, hash, expires, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, tokenID, userID, auth.HashToken(token, h.cfg.SigningKey), expires, now, now)
	if err != nil {
		slog.Error("failed to insert auth token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return "", false
	}

	return token, true
}

// loadUser assembles the full user record handlers return to clients.
func (h *AccountHandler) loadUser(userID models.ID) (models.User, error) {
	var user models.User
	err := h.db.QueryRow(`
		SELECT u.id, u.handle, u.created, u.modified,
		       p.number, p.verified,
		       pr.name
		FROM users u
		INNER JOIN phones p ON p.user_id = u.id AND p.deleted IS FALSE
		LEFT OUTER JOIN profiles pr ON pr.user_id = u.id AND pr.deleted IS FALSE
		WHERE u.id = $1 AND u.deleted IS FALSE
	`, userID).Scan(
		&user.ID, &user.Handle, &user.Created, &user.Modified,
		&user.PhoneNumber, &user.PhoneVerified,
		&user.Name,
	)
	if err != nil {
		return models.User{}, err
	}
	user.NeedsHandle = models.IsPlaceholderHandle(user.Handle)
	return user, nil
}
