// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getpinion/pinion-server/auth"
	"github.com/getpinion/pinion-server/cliparse"
	"github.com/getpinion/pinion-server/db"
	"github.com/getpinion/pinion-server/idgen"
	"github.com/getpinion/pinion-server/models"
)

// gen issues IDs for seeded rows. Tests share one generator the same
// way the server does.
var gen = idgen.New()

// NewID returns a fresh ID for hand-rolled test rows.
func NewID(t *testing.T) models.ID {
	t.Helper()
	id, err := gen.NextID()
	if err != nil {
		t.Fatalf("Failed to generate ID: %v", err)
	}
	return models.ID(id)
}

// SetupTestDB opens an in-memory SQLite database with the full schema.
// Each call returns an isolated database, so tests never share state.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                  3003,
		DatabaseType:          "sqlite",
		DatabaseURL:           ":memory:",
		SigningKey:            "test-signing-key",
		AdminKey:              "test-admin-key",
		AuthExpirationSeconds: 2592000,
		CodeExpirationSeconds: 120,
	}
}

// CreateTestUser inserts a user with a phone number. When verified is
// true the phone carries a verification timestamp, which is what the
// verified-only guards check.
func CreateTestUser(t *testing.T, conn *sql.DB, handle, phone string, verified bool) models.ID {
	t.Helper()

	now := time.Now().UTC()
	userID := NewID(t)
	_, err := conn.Exec(`
		INSERT INTO users (id, handle, created, modified)
		VALUES ($1, $2, $3, $4)
	`, userID, handle, now, now)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	var verifiedAt *time.Time
	if verified {
		verifiedAt = &now
	}
	phoneID := NewID(t)
	_, err = conn.Exec(`
		INSERT INTO phones (id, user_id, number, verified, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, phoneID, userID, phone, verifiedAt, now, now)
	if err != nil {
		t.Fatalf("Failed to create test phone: %v", err)
	}

	return userID
}

// SetTestProfile attaches a profile name to a user.
func SetTestProfile(t *testing.T, conn *sql.DB, userID models.ID, name string) {
	t.Helper()

	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO profiles (id, user_id, name, created, modified)
		VALUES ($1, $2, $3, $4, $5)
	`, NewID(t), userID, name, now, now)
	if err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}
}

// CreateAuthToken issues a login session for a user and returns the
// raw token to pass in the X-Pinion-Auth header.
func CreateAuthToken(t *testing.T, conn *sql.DB, cfg cliparse.Config, userID models.ID) string {
	t.Helper()

	token, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	now := time.Now().UTC()
	expires := now.Add(time.Duration(cfg.AuthExpirationSeconds) * time.Second)
	_, err = conn.Exec(`
		INSERT INTO auth_tokens (id, user_id, hash, expires, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, NewID(t), userID, auth.HashToken(token, cfg.SigningKey), expires, now, now)
	if err != nil {
		t.Fatalf("Failed to create auth token: %v", err)
	}

	return token
}

// CreateVerificationCode stores the salted hash of a known code for a
// user, as if it had just been sent by SMS.
func CreateVerificationCode(t *testing.T, conn *sql.DB, userID models.ID, code string) {
	t.Helper()

	salt, err := auth.NewCodeSalt()
	if err != nil {
		t.Fatalf("Failed to generate salt: %v", err)
	}

	now := time.Now().UTC()
	_, err = conn.Exec(`
		INSERT INTO verification_codes (id, user_id, salt, hash, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, NewID(t), userID, hex.EncodeToString(salt), hex.EncodeToString(auth.HashCode(code, salt)), now, now)
	if err != nil {
		t.Fatalf("Failed to create verification code: %v", err)
	}
}

// CreateTestFriendship links two users. When accepted is true the
// relationship counts as an established friendship.
func CreateTestFriendship(t *testing.T, conn *sql.DB, requestorID, acceptorID models.ID, accepted bool) models.ID {
	t.Helper()

	now := time.Now().UTC()
	var acceptedAt *time.Time
	if accepted {
		acceptedAt = &now
	}
	id := NewID(t)
	_, err := conn.Exec(`
		INSERT INTO friends (id, requestor_id, acceptor_id, accepted, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, requestorID, acceptorID, acceptedAt, now, now)
	if err != nil {
		t.Fatalf("Failed to create test friendship: %v", err)
	}

	return id
}

// CreateTestQuestion inserts a multi-choice question with the given
// option values. used controls whether it has already been served as a
// question of the day.
func CreateTestQuestion(t *testing.T, conn *sql.DB, prompt string, options []string, used bool) (models.ID, []models.ID) {
	t.Helper()

	now := time.Now().UTC()
	var usedAt *time.Time
	if used {
		usedAt = &now
	}
	questionID := NewID(t)
	_, err := conn.Exec(`
		INSERT INTO questions (id, kind, prompt, used, priority, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, questionID, models.KindMulti, prompt, usedAt, 0, now, now)
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	optionIDs := make([]models.ID, 0, len(options))
	for i, value := range options {
		optionID := NewID(t)
		_, err := conn.Exec(`
			INSERT INTO question_multi_options (id, question_id, rank, value, created, modified)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, optionID, questionID, i, value, now, now)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
		optionIDs = append(optionIDs, optionID)
	}

	return questionID, optionIDs
}

// CreateTestPinion records a user's answer to a question.
func CreateTestPinion(t *testing.T, conn *sql.DB, userID, questionID, optionID models.ID) models.ID {
	t.Helper()

	now := time.Now().UTC()
	id := NewID(t)
	_, err := conn.Exec(`
		INSERT INTO pinions (id, user_id, question_id, multi_selection, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, userID, questionID, optionID, now, now)
	if err != nil {
		t.Fatalf("Failed to create test pinion: %v", err)
	}

	return id
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
