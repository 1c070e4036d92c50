// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getpinion/pinion-server/models"
	"github.com/getpinion/pinion-server/sms"
	"github.com/getpinion/pinion-server/testutil"
)

func newAccountHandler(e testEnv) *AccountHandler {
	return NewAccountHandler(e.db, e.cfg, e.gen, sms.LogSender{})
}

func TestSignup(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	t.Run("valid signup", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/signup", models.SignupRequest{
			Handle:      "quinn",
			PhoneNumber: "+15550001111",
			Name:        "Quinn",
		}, nil)
		w := httptest.NewRecorder()
		h.Signup(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.LoginSuccess
		testutil.AssertJSON(t, w, &resp)
		if resp.AuthToken == "" {
			t.Error("Expected auth_token")
		}
		if resp.User.Handle != "quinn" {
			t.Errorf("Expected handle 'quinn', got '%s'", resp.User.Handle)
		}
		if resp.User.ID == 0 {
			t.Error("Expected generated user ID")
		}
		if resp.User.Name == nil || *resp.User.Name != "Quinn" {
			t.Error("Expected profile name 'Quinn'")
		}
		if resp.User.PhoneVerified != nil {
			t.Error("Expected unverified phone on signup")
		}

		// A verification code must be waiting
		var codes int
		if err := e.db.QueryRow(`SELECT COUNT(*) FROM verification_codes WHERE user_id = $1`, resp.User.ID).Scan(&codes); err != nil {
			t.Fatal(err)
		}
		if codes != 1 {
			t.Errorf("Expected 1 verification code, got %d", codes)
		}
	})

	t.Run("duplicate handle", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/signup", models.SignupRequest{
			Handle:      "quinn",
			PhoneNumber: "+15550002222",
		}, nil)
		w := httptest.NewRecorder()
		h.Signup(w, req)

		testutil.AssertStatus(t, w, http.StatusConflict)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Key != "UNAVAILABLE_HANDLE" {
			t.Errorf("Expected key UNAVAILABLE_HANDLE, got '%s'", resp.Key)
		}
	})

	t.Run("verified phone taken", func(t *testing.T) {
		testutil.CreateTestUser(t, e.db, "other", "+15550003333", true)

		req := testutil.MakeRequest("POST", "/auth/signup", models.SignupRequest{
			Handle:      "newcomer",
			PhoneNumber: "+15550003333",
		}, nil)
		w := httptest.NewRecorder()
		h.Signup(w, req)

		testutil.AssertStatus(t, w, http.StatusConflict)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Key != "UNAVAILABLE_PHONE" {
			t.Errorf("Expected key UNAVAILABLE_PHONE, got '%s'", resp.Key)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/signup", models.SignupRequest{Handle: "nobody"}, nil)
		w := httptest.NewRecorder()
		h.Signup(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	t.Run("unknown number creates placeholder account", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/login", models.LoginRequest{PhoneNumber: "+15550004444"}, nil)
		w := httptest.NewRecorder()
		h.Login(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.LoginResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Sent {
			t.Error("Expected sent true")
		}

		var handle string
		err := e.db.QueryRow(`
			SELECT u.handle FROM users u
			INNER JOIN phones p ON p.user_id = u.id
			WHERE p.number = $1
		`, "+15550004444").Scan(&handle)
		if err != nil {
			t.Fatalf("Expected account to exist: %v", err)
		}
		if !models.IsPlaceholderHandle(handle) {
			t.Errorf("Expected placeholder handle, got '%s'", handle)
		}
	})

	t.Run("known number reuses account", func(t *testing.T) {
		testutil.CreateTestUser(t, e.db, "known-user", "+15550005555", true)

		var before int
		if err := e.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&before); err != nil {
			t.Fatal(err)
		}

		req := testutil.MakeRequest("POST", "/auth/login", models.LoginRequest{PhoneNumber: "+15550005555"}, nil)
		w := httptest.NewRecorder()
		h.Login(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var after int
		if err := e.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&after); err != nil {
			t.Fatal(err)
		}
		if after != before {
			t.Errorf("Expected no new accounts, had %d now %d", before, after)
		}
	})

	t.Run("missing phone", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/login", models.LoginRequest{}, nil)
		w := httptest.NewRecorder()
		h.Login(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestConfirm(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	userID := testutil.CreateTestUser(t, e.db, "confirm-user", "+15550006666", false)
	testutil.CreateVerificationCode(t, e.db, userID, "123456")

	t.Run("wrong code", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/confirm", models.ConfirmRequest{
			PhoneNumber: "+15550006666",
			Code:        "000000",
		}, nil)
		w := httptest.NewRecorder()
		h.Confirm(w, req)

		testutil.AssertStatus(t, w, http.StatusUnauthorized)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Key != "INVALID_CODE" {
			t.Errorf("Expected key INVALID_CODE, got '%s'", resp.Key)
		}
	})

	t.Run("correct code verifies and logs in", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/confirm", models.ConfirmRequest{
			PhoneNumber: "+15550006666",
			Code:        "123456",
		}, nil)
		w := httptest.NewRecorder()
		h.Confirm(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.LoginSuccess
		testutil.AssertJSON(t, w, &resp)
		if resp.AuthToken == "" {
			t.Error("Expected auth_token")
		}
		if resp.User.PhoneVerified == nil {
			t.Error("Expected phone to be verified")
		}
	})

	t.Run("code is single use", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/confirm", models.ConfirmRequest{
			PhoneNumber: "+15550006666",
			Code:        "123456",
		}, nil)
		w := httptest.NewRecorder()
		h.Confirm(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}

func TestConfirm_ExpiredCode(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	userID := testutil.CreateTestUser(t, e.db, "expired-user", "+15550007777", false)
	testutil.CreateVerificationCode(t, e.db, userID, "123456")

	// Age the code past the expiration window
	old := time.Now().UTC().Add(-time.Duration(e.cfg.CodeExpirationSeconds+10) * time.Second)
	if _, err := e.db.Exec(`UPDATE verification_codes SET created = $1 WHERE user_id = $2`, old, userID); err != nil {
		t.Fatal(err)
	}

	req := testutil.MakeRequest("POST", "/auth/confirm", models.ConfirmRequest{
		PhoneNumber: "+15550007777",
		Code:        "123456",
	}, nil)
	w := httptest.NewRecorder()
	h.Confirm(w, req)

	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Key != "EXPIRED_CODE" {
		t.Errorf("Expected key EXPIRED_CODE, got '%s'", resp.Key)
	}
}

func TestVerify(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	userID := testutil.CreateTestUser(t, e.db, "verify-user", "+15550008888", false)
	token := testutil.CreateAuthToken(t, e.db, e.cfg, userID)
	testutil.CreateVerificationCode(t, e.db, userID, "654321")

	req := testutil.MakeRequest("POST", "/auth/verify", models.VerifyRequest{Code: "654321"}, authHeaders(token))
	w := httptest.NewRecorder()
	e.loggedIn(h.Verify)(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var user models.User
	testutil.AssertJSON(t, w, &user)
	if user.PhoneVerified == nil {
		t.Error("Expected phone to be verified")
	}
}

func TestResend_RateLimited(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	userID := testutil.CreateTestUser(t, e.db, "resend-user", "+15550009999", false)
	token := testutil.CreateAuthToken(t, e.db, e.cfg, userID)

	t.Run("first resend succeeds", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/resend", nil, authHeaders(token))
		w := httptest.NewRecorder()
		e.loggedIn(h.Resend)(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)
	})

	t.Run("immediate retry is throttled", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/auth/resend", nil, authHeaders(token))
		w := httptest.NewRecorder()
		e.loggedIn(h.Resend)(w, req)

		testutil.AssertStatus(t, w, http.StatusTooManyRequests)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Key != "RATE_LIMITED" {
			t.Errorf("Expected key RATE_LIMITED, got '%s'", resp.Key)
		}
	})
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	_, token := e.verifiedUser(t, "logout-user", "+15551110000")

	req := testutil.MakeRequest("POST", "/auth/logout", nil, authHeaders(token))
	w := httptest.NewRecorder()
	e.loggedIn(h.Logout)(w, req)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	// Token is dead now
	req = testutil.MakeRequest("GET", "/me", nil, authHeaders(token))
	w = httptest.NewRecorder()
	e.loggedIn(h.Me)(w, req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestMe(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	userID, token := e.verifiedUser(t, "me-user", "+15551110001")

	req := testutil.MakeRequest("GET", "/me", nil, authHeaders(token))
	w := httptest.NewRecorder()
	e.loggedIn(h.Me)(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var user models.User
	testutil.AssertJSON(t, w, &user)
	if user.ID != userID {
		t.Errorf("Expected user %d, got %d", userID, user.ID)
	}
	if user.NeedsHandle {
		t.Error("Expected NeedsHandle false for a chosen handle")
	}
}

func TestSetHandle(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	// Phone-first user still on the placeholder handle
	userID := testutil.CreateTestUser(t, e.db, "0c577c28-6f3b-4f9a-9d3c-111111111111", "+15551110002", true)
	token := testutil.CreateAuthToken(t, e.db, e.cfg, userID)

	t.Run("sets handle", func(t *testing.T) {
		req := testutil.MakeRequest("PUT", "/me/handle", models.SetHandleRequest{Handle: "picked"}, authHeaders(token))
		w := httptest.NewRecorder()
		e.verified(h.SetHandle)(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var user models.User
		testutil.AssertJSON(t, w, &user)
		if user.Handle != "picked" {
			t.Errorf("Expected handle 'picked', got '%s'", user.Handle)
		}
		if user.NeedsHandle {
			t.Error("Expected NeedsHandle false after picking")
		}
	})

	t.Run("duplicate handle", func(t *testing.T) {
		testutil.CreateTestUser(t, e.db, "occupied", "+15551110003", true)

		req := testutil.MakeRequest("PUT", "/me/handle", models.SetHandleRequest{Handle: "occupied"}, authHeaders(token))
		w := httptest.NewRecorder()
		e.verified(h.SetHandle)(w, req)

		testutil.AssertStatus(t, w, http.StatusConflict)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Key != "UNAVAILABLE_HANDLE" {
			t.Errorf("Expected key UNAVAILABLE_HANDLE, got '%s'", resp.Key)
		}
	})
}

func TestSetProfile(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	userID, token := e.verifiedUser(t, "profile-user", "+15551110004")
	testutil.SetTestProfile(t, e.db, userID, "Old Name")

	req := testutil.MakeRequest("PUT", "/me/profile", models.SetProfileRequest{Name: "New Name"}, authHeaders(token))
	w := httptest.NewRecorder()
	e.verified(h.SetProfile)(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var user models.User
	testutil.AssertJSON(t, w, &user)
	if user.Name == nil || *user.Name != "New Name" {
		t.Error("Expected profile name 'New Name'")
	}

	// Old profile is retired, not gone
	var retired int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM profiles WHERE user_id = $1 AND deleted IS TRUE`, userID).Scan(&retired); err != nil {
		t.Fatal(err)
	}
	if retired != 1 {
		t.Errorf("Expected 1 retired profile, got %d", retired)
	}
}

func TestCheckPhones(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	_, token := e.verifiedUser(t, "checker", "+15551110005")
	testutil.CreateTestUser(t, e.db, "contact-a", "+15551110006", true)
	testutil.CreateTestUser(t, e.db, "contact-b", "+15551110007", false) // unverified

	req := testutil.MakeRequest("POST", "/phones/check", models.CheckPhonesRequest{
		PhoneNumbers: []string{"+15551110006", "+15551110007", "+15559998888"},
	}, authHeaders(token))
	w := httptest.NewRecorder()
	e.verified(h.CheckPhones)(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var checks []models.PhoneCheck
	testutil.AssertJSON(t, w, &checks)
	if len(checks) != 3 {
		t.Fatalf("Expected 3 checks, got %d", len(checks))
	}
	if !checks[0].SignedUp {
		t.Error("Expected verified contact to be signed up")
	}
	if checks[1].SignedUp {
		t.Error("Expected unverified contact to not count as signed up")
	}
	if checks[2].SignedUp {
		t.Error("Expected unknown number to not be signed up")
	}
}

func TestDeleteAccount(t *testing.T) {
	e := newTestEnv(t)
	h := newAccountHandler(e)

	userID, token := e.verifiedUser(t, "doomed", "+15551110008")
	testutil.CreateVerificationCode(t, e.db, userID, "111222")

	t.Run("wrong code", func(t *testing.T) {
		req := testutil.MakeRequest("DELETE", "/account", models.DeleteAccountRequest{Code: "999999"}, authHeaders(token))
		w := httptest.NewRecorder()
		e.loggedIn(h.DeleteAccount)(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("correct code deletes", func(t *testing.T) {
		req := testutil.MakeRequest("DELETE", "/account", models.DeleteAccountRequest{Code: "111222"}, authHeaders(token))
		w := httptest.NewRecorder()
		e.loggedIn(h.DeleteAccount)(w, req)
		testutil.AssertStatus(t, w, http.StatusNoContent)

		// Soft deleted, row still present
		var deleted bool
		if err := e.db.QueryRow(`SELECT deleted FROM users WHERE id = $1`, userID).Scan(&deleted); err != nil {
			t.Fatal(err)
		}
		if !deleted {
			t.Error("Expected user to be soft-deleted")
		}

		// Session is gone
		req = testutil.MakeRequest("GET", "/me", nil, authHeaders(token))
		w = httptest.NewRecorder()
		e.loggedIn(h.Me)(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}
