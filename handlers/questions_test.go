// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getpinion/pinion-server/models"
	"github.com/getpinion/pinion-server/testutil"
)

func TestQuestionCreate(t *testing.T) {
	e := newTestEnv(t)
	h := NewQuestionHandler(e.db, e.cfg, e.gen)

	body := models.CreateQuestionRequest{
		Prompt:  "Best pizza topping?",
		Options: []string{"Pepperoni", "Mushroom", "Pineapple"},
	}

	t.Run("rejects bad admin key", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/questions", body, map[string]string{"X-Admin-Key": "wrong"})
		w := httptest.NewRecorder()
		h.Create(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("rejects missing admin key", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/questions", body, nil)
		w := httptest.NewRecorder()
		h.Create(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("requires at least 2 options", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/questions", models.CreateQuestionRequest{
			Prompt:  "Yes?",
			Options: []string{"Yes"},
		}, map[string]string{"X-Admin-Key": e.cfg.AdminKey})
		w := httptest.NewRecorder()
		h.Create(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("creates question with ranked options", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/questions", body, map[string]string{"X-Admin-Key": e.cfg.AdminKey})
		w := httptest.NewRecorder()
		h.Create(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)

		var q models.Question
		testutil.AssertJSON(t, w, &q)
		if q.Kind != models.KindMulti {
			t.Errorf("Expected kind multi, got '%s'", q.Kind)
		}
		if len(q.Options) != 3 {
			t.Fatalf("Expected 3 options, got %d", len(q.Options))
		}
		for i, opt := range q.Options {
			if opt.Rank != int64(i) {
				t.Errorf("Expected rank %d, got %d", i, opt.Rank)
			}
			if opt.QuestionID != q.ID {
				t.Error("Expected option to reference question")
			}
		}
	})
}

func TestQuestionToday(t *testing.T) {
	e := newTestEnv(t)
	h := NewQuestionHandler(e.db, e.cfg, e.gen)

	userID, token := e.verifiedUser(t, "asker", "+15554440001")

	t.Run("no questions", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/questions/today", nil, authHeaders(token))
		w := httptest.NewRecorder()
		e.verified(h.Today)(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	// Seed two unused questions; the higher priority one should win.
	lowID, _ := testutil.CreateTestQuestion(t, e.db, "Low priority?", []string{"A", "B"}, false)
	highID, highOptions := testutil.CreateTestQuestion(t, e.db, "High priority?", []string{"X", "Y"}, false)
	if _, err := e.db.Exec(`UPDATE questions SET priority = 10 WHERE id = $1`, highID); err != nil {
		t.Fatal(err)
	}

	t.Run("promotes highest priority unused question", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/questions/today", nil, authHeaders(token))
		w := httptest.NewRecorder()
		e.verified(h.Today)(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var q models.Question
		testutil.AssertJSON(t, w, &q)
		if q.ID != highID {
			t.Errorf("Expected question %d, got %d", highID, q.ID)
		}
		if len(q.Options) != 2 {
			t.Fatalf("Expected 2 options, got %d", len(q.Options))
		}
		if q.Pinion != nil {
			t.Error("Expected no answer yet")
		}

		var used bool
		if err := e.db.QueryRow(`SELECT used IS NOT NULL FROM questions WHERE id = $1`, highID).Scan(&used); err != nil {
			t.Fatal(err)
		}
		if !used {
			t.Error("Expected question to be marked used")
		}
	})

	t.Run("same question for the rest of the day", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/questions/today", nil, authHeaders(token))
		w := httptest.NewRecorder()
		e.verified(h.Today)(w, req)

		var q models.Question
		testutil.AssertJSON(t, w, &q)
		if q.ID != highID {
			t.Errorf("Expected question %d again, got %d", highID, q.ID)
		}
		if q.ID == lowID {
			t.Error("Low priority question should not be promoted today")
		}
	})

	t.Run("includes the user's answer", func(t *testing.T) {
		testutil.CreateTestPinion(t, e.db, userID, highID, highOptions[0])

		req := testutil.MakeRequest("GET", "/questions/today", nil, authHeaders(token))
		w := httptest.NewRecorder()
		e.verified(h.Today)(w, req)

		var q models.Question
		testutil.AssertJSON(t, w, &q)
		if q.Pinion == nil {
			t.Fatal("Expected the user's answer")
		}
		if q.Pinion.MultiSelectionID != highOptions[0] {
			t.Error("Expected answer to reference the selected option")
		}
	})
}
