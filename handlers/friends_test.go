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

func TestFriendRequest(t *testing.T) {
	e := newTestEnv(t)
	h := NewFriendHandler(e.db, e.cfg, e.gen)

	_, aliceToken := e.verifiedUser(t, "alice", "+15552220001")
	bobID, _ := e.verifiedUser(t, "bob", "+15552220002")

	t.Run("request by phone", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/friends", models.FriendRequest{PhoneNumber: "+15552220002"}, authHeaders(aliceToken))
		w := httptest.NewRecorder()
		e.verified(h.Request)(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp map[string]models.ID
		testutil.AssertJSON(t, w, &resp)
		if resp["relationship_id"] == 0 {
			t.Error("Expected relationship_id")
		}
	})

	t.Run("duplicate request", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/friends", models.FriendRequest{UserID: bobID}, authHeaders(aliceToken))
		w := httptest.NewRecorder()
		e.verified(h.Request)(w, req)

		testutil.AssertStatus(t, w, http.StatusConflict)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Key != "DUPLICATE_FRIEND_REQUEST" {
			t.Errorf("Expected key DUPLICATE_FRIEND_REQUEST, got '%s'", resp.Key)
		}
	})

	t.Run("reverse direction is also duplicate", func(t *testing.T) {
		bobToken := testutil.CreateAuthToken(t, e.db, e.cfg, bobID)
		req := testutil.MakeRequest("POST", "/friends", models.FriendRequest{PhoneNumber: "+15552220001"}, authHeaders(bobToken))
		w := httptest.NewRecorder()
		e.verified(h.Request)(w, req)
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("cannot friend yourself", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/friends", models.FriendRequest{PhoneNumber: "+15552220001"}, authHeaders(aliceToken))
		w := httptest.NewRecorder()
		e.verified(h.Request)(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("unknown target", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/friends", models.FriendRequest{PhoneNumber: "+15550000000"}, authHeaders(aliceToken))
		w := httptest.NewRecorder()
		e.verified(h.Request)(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("missing target", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/friends", models.FriendRequest{}, authHeaders(aliceToken))
		w := httptest.NewRecorder()
		e.verified(h.Request)(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestFriendAccept(t *testing.T) {
	e := newTestEnv(t)
	h := NewFriendHandler(e.db, e.cfg, e.gen)

	aliceID, _ := e.verifiedUser(t, "alice", "+15552220001")
	bobID, bobToken := e.verifiedUser(t, "bob", "+15552220002")
	relID := testutil.CreateTestFriendship(t, e.db, aliceID, bobID, false)

	t.Run("requestor cannot accept", func(t *testing.T) {
		aliceToken := testutil.CreateAuthToken(t, e.db, e.cfg, aliceID)
		req := testutil.MakeRequest("POST", "/friends/"+relID.String()+"/accept", nil, authHeaders(aliceToken))
		req.SetPathValue("id", relID.String())
		w := httptest.NewRecorder()
		e.verified(h.Accept)(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("acceptor accepts", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/friends/"+relID.String()+"/accept", nil, authHeaders(bobToken))
		req.SetPathValue("id", relID.String())
		w := httptest.NewRecorder()
		e.verified(h.Accept)(w, req)
		testutil.AssertStatus(t, w, http.StatusNoContent)

		var accepted bool
		if err := e.db.QueryRow(`SELECT accepted IS NOT NULL FROM friends WHERE id = $1`, relID).Scan(&accepted); err != nil {
			t.Fatal(err)
		}
		if !accepted {
			t.Error("Expected relationship to be accepted")
		}
	})

	t.Run("already accepted", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/friends/"+relID.String()+"/accept", nil, authHeaders(bobToken))
		req.SetPathValue("id", relID.String())
		w := httptest.NewRecorder()
		e.verified(h.Accept)(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestFriendList(t *testing.T) {
	e := newTestEnv(t)
	h := NewFriendHandler(e.db, e.cfg, e.gen)

	aliceID, aliceToken := e.verifiedUser(t, "alice", "+15552220001")
	bobID, _ := e.verifiedUser(t, "bob", "+15552220002")
	carolID, _ := e.verifiedUser(t, "carol", "+15552220003")
	testutil.SetTestProfile(t, e.db, bobID, "Bob B")

	testutil.CreateTestFriendship(t, e.db, aliceID, bobID, true)
	testutil.CreateTestFriendship(t, e.db, carolID, aliceID, false) // pending, carol asked

	req := testutil.MakeRequest("GET", "/friends", nil, authHeaders(aliceToken))
	w := httptest.NewRecorder()
	e.verified(h.List)(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var friends []models.Friend
	testutil.AssertJSON(t, w, &friends)
	if len(friends) != 2 {
		t.Fatalf("Expected 2 relationships, got %d", len(friends))
	}

	byHandle := map[string]models.Friend{}
	for _, f := range friends {
		byHandle[f.User.Handle] = f
	}
	if f, ok := byHandle["bob"]; !ok || f.Accepted == nil {
		t.Error("Expected accepted friendship with bob")
	} else if f.User.Name == nil || *f.User.Name != "Bob B" {
		t.Error("Expected bob's profile name")
	}
	if f, ok := byHandle["carol"]; !ok || f.Accepted != nil {
		t.Error("Expected pending request from carol")
	}
}

func TestFriendDelete(t *testing.T) {
	e := newTestEnv(t)
	h := NewFriendHandler(e.db, e.cfg, e.gen)

	aliceID, aliceToken := e.verifiedUser(t, "alice", "+15552220001")
	bobID, _ := e.verifiedUser(t, "bob", "+15552220002")
	_, strangerToken := e.verifiedUser(t, "stranger", "+15552220004")
	relID := testutil.CreateTestFriendship(t, e.db, aliceID, bobID, true)

	t.Run("outsider cannot delete", func(t *testing.T) {
		req := testutil.MakeRequest("DELETE", "/friends/"+relID.String(), nil, authHeaders(strangerToken))
		req.SetPathValue("id", relID.String())
		w := httptest.NewRecorder()
		e.verified(h.Delete)(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("member deletes", func(t *testing.T) {
		req := testutil.MakeRequest("DELETE", "/friends/"+relID.String(), nil, authHeaders(aliceToken))
		req.SetPathValue("id", relID.String())
		w := httptest.NewRecorder()
		e.verified(h.Delete)(w, req)
		testutil.AssertStatus(t, w, http.StatusNoContent)

		var deleted bool
		if err := e.db.QueryRow(`SELECT deleted FROM friends WHERE id = $1`, relID).Scan(&deleted); err != nil {
			t.Fatal(err)
		}
		if !deleted {
			t.Error("Expected soft delete")
		}
	})
}

func TestSearchUsers(t *testing.T) {
	e := newTestEnv(t)
	h := NewFriendHandler(e.db, e.cfg, e.gen)

	aliceID, aliceToken := e.verifiedUser(t, "alice", "+15552220001")
	bobID, _ := e.verifiedUser(t, "bobcat", "+15552220002")
	e.verifiedUser(t, "bobsled", "+15552220003")
	testutil.CreateTestUser(t, e.db, "8a1e9f30-0a51-4a2e-bb55-222222222222", "+15552220005", true) // placeholder handle
	testutil.CreateTestFriendship(t, e.db, aliceID, bobID, true)

	t.Run("matches and flags friends", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/users/search?q=bob", nil, authHeaders(aliceToken))
		w := httptest.NewRecorder()
		e.verified(h.SearchUsers)(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var results []models.PotentialFriendUser
		testutil.AssertJSON(t, w, &results)
		if len(results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(results))
		}
		for _, u := range results {
			switch u.Handle {
			case "bobcat":
				if !u.IsFriend {
					t.Error("Expected bobcat to be flagged as friend")
				}
			case "bobsled":
				if u.IsFriend {
					t.Error("Expected bobsled to not be a friend")
				}
			default:
				t.Errorf("Unexpected result '%s'", u.Handle)
			}
		}
	})

	t.Run("excludes self", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/users/search?q=alice", nil, authHeaders(aliceToken))
		w := httptest.NewRecorder()
		e.verified(h.SearchUsers)(w, req)

		var results []models.PotentialFriendUser
		testutil.AssertJSON(t, w, &results)
		if len(results) != 0 {
			t.Errorf("Expected no results, got %d", len(results))
		}
	})

	t.Run("requires query", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/users/search", nil, authHeaders(aliceToken))
		w := httptest.NewRecorder()
		e.verified(h.SearchUsers)(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}
