// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/getpinion/pinion-server/cliparse"
	"github.com/getpinion/pinion-server/db"
	"github.com/getpinion/pinion-server/idgen"
	"github.com/getpinion/pinion-server/middleware"
	"github.com/getpinion/pinion-server/models"
)

type FriendHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	gen *idgen.Generator
}

func NewFriendHandler(conn *sql.DB, cfg cliparse.Config, gen *idgen.Generator) *FriendHandler {
	return &FriendHandler{db: conn, cfg: cfg, gen: gen}
}

// List handles GET /friends
//
// Returns every live relationship the user is part of, accepted or
// pending, with the other user's details.
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	rows, err := h.db.Query(`
		SELECT f.id, f.accepted, f.created,
		       u.id, u.handle, pr.name, p.number
		FROM friends f
		INNER JOIN users u
			ON u.id = CASE WHEN f.requestor_id = $1 THEN f.acceptor_id ELSE f.requestor_id END
			AND u.deleted IS FALSE
		INNER JOIN phones p ON p.user_id = u.id AND p.deleted IS FALSE AND p.verified IS NOT NULL
		LEFT OUTER JOIN profiles pr ON pr.user_id = u.id AND pr.deleted IS FALSE
		WHERE (f.requestor_id = $2 OR f.acceptor_id = $3)
		  AND f.deleted IS FALSE
		ORDER BY f.created DESC
	`, user.ID, user.ID, user.ID)
	if err != nil {
		slog.Error("failed to query friends", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	friends := []models.Friend{}
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(
			&f.RelationshipID, &f.Accepted, &f.Created,
			&f.User.ID, &f.User.Handle, &f.User.Name, &f.User.PhoneNumber,
		); err != nil {
			slog.Error("failed to scan friend", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		friends = append(friends, f)
	}

	middleware.JSONResponse(w, http.StatusOK, friends)
}

// Request handles POST /friends
//
// Accepts either a phone number (contact matching) or a user ID
// (search results) to identify the other user.
func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	var req models.FriendRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var targetID models.ID
	var err error
	switch {
	case req.UserID != 0:
		err = h.db.QueryRow(`
			SELECT id FROM users WHERE id = $1 AND deleted IS FALSE
		`, req.UserID).Scan(&targetID)
	case req.PhoneNumber != "":
		err = h.db.QueryRow(`
			SELECT user_id FROM phones
			WHERE number = $1 AND verified IS NOT NULL AND deleted IS FALSE
		`, req.PhoneNumber).Scan(&targetID)
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "user_id or phone_number is required")
		return
	}
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to resolve friend target", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if targetID == user.ID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Cannot friend yourself")
		return
	}

	// A pair has at most one live relationship, in either direction.
	var existing int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM friends
		WHERE ((requestor_id = $1 AND acceptor_id = $2) OR (requestor_id = $3 AND acceptor_id = $4))
		  AND deleted IS FALSE
	`, user.ID, targetID, targetID, user.ID).Scan(&existing)
	if err != nil {
		slog.Error("failed to check friendship", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if existing > 0 {
		middleware.ErrorResponseKey(w, http.StatusConflict, "Friend request already exists", "DUPLICATE_FRIEND_REQUEST")
		return
	}

	now := time.Now().UTC()
	id, ok := nextID(w, h.gen)
	if !ok {
		return
	}
	_, err = h.db.Exec(`
		INSERT INTO friends (id, requestor_id, acceptor_id, created, modified)
		VALUES ($1, $2, $3, $4, $5)
	`, id, user.ID, targetID, now, now)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponseKey(w, http.StatusConflict, "Friend request already exists", "DUPLICATE_FRIEND_REQUEST")
		return
	}
	if err != nil {
		slog.Error("failed to insert friend request", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create friend request")
		return
	}

	slog.Info("friend request created", "relationship_id", id, "requestor", user.ID, "acceptor", targetID)

	middleware.JSONResponse(w, http.StatusCreated, map[string]models.ID{"relationship_id": id})
}

// Accept handles POST /friends/{id}/accept
func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	relID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid relationship id")
		return
	}

	now := time.Now().UTC()
	res, err := h.db.Exec(`
		UPDATE friends SET accepted = $1, modified = $2
		WHERE id = $3 AND acceptor_id = $4 AND accepted IS NULL AND deleted IS FALSE
	`, now, now, relID, user.ID)
	if err != nil {
		slog.Error("failed to accept friend request", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Friend request not found")
		return
	}

	slog.Info("friend request accepted", "relationship_id", relID, "acceptor", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /friends/{id}
//
// Either side can remove the relationship; declining a pending request
// is the same operation.
func (h *FriendHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	relID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid relationship id")
		return
	}

	res, err := h.db.Exec(`
		UPDATE friends SET deleted = TRUE, modified = $1
		WHERE id = $2 AND (requestor_id = $3 OR acceptor_id = $4) AND deleted IS FALSE
	`, time.Now().UTC(), relID, user.ID, user.ID)
	if err != nil {
		slog.Error("failed to delete friendship", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Friendship not found")
		return
	}

	slog.Info("friendship deleted", "relationship_id", relID, "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// SearchUsers handles GET /users/search?q=
//
// Case-insensitive prefix/substring match on handle and profile name.
// Placeholder-handle accounts are excluded; they have not picked a
// public identity yet.
func (h *FriendHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	q := r.URL.Query().Get("q")
	if q == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "q is required")
		return
	}
	pattern := "%" + q + "%"

	rows, err := h.db.Query(`
		SELECT u.id, u.handle,
		       CASE WHEN f.id IS NULL THEN 0 ELSE 1 END
		FROM users u
		INNER JOIN phones p ON p.user_id = u.id AND p.verified IS NOT NULL AND p.deleted IS FALSE
		LEFT OUTER JOIN profiles pr ON pr.user_id = u.id AND pr.deleted IS FALSE
		LEFT OUTER JOIN friends f
			ON ((f.requestor_id = u.id AND f.acceptor_id = $1) OR (f.requestor_id = $2 AND f.acceptor_id = u.id))
			AND f.accepted IS NOT NULL AND f.deleted IS FALSE
		WHERE (u.handle LIKE $3 OR pr.name LIKE $4)
		  AND u.id <> $5
		  AND u.deleted IS FALSE
		ORDER BY u.handle
		LIMIT 20
	`, user.ID, user.ID, pattern, pattern, user.ID)
	if err != nil {
		slog.Error("failed to search users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	results := []models.PotentialFriendUser{}
	for rows.Next() {
		var u models.PotentialFriendUser
		var isFriend int
		if err := rows.Scan(&u.ID, &u.Handle, &isFriend); err != nil {
			slog.Error("failed to scan user", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if models.IsPlaceholderHandle(u.Handle) {
			continue
		}
		u.IsFriend = isFriend == 1
		results = append(results, u)
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}
