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

type GroupHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	gen *idgen.Generator
}

func NewGroupHandler(conn *sql.DB, cfg cliparse.Config, gen *idgen.Generator) *GroupHandler {
	return &GroupHandler{db: conn, cfg: cfg, gen: gen}
}

// Create handles POST /groups
//
// The creator gets an owner association in the same transaction.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	var req models.CreateGroupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now().UTC()
	groupID, ok := nextID(w, h.gen)
	if !ok {
		return
	}
	assocID, ok := nextID(w, h.gen)
	if !ok {
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO groups (id, creating_user_id, name, created, modified)
		VALUES ($1, $2, $3, $4, $5)
	`, groupID, user.ID, req.Name, now, now)
	if err != nil {
		slog.Error("failed to insert group", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO group_associations (id, user_id, group_id, role, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, assocID, user.ID, groupID, models.RoleOwner, now, now)
	if err != nil {
		slog.Error("failed to insert group association", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}

	slog.Info("group created", "group_id", groupID, "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.Group{
		ID:           groupID,
		Name:         req.Name,
		CreatingUser: models.SimpleUser{ID: user.ID, Handle: user.Handle},
		Created:      now,
	})
}

// List handles GET /groups
//
// Groups the current user belongs to.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	rows, err := h.db.Query(`
		SELECT g.id, g.name, g.created, cu.id, cu.handle
		FROM group_associations ga
		INNER JOIN groups g ON g.id = ga.group_id AND g.deleted IS FALSE
		INNER JOIN users cu ON cu.id = g.creating_user_id
		WHERE ga.user_id = $1 AND ga.deleted IS FALSE
		ORDER BY ga.sort_rank, g.created DESC
	`, user.ID)
	if err != nil {
		slog.Error("failed to query groups", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Created, &g.CreatingUser.ID, &g.CreatingUser.Handle); err != nil {
			slog.Error("failed to scan group", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		groups = append(groups, g)
	}

	middleware.JSONResponse(w, http.StatusOK, groups)
}

// Members handles GET /groups/{id}/members
func (h *GroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	groupID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}

	if !h.isMember(w, groupID, user.ID, "") {
		return
	}

	rows, err := h.db.Query(`
		SELECT ga.id, ga.role, ga.created, ga.modified, u.id, u.handle
		FROM group_associations ga
		INNER JOIN users u ON u.id = ga.user_id AND u.deleted IS FALSE
		WHERE ga.group_id = $1 AND ga.deleted IS FALSE
		ORDER BY ga.created
	`, groupID)
	if err != nil {
		slog.Error("failed to query members", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	members := []models.GroupAssociation{}
	for rows.Next() {
		var m models.GroupAssociation
		if err := rows.Scan(&m.ID, &m.Role, &m.Created, &m.Modified, &m.User.ID, &m.User.Handle); err != nil {
			slog.Error("failed to scan member", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		members = append(members, m)
	}

	middleware.JSONResponse(w, http.StatusOK, members)
}

// AddMember handles POST /groups/{id}/members
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	groupID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}

	var req models.AddMemberRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.UserID == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "user_id is required")
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleMember && role != models.RoleOwner {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid role")
		return
	}

	// Only owners manage membership.
	if !h.isMember(w, groupID, user.ID, models.RoleOwner) {
		return
	}

	var targetID models.ID
	err = h.db.QueryRow(`
		SELECT id FROM users WHERE id = $1 AND deleted IS FALSE
	`, req.UserID).Scan(&targetID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now().UTC()
	assocID, ok := nextID(w, h.gen)
	if !ok {
		return
	}
	_, err = h.db.Exec(`
		INSERT INTO group_associations (id, user_id, group_id, role, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, assocID, targetID, groupID, role, now, now)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponseKey(w, http.StatusConflict, "Already a member", "ALREADY_MEMBER")
		return
	}
	if err != nil {
		slog.Error("failed to insert group association", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add member")
		return
	}

	slog.Info("group member added", "group_id", groupID, "user_id", targetID, "role", role)
	middleware.JSONResponse(w, http.StatusCreated, map[string]models.ID{"association_id": assocID})
}

// RemoveMember handles DELETE /groups/{id}/members/{user_id}
//
// Owners can remove anyone; members can remove themselves (leave).
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	groupID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}
	targetID, err := models.ParseID(r.PathValue("user_id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if targetID != user.ID {
		if !h.isMember(w, groupID, user.ID, models.RoleOwner) {
			return
		}
	}

	res, err := h.db.Exec(`
		UPDATE group_associations SET deleted = TRUE, modified = $1
		WHERE group_id = $2 AND user_id = $3 AND deleted IS FALSE
	`, time.Now().UTC(), groupID, targetID)
	if err != nil {
		slog.Error("failed to remove member", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Membership not found")
		return
	}

	slog.Info("group member removed", "group_id", groupID, "user_id", targetID)
	w.WriteHeader(http.StatusNoContent)
}

// isMember checks a live association, optionally requiring a role, and
// writes the error response when the check fails.
func (h *GroupHandler) isMember(w http.ResponseWriter, groupID, userID models.ID, role string) bool {
	query := `
		SELECT role FROM group_associations
		WHERE group_id = $1 AND user_id = $2 AND deleted IS FALSE
	`
	var got string
	err := h.db.QueryRow(query, groupID, userID).Scan(&got)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return false
	}
	if err != nil {
		slog.Error("failed to check membership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if role != "" && got != role {
		middleware.ErrorResponse(w, http.StatusForbidden, "Owner role required")
		return false
	}
	return true
}
