// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getpinion/pinion-server/cliparse"
	"github.com/getpinion/pinion-server/db"
	"github.com/getpinion/pinion-server/idgen"
	"github.com/getpinion/pinion-server/middleware"
	"github.com/getpinion/pinion-server/models"
)

type PinionHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	gen   *idgen.Generator
	cache *ttlCache
}

func NewPinionHandler(conn *sql.DB, cfg cliparse.Config, gen *idgen.Generator) *PinionHandler {
	return &PinionHandler{db: conn, cfg: cfg, gen: gen, cache: newTTLCache(summaryTTL)}
}

// Opine handles POST /questions/{id}/pinions
//
// Records the user's answer. A user has one live answer per question;
// answering again retires the previous one.
func (h *PinionHandler) Opine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	questionID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid question id")
		return
	}

	var req models.OpineRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MultiSelectionID == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "multi_selection_id is required")
		return
	}

	// The selected option must belong to the question.
	var optionQuestionID models.ID
	err = h.db.QueryRow(`
		SELECT question_id FROM question_multi_options
		WHERE id = $1 AND deleted IS FALSE
	`, req.MultiSelectionID).Scan(&optionQuestionID)
	if err == sql.ErrNoRows || (err == nil && optionQuestionID != questionID) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid option for question")
		return
	}
	if err != nil {
		slog.Error("failed to query option", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := time.Now().UTC()
	pinionID, ok := nextID(w, h.gen)
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
		UPDATE pinions SET deleted = TRUE, modified = $1
		WHERE user_id = $2 AND question_id = $3 AND deleted IS FALSE
	`, now, user.ID, questionID)
	if err != nil {
		slog.Error("failed to retire prior pinion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO pinions (id, user_id, question_id, multi_selection, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pinionID, user.ID, questionID, req.MultiSelectionID, now, now)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponseKey(w, http.StatusConflict, "Already answered", "MULTIPLE_DAILY_RESPONSES")
		return
	}
	if err != nil {
		slog.Error("failed to insert pinion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record answer")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record answer")
		return
	}

	slog.Info("pinion recorded", "pinion_id", pinionID, "question_id", questionID, "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.Pinion{
		ID:               pinionID,
		QuestionID:       questionID,
		MultiSelectionID: req.MultiSelectionID,
		Created:          now,
	})
}

// Summary handles GET /questions/{id}/summary
//
// Global per-option counts, cached briefly.
func (h *PinionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	questionID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid question id")
		return
	}

	key := fmt.Sprintf("summary:%d", questionID)
	if cached, ok := h.cache.get(key); ok {
		middleware.JSONResponse(w, http.StatusOK, cached)
		return
	}

	rows, err := h.db.Query(`
		SELECT o.id, COUNT(p.id)
		FROM question_multi_options o
		LEFT OUTER JOIN pinions p ON p.multi_selection = o.id AND p.deleted IS FALSE
		WHERE o.question_id = $1 AND o.deleted IS FALSE
		GROUP BY o.id, o.rank
		ORDER BY o.rank, o.id
	`, questionID)
	if err != nil {
		slog.Error("failed to query summary", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	summary, ok := buildSummary(w, rows)
	if !ok {
		return
	}
	if len(summary.Options) == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}

	h.cache.set(key, summary)
	middleware.JSONResponse(w, http.StatusOK, summary)
}

// FriendSummary handles GET /questions/{id}/friend-summary
//
// Per-option counts restricted to the user and their accepted friends,
// cached briefly per user.
func (h *PinionHandler) FriendSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	questionID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid question id")
		return
	}

	key := fmt.Sprintf("friend-summary:%d:%d", questionID, user.ID)
	if cached, ok := h.cache.get(key); ok {
		middleware.JSONResponse(w, http.StatusOK, cached)
		return
	}

	rows, err := h.db.Query(`
		SELECT o.id, COUNT(p.id)
		FROM question_multi_options o
		LEFT OUTER JOIN pinions p ON p.multi_selection = o.id AND p.deleted IS FALSE
			AND (p.user_id = $1 OR p.user_id IN (
				SELECT CASE WHEN f.requestor_id = $2 THEN f.acceptor_id ELSE f.requestor_id END
				FROM friends f
				WHERE (f.requestor_id = $3 OR f.acceptor_id = $4)
				  AND f.accepted IS NOT NULL AND f.deleted IS FALSE
			))
		WHERE o.question_id = $5 AND o.deleted IS FALSE
		GROUP BY o.id, o.rank
		ORDER BY o.rank, o.id
	`, user.ID, user.ID, user.ID, user.ID, questionID)
	if err != nil {
		slog.Error("failed to query friend summary", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	summary, ok := buildSummary(w, rows)
	if !ok {
		return
	}
	if len(summary.Options) == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}

	h.cache.set(key, summary)
	middleware.JSONResponse(w, http.StatusOK, summary)
}

// buildSummary turns (option_id, count) rows into a QuestionSummary
// with integer percentages.
func buildSummary(w http.ResponseWriter, rows *sql.Rows) (models.QuestionSummary, bool) {
	var summary models.QuestionSummary
	for rows.Next() {
		var opt models.OptionSummary
		if err := rows.Scan(&opt.ID, &opt.Count); err != nil {
			slog.Error("failed to scan summary row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return models.QuestionSummary{}, false
		}
		summary.TotalCount += opt.Count
		summary.Options = append(summary.Options, opt)
	}
	if summary.TotalCount > 0 {
		for i := range summary.Options {
			summary.Options[i].Percentage = summary.Options[i].Count * 100 / summary.TotalCount
		}
	}
	return summary, true
}

// FriendPinions handles GET /questions/{id}/friend-pinions
//
// The answers of the user's accepted friends, with who answered what.
func (h *PinionHandler) FriendPinions(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	questionID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid question id")
		return
	}

	rows, err := h.db.Query(`
		SELECT p.id, p.question_id, p.multi_selection,
		       u.id, u.handle, pr.name, ph.number
		FROM pinions p
		INNER JOIN users u ON u.id = p.user_id AND u.deleted IS FALSE
		INNER JOIN phones ph ON ph.user_id = u.id AND ph.deleted IS FALSE AND ph.verified IS NOT NULL
		LEFT OUTER JOIN profiles pr ON pr.user_id = u.id AND pr.deleted IS FALSE
		WHERE p.question_id = $1 AND p.deleted IS FALSE
		  AND p.user_id IN (
			SELECT CASE WHEN f.requestor_id = $2 THEN f.acceptor_id ELSE f.requestor_id END
			FROM friends f
			WHERE (f.requestor_id = $3 OR f.acceptor_id = $4)
			  AND f.accepted IS NOT NULL AND f.deleted IS FALSE
		  )
		ORDER BY p.created DESC
	`, questionID, user.ID, user.ID, user.ID)
	if err != nil {
		slog.Error("failed to query friend pinions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	pinions := []models.FriendPinion{}
	for rows.Next() {
		var p models.FriendPinion
		if err := rows.Scan(
			&p.ID, &p.QuestionID, &p.MultiSelectionID,
			&p.User.ID, &p.User.Handle, &p.User.Name, &p.User.PhoneNumber,
		); err != nil {
			slog.Error("failed to scan friend pinion", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		pinions = append(pinions, p)
	}

	middleware.JSONResponse(w, http.StatusOK, pinions)
}

// AddComment handles POST /pinions/{id}/comments
func (h *PinionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	pinionID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid pinion id")
		return
	}

	var req models.CommentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Content == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	if !h.canViewPinion(w, pinionID, user.ID) {
		return
	}

	now := time.Now().UTC()
	commentID, ok := nextID(w, h.gen)
	if !ok {
		return
	}
	_, err = h.db.Exec(`
		INSERT INTO comments (id, pinion_id, user_id, content, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, commentID, pinionID, user.ID, req.Content, now, now)
	if err != nil {
		slog.Error("failed to insert comment", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create comment")
		return
	}

	slog.Info("comment created", "comment_id", commentID, "pinion_id", pinionID, "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.Comment{
		ID:       commentID,
		PinionID: pinionID,
		User:     models.SimpleUser{ID: user.ID, Handle: user.Handle},
		Content:  req.Content,
		Created:  now,
	})
}

// ListComments handles GET /pinions/{id}/comments
func (h *PinionHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	pinionID, err := models.ParseID(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid pinion id")
		return
	}

	if !h.canViewPinion(w, pinionID, user.ID) {
		return
	}

	rows, err := h.db.Query(`
		SELECT c.id, c.pinion_id, c.content, c.created, u.id, u.handle
		FROM comments c
		INNER JOIN users u ON u.id = c.user_id AND u.deleted IS FALSE
		WHERE c.pinion_id = $1 AND c.deleted IS FALSE
		ORDER BY c.created
	`, pinionID)
	if err != nil {
		slog.Error("failed to query comments", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PinionID, &c.Content, &c.Created, &c.User.ID, &c.User.Handle); err != nil {
			slog.Error("failed to scan comment", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		comments = append(comments, c)
	}

	middleware.JSONResponse(w, http.StatusOK, comments)
}

// canViewPinion allows the pinion's owner and their accepted friends,
// writing the error response otherwise. Missing pinions and forbidden
// pinions both read as not found.
func (h *PinionHandler) canViewPinion(w http.ResponseWriter, pinionID, userID models.ID) bool {
	var ownerID models.ID
	err := h.db.QueryRow(`
		SELECT user_id FROM pinions
		WHERE id = $1 AND deleted IS FALSE
	`, pinionID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Pinion not found")
		return false
	}
	if err != nil {
		slog.Error("failed to query pinion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if ownerID == userID {
		return true
	}

	var friends int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM friends
		WHERE ((requestor_id = $1 AND acceptor_id = $2) OR (requestor_id = $3 AND acceptor_id = $4))
		  AND accepted IS NOT NULL AND deleted IS FALSE
	`, userID, ownerID, ownerID, userID).Scan(&friends)
	if err != nil {
		slog.Error("failed to check friendship", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if friends == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Pinion not found")
		return false
	}
	return true
}
