// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/getpinion/pinion-server/cliparse"
	"github.com/getpinion/pinion-server/idgen"
	"github.com/getpinion/pinion-server/middleware"
	"github.com/getpinion/pinion-server/models"
)

// Question-of-day boundaries follow US Eastern time regardless of
// server timezone, so the question flips at midnight for the bulk of
// the user base.
const qodTimezone = "America/New_York"

type QuestionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	gen *idgen.Generator
}

func NewQuestionHandler(conn *sql.DB, cfg cliparse.Config, gen *idgen.Generator) *QuestionHandler {
	return &QuestionHandler{db: conn, cfg: cfg, gen: gen}
}

// Today handles GET /questions/today
//
// Returns the question of the day, selecting and marking a fresh one
// on the first request after the day boundary. Includes the current
// user's answer when one exists.
func (h *QuestionHandler) Today(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r)

	loc, err := time.LoadLocation(qodTimezone)
	if err != nil {
		slog.Error("failed to load timezone", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Server error")
		return
	}
	nowLocal := time.Now().In(loc)
	startOfDay := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, loc).UTC()

	question, ok := h.questionOfDay(w, startOfDay)
	if !ok {
		return
	}

	if !h.attachOptions(w, &question) {
		return
	}
	if !h.attachPinion(w, &question, user.ID) {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, question)
}

// questionOfDay returns today's question, promoting the next unused
// one when today has none yet. Two racing requests can both try to
// promote; the losing update affects zero rows and re-reads.
func (h *QuestionHandler) questionOfDay(w http.ResponseWriter, startOfDay time.Time) (models.Question, bool) {
	for attempt := 0; attempt < 2; attempt++ {
		var q models.Question
		err := h.db.QueryRow(`
			SELECT id, kind, prompt, created FROM questions
			WHERE deleted IS FALSE AND used >= $1
			ORDER BY used DESC
			LIMIT 1
		`, startOfDay).Scan(&q.ID, &q.Kind, &q.Prompt, &q.Created)
		if err == nil {
			return q, true
		}
		if err != sql.ErrNoRows {
			slog.Error("failed to query question of day", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return models.Question{}, false
		}

		err = h.db.QueryRow(`
			SELECT id, kind, prompt, created FROM questions
			WHERE deleted IS FALSE AND used IS NULL
			ORDER BY priority DESC, id
			LIMIT 1
		`).Scan(&q.ID, &q.Kind, &q.Prompt, &q.Created)
		if err == sql.ErrNoRows {
			middleware.ErrorResponse(w, http.StatusNotFound, "No question today")
			return models.Question{}, false
		}
		if err != nil {
			slog.Error("failed to query next question", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return models.Question{}, false
		}

		now := time.Now().UTC()
		res, err := h.db.Exec(`
			UPDATE questions SET used = $1, modified = $2
			WHERE id = $3 AND used IS NULL
		`, now, now, q.ID)
		if err != nil {
			slog.Error("failed to mark question used", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return models.Question{}, false
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			slog.Info("question of day selected", "question_id", q.ID)
			return q, true
		}
		// Lost the race; another request promoted a question.
	}

	middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to select question")
	return models.Question{}, false
}

func (h *QuestionHandler) attachOptions(w http.ResponseWriter, q *models.Question) bool {
	rows, err := h.db.Query(`
		SELECT id, question_id, rank, value FROM question_multi_options
		WHERE question_id = $1 AND deleted IS FALSE
		ORDER BY rank, id
	`, q.ID)
	if err != nil {
		slog.Error("failed to query options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var opt models.QuestionMultiOption
		if err := rows.Scan(&opt.ID, &opt.QuestionID, &opt.Rank, &opt.Value); err != nil {
			slog.Error("failed to scan option", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return false
		}
		q.Options = append(q.Options, opt)
	}
	return true
}

func (h *QuestionHandler) attachPinion(w http.ResponseWriter, q *models.Question, userID models.ID) bool {
	var p models.Pinion
	err := h.db.QueryRow(`
		SELECT id, question_id, multi_selection, created FROM pinions
		WHERE question_id = $1 AND user_id = $2 AND deleted IS FALSE
	`, q.ID, userID).Scan(&p.ID, &p.QuestionID, &p.MultiSelectionID, &p.Created)
	if err == sql.ErrNoRows {
		return true
	}
	if err != nil {
		slog.Error("failed to query pinion", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	q.Pinion = &p
	return true
}

// Create handles POST /questions
//
// Admin-only seeding endpoint, guarded by the X-Admin-Key header.
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AdminKey == "" || r.Header.Get("X-Admin-Key") != h.cfg.AdminKey {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.CreateQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Kind == "" {
		req.Kind = models.KindMulti
	}
	if req.Kind != models.KindMulti {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unsupported question kind")
		return
	}
	if req.Prompt == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if len(req.Options) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "At least 2 options required")
		return
	}

	now := time.Now().UTC()
	questionID, ok := nextID(w, h.gen)
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
		INSERT INTO questions (id, kind, prompt, priority, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, questionID, req.Kind, req.Prompt, req.Priority, now, now)
	if err != nil {
		slog.Error("failed to insert question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	question := models.Question{
		ID:      questionID,
		Kind:    req.Kind,
		Prompt:  req.Prompt,
		Created: now,
	}
	for i, value := range req.Options {
		optionID, ok := nextID(w, h.gen)
		if !ok {
			return
		}
		_, err := tx.Exec(`
			INSERT INTO question_multi_options (id, question_id, rank, value, created, modified)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, optionID, questionID, i, value, now, now)
		if err != nil {
			slog.Error("failed to insert option", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create question")
			return
		}
		question.Options = append(question.Options, models.QuestionMultiOption{
			ID:         optionID,
			QuestionID: questionID,
			Rank:       int64(i),
			Value:      value,
		})
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create question")
		return
	}

	slog.Info("question created", "question_id", questionID, "options", len(req.Options))
	middleware.JSONResponse(w, http.StatusCreated, question)
}
