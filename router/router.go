// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/getpinion/pinion-server/cliparse"
	"github.com/getpinion/pinion-server/handlers"
	"github.com/getpinion/pinion-server/idgen"
	"github.com/getpinion/pinion-server/middleware"
	"github.com/getpinion/pinion-server/sms"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, gen *idgen.Generator, sender sms.Sender) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	guard := middleware.NewAuth(db, cfg)
	accounts := handlers.NewAccountHandler(db, cfg, gen, sender)
	friends := handlers.NewFriendHandler(db, cfg, gen)
	groups := handlers.NewGroupHandler(db, cfg, gen)
	questions := handlers.NewQuestionHandler(db, cfg, gen)
	pinions := handlers.NewPinionHandler(db, cfg, gen)
	status := handlers.NewStatusHandler()

	// Status
	mux.HandleFunc("GET /status", middleware.WithLogging(status.Status))

	// Auth flow (public)
	mux.HandleFunc("POST /auth/signup", middleware.WithLogging(accounts.Signup))
	mux.HandleFunc("POST /auth/login", middleware.WithLogging(accounts.Login))
	mux.HandleFunc("POST /auth/confirm", middleware.WithLogging(accounts.Confirm))

	// Auth flow (logged in, unverified allowed)
	mux.HandleFunc("POST /auth/verify", middleware.WithLogging(guard.RequireUser(accounts.Verify)))
	mux.HandleFunc("POST /auth/resend", middleware.WithLogging(guard.RequireUser(accounts.Resend)))
	mux.HandleFunc("POST /auth/logout", middleware.WithLogging(guard.RequireUser(accounts.Logout)))
	mux.HandleFunc("DELETE /account", middleware.WithLogging(guard.RequireUser(accounts.DeleteAccount)))

	// Current user
	mux.HandleFunc("GET /me", middleware.WithLogging(guard.RequireUser(accounts.Me)))
	mux.HandleFunc("PUT /me/handle", middleware.WithLogging(guard.RequireVerified(accounts.SetHandle)))
	mux.HandleFunc("PUT /me/profile", middleware.WithLogging(guard.RequireVerified(accounts.SetProfile)))
	mux.HandleFunc("POST /phones/check", middleware.WithLogging(guard.RequireVerified(accounts.CheckPhones)))

	// Friends
	mux.HandleFunc("GET /friends", middleware.WithLogging(guard.RequireVerified(friends.List)))
	mux.HandleFunc("POST /friends", middleware.WithLogging(guard.RequireVerified(friends.Request)))
	mux.HandleFunc("POST /friends/{id}/accept", middleware.WithLogging(guard.RequireVerified(friends.Accept)))
	mux.HandleFunc("DELETE /friends/{id}", middleware.WithLogging(guard.RequireVerified(friends.Delete)))
	mux.HandleFunc("GET /users/search", middleware.WithLogging(guard.RequireVerified(friends.SearchUsers)))

	// Groups
	mux.HandleFunc("POST /groups", middleware.WithLogging(guard.RequireVerified(groups.Create)))
	mux.HandleFunc("GET /groups", middleware.WithLogging(guard.RequireVerified(groups.List)))
	mux.HandleFunc("GET /groups/{id}/members", middleware.WithLogging(guard.RequireVerified(groups.Members)))
	mux.HandleFunc("POST /groups/{id}/members", middleware.WithLogging(guard.RequireVerified(groups.AddMember)))
	mux.HandleFunc("DELETE /groups/{id}/members/{user_id}", middleware.WithLogging(guard.RequireVerified(groups.RemoveMember)))

	// Questions
	mux.HandleFunc("GET /questions/today", middleware.WithLogging(guard.RequireVerified(questions.Today)))
	mux.HandleFunc("POST /questions", middleware.WithLogging(questions.Create))

	// Pinions
	mux.HandleFunc("POST /questions/{id}/pinions", middleware.WithLogging(guard.RequireVerified(pinions.Opine)))
	mux.HandleFunc("GET /questions/{id}/summary", middleware.WithLogging(guard.RequireVerified(pinions.Summary)))
	mux.HandleFunc("GET /questions/{id}/friend-summary", middleware.WithLogging(guard.RequireVerified(pinions.FriendSummary)))
	mux.HandleFunc("GET /questions/{id}/friend-pinions", middleware.WithLogging(guard.RequireVerified(pinions.FriendPinions)))
	mux.HandleFunc("POST /pinions/{id}/comments", middleware.WithLogging(guard.RequireVerified(pinions.AddComment)))
	mux.HandleFunc("GET /pinions/{id}/comments", middleware.WithLogging(guard.RequireVerified(pinions.ListComments)))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pinion API v1"))
	})

	return mux
}
