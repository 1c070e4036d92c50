// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /status", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# Authentication

Auth resolves the X-Pinion-Auth bearer token to a user row and attaches
it to the request context:

	guard := middleware.NewAuth(db, cfg)
	mux.HandleFunc("GET /me", guard.RequireUser(handler))
	mux.HandleFunc("POST /pinions", guard.RequireVerified(handler))

RequireUser admits any live session, RequireVerified additionally
requires a verified phone number. Handlers read the user back with
middleware.UserFrom(r).

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, X-Pinion-Auth, X-Admin-Key.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ErrorResponseKey(w, http.StatusConflict, "handle taken", "UNAVAILABLE_HANDLE")

Parse JSON request bodies:

	var req models.SignupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
