// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Pinion API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, gen, sender)

# Endpoints

Status:

	GET /status

Auth flow (public):

	POST /auth/signup  - Create account, send verification code
	POST /auth/login   - Send login code (creates placeholder account)
	POST /auth/confirm - Exchange code for auth token

Auth flow (requires X-Pinion-Auth, unverified allowed):

	POST   /auth/verify - Verify phone with code
	POST   /auth/resend - Resend code (rate limited)
	POST   /auth/logout - Invalidate session
	DELETE /account     - Delete account (code required)

Current user (requires X-Pinion-Auth):

	GET  /me           - Current user
	PUT  /me/handle    - Set handle (verified)
	PUT  /me/profile   - Set profile name (verified)
	POST /phones/check - Contact matching (verified)

Friends (verified):

	GET    /friends              - List relationships
	POST   /friends              - Request by phone or user ID
	POST   /friends/{id}/accept  - Accept request
	DELETE /friends/{id}         - Remove/decline
	GET    /users/search?q=      - Search users

Groups (verified):

	POST   /groups                         - Create group
	GET    /groups                         - List my groups
	GET    /groups/{id}/members            - List members
	POST   /groups/{id}/members            - Add member (owner)
	DELETE /groups/{id}/members/{user_id}  - Remove member

Questions and pinions (verified; POST /questions is admin-keyed):

	GET  /questions/today                - Question of the day
	POST /questions                      - Seed question (X-Admin-Key)
	POST /questions/{id}/pinions         - Answer
	GET  /questions/{id}/summary         - Global counts
	GET  /questions/{id}/friend-summary  - Friend counts
	GET  /questions/{id}/friend-pinions  - Friends' answers
	POST /pinions/{id}/comments          - Comment
	GET  /pinions/{id}/comments          - List comments

# Handler Initialization

The router creates handler instances with dependency injection:

	guard := middleware.NewAuth(db, cfg)
	accounts := handlers.NewAccountHandler(db, cfg, gen, sender)

All handlers share one idgen.Generator so IDs stay unique across the
process.
*/
package router
