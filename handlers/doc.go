// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Pinion API.

# Handler Types

Each handler is a struct with database, config, and ID generator
dependencies:

  - AccountHandler: signup, phone login, verification, sessions, profile
  - FriendHandler: friend requests, acceptance, user search
  - GroupHandler: friend groups and membership
  - QuestionHandler: question of the day and admin seeding
  - PinionHandler: answers, summaries, comments
  - StatusHandler: version and uptime

Handlers are created via constructor functions:

	accounts := handlers.NewAccountHandler(db, cfg, gen, sender)

All entity-creation paths draw their row IDs from the one shared
idgen.Generator, so a row's primary key also encodes its creation time.

# Auth Flow

Phone-first authentication over SMS:

	POST /auth/signup  → account with chosen handle, code sent
	POST /auth/login   → code sent; unknown numbers get a placeholder account
	POST /auth/confirm → code checked, phone verified, auth token issued
	POST /auth/verify  → verify phone on an existing session
	POST /auth/resend  → another code (rate limited)

Authenticated requests carry the token in X-Pinion-Auth. Most
endpoints additionally require a verified phone.

# Question of the Day

GET /questions/today serves one question per day (US Eastern
boundary), promoting the highest-priority unused question on the first
request of the day. Users answer with POST /questions/{id}/pinions;
summaries aggregate per-option counts globally or across friends and
are cached for a few seconds.

# Admin Seeding

POST /questions inserts a question with its options and requires the
X-Admin-Key header.
*/
package handlers
