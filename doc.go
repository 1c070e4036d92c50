// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Pinion API server.

Pinion is a social polling service: one question a day, answered by
you and your friends, with phone-number-based accounts and SMS login.

# Starting the Server

The server requires environment variables or CLI flags for
configuration (a .env file is loaded when present):

	DATABASE_URL=postgres://... SIGNING_KEY=... go run .

Or with flags:

	go run . -p 3003 -d "postgres://..." -signing-key "..."

# Configuration

Required settings:

  - DATABASE_URL (-d): connection string
  - SIGNING_KEY (-signing-key): secret for auth token HMAC

Optional settings:

  - PORT (-p): server port (default: 3003)
  - DATABASE_TYPE (-t): postgres or sqlite (default: postgres)
  - ADMIN_KEY (-admin-key): enables the question seeding endpoint
  - TWILIO_ACCOUNT, TWILIO_MESSAGING_SERVICE_SID, TWILIO_SID,
    TWILIO_SECRET: SMS delivery; codes are logged when unset
  - ALLOWED_PHONE_NUMBERS: comma-separated allowlist for real SMS
  - AUTH_EXPIRATION_SECONDS, CODE_EXPIRATION_SECONDS: session and
    verification code lifetimes

# Architecture

The server uses a handler-based architecture with dependency injection:

  - idgen: the process-wide time-ordered ID generator
  - handlers: HTTP request handlers (accounts, friends, groups,
    questions, pinions)
  - router: Route definitions using Go 1.22+ routing
  - middleware: auth guards, CORS, logging, JSON helpers
  - models: Request/response types
  - auth: tokens, verification codes, hashing
  - sms: Twilio delivery with a logging fallback
  - db: driver selection and schema creation
  - cliparse: Configuration parsing

Every row created anywhere in the system takes its primary key from a
single idgen.Generator, so IDs are unique, time-ordered, and never
reused (deletes are soft).

See package documentation for each component.
*/
package main
