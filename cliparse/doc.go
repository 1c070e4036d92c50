// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-host          Host to listen on
	-p             Server port
	-d             Database URL
	-t             Database type (sqlite or postgres)
	-signing-key   Token signing key
	-admin-key     Admin key for question seeding

# Environment Variables

Flags fall back to environment variables:

	HOST            → -host
	PORT            → -p (default: 3003)
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t (default: postgres)
	SIGNING_KEY     → -signing-key
	ADMIN_KEY       → -admin-key

Env-only settings:

	TWILIO_ACCOUNT, TWILIO_MESSAGING_SERVICE_SID, TWILIO_SID, TWILIO_SECRET
	ALLOWED_PHONE_NUMBERS     comma-separated allowlist for real SMS sends
	AUTH_EXPIRATION_SECONDS   auth token lifetime (default: 2592000, 30 days)
	CODE_EXPIRATION_SECONDS   verification code lifetime (default: 120)

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - SIGNING_KEY must be provided

Twilio settings are optional; without TWILIO_SID the server logs
verification codes instead of sending SMS.
*/
package cliparse
