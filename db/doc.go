// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open selects the driver from configuration:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

Supported types are "postgres" (lib/pq) and "sqlite" (modernc.org/sqlite,
cgo-free; also used by the test suite for hermetic runs).

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

	users, phones, profiles, verification_codes, auth_tokens,
	friends, groups, group_associations,
	questions, question_multi_options, pinions, comments

Every table has a BIGINT primary key produced by package idgen, a
soft-delete flag, and created/modified timestamps set by the
application. Rows are marked deleted, never removed, so primary keys
are never reused.

# Uniqueness

Partial unique indexes enforce the live-row constraints:

  - users.handle (while not deleted)
  - phones.number (while not deleted and verified)
  - friends (requestor_id, acceptor_id)
  - group_associations (user_id, group_id)
  - pinions (user_id, question_id) - one answer per question per user

IsUniqueViolation recognizes constraint failures from both drivers so
handlers can map them to stable client error keys.
*/
package db
