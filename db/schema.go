// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the configured database. dbType selects the driver:
// "postgres" (lib/pq) or "sqlite" (modernc, cgo-free).
func Open(dbType, url string) (*sql.DB, error) {
	switch dbType {
	case "postgres":
		return sql.Open("postgres", url)
	case "sqlite":
		conn, err := sql.Open("sqlite", url)
		if err != nil {
			return nil, err
		}
		// modernc sqlite serializes writes; a single connection avoids
		// SQLITE_BUSY under concurrent handlers.
		conn.SetMaxOpenConns(1)
		return conn, nil
	default:
		return nil, fmt.Errorf("unknown database type %q", dbType)
	}
}

// IsUniqueViolation reports whether err is a unique-constraint failure
// from either supported driver. Handlers map these to stable error
// keys (UNAVAILABLE_HANDLE, DUPLICATE_FRIEND_REQUEST, ...).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pqErr, ok := err.(*pq.Error); ok {
		// https://www.postgresql.org/docs/current/errcodes-appendix.html
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Every table carries a generated BIGINT primary key (package idgen),
// a soft-delete flag, and created/modified timestamps set by the
// application. Rows are never physically removed, so issued IDs are
// never reused.
const schema = `
-- Users
CREATE TABLE IF NOT EXISTS users (
    id BIGINT PRIMARY KEY,
    handle TEXT NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_users_handle ON users(handle) WHERE deleted IS FALSE;

-- Phones
CREATE TABLE IF NOT EXISTS phones (
    id BIGINT PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    number TEXT NOT NULL,
    verified TIMESTAMP,
    verification_sent TIMESTAMP,
    verification_attempts INTEGER NOT NULL DEFAULT 0,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

-- Only verified numbers are unique, so nobody can squat a number they
-- cannot verify.
CREATE UNIQUE INDEX IF NOT EXISTS uq_phones_number ON phones(number) WHERE deleted IS FALSE AND verified IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_phones_user_id ON phones(user_id);
CREATE INDEX IF NOT EXISTS idx_phones_number ON phones(number);

-- Profiles
CREATE TABLE IF NOT EXISTS profiles (
    id BIGINT PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    name TEXT,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_user_id ON profiles(user_id);

-- Verification codes
CREATE TABLE IF NOT EXISTS verification_codes (
    id BIGINT PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    salt TEXT NOT NULL,
    hash TEXT NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verification_codes_user_id ON verification_codes(user_id);

-- Auth tokens
CREATE TABLE IF NOT EXISTS auth_tokens (
    id BIGINT PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    hash TEXT NOT NULL,
    expires TIMESTAMP NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_auth_tokens_hash ON auth_tokens(hash);

-- Friends
CREATE TABLE IF NOT EXISTS friends (
    id BIGINT PRIMARY KEY,
    requestor_id BIGINT NOT NULL REFERENCES users(id),
    acceptor_id BIGINT NOT NULL REFERENCES users(id),
    accepted TIMESTAMP,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_friends_pair ON friends(requestor_id, acceptor_id) WHERE deleted IS FALSE;
CREATE INDEX IF NOT EXISTS idx_friends_requestor ON friends(requestor_id);
CREATE INDEX IF NOT EXISTS idx_friends_acceptor ON friends(acceptor_id);

-- Groups
CREATE TABLE IF NOT EXISTS groups (
    id BIGINT PRIMARY KEY,
    creating_user_id BIGINT NOT NULL REFERENCES users(id),
    name TEXT NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

-- Group associations
CREATE TABLE IF NOT EXISTS group_associations (
    id BIGINT PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    group_id BIGINT NOT NULL REFERENCES groups(id),
    role TEXT NOT NULL DEFAULT 'member',
    sort_rank BIGINT NOT NULL DEFAULT 0,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_group_associations_member ON group_associations(user_id, group_id) WHERE deleted IS FALSE;
CREATE INDEX IF NOT EXISTS idx_group_associations_group ON group_associations(group_id);
CREATE INDEX IF NOT EXISTS idx_group_associations_user ON group_associations(user_id);

-- Questions
CREATE TABLE IF NOT EXISTS questions (
    id BIGINT PRIMARY KEY,
    kind TEXT NOT NULL,
    prompt TEXT NOT NULL,
    used TIMESTAMP,
    priority BIGINT NOT NULL DEFAULT 0,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

-- Question options
CREATE TABLE IF NOT EXISTS question_multi_options (
    id BIGINT PRIMARY KEY,
    question_id BIGINT NOT NULL REFERENCES questions(id),
    rank BIGINT NOT NULL DEFAULT 0,
    value TEXT NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_question_multi_options_question ON question_multi_options(question_id);

-- Pinions
CREATE TABLE IF NOT EXISTS pinions (
    id BIGINT PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    question_id BIGINT NOT NULL REFERENCES questions(id),
    multi_selection BIGINT NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

-- One live answer per user per question.
CREATE UNIQUE INDEX IF NOT EXISTS uq_pinions_user_question ON pinions(user_id, question_id) WHERE deleted IS FALSE;
CREATE INDEX IF NOT EXISTS idx_pinions_question ON pinions(question_id);

-- Comments
CREATE TABLE IF NOT EXISTS comments (
    id BIGINT PRIMARY KEY,
    pinion_id BIGINT NOT NULL REFERENCES pinions(id),
    user_id BIGINT NOT NULL REFERENCES users(id),
    content TEXT NOT NULL,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created TIMESTAMP NOT NULL,
    modified TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_pinion ON comments(pinion_id);
`
