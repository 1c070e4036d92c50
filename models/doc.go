// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# IDs

Every entity carries a generated 64-bit primary key (see package idgen).
The ID type renders as a JSON string because the values exceed what
JavaScript clients can represent exactly as numbers; it also implements
driver.Valuer and sql.Scanner so handlers pass it straight through
database/sql.

# Request Types

Types for parsing incoming JSON:

  - SignupRequest: handle, phone_number, name
  - LoginRequest / ConfirmRequest / VerifyRequest: phone auth flow
  - FriendRequest: phone_number or user_id
  - CreateGroupRequest, AddMemberRequest
  - CreateQuestionRequest: kind, prompt, priority, options
  - OpineRequest: multi_selection_id
  - CommentRequest: content

# Domain Types

  - User, SimpleUser, FriendUser, PotentialFriendUser
  - Friend: a friendship edge with its acceptance state
  - Group, GroupAssociation
  - Question, QuestionMultiOption
  - Pinion: a user's answer to a question
  - Comment
  - QuestionSummary, OptionSummary: tallies with percentages

# Error Responses

ErrorResponse carries a human message plus an optional stable Key the
client switches on:

	UNAVAILABLE_HANDLE
	UNAVAILABLE_PHONE
	MULTIPLE_DAILY_RESPONSES
	DUPLICATE_FRIEND_REQUEST
*/
package models
