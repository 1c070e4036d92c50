// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "github.com/google/uuid"

// IsPlaceholderHandle reports whether a handle is still the random
// UUID assigned at signup. Clients use this to prompt the user to
// pick a real handle before showing the main feed.
func IsPlaceholderHandle(handle string) bool {
	return uuid.Validate(handle) == nil
}
