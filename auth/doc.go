// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and verification-code hashing.

# Auth Tokens

Clients authenticate with a bearer token in the X-Pinion-Auth header.
The clear token is 32 random bytes (hex); the server stores only
HashToken(token, signingKey), an HMAC-SHA256, and looks tokens up by
that hash. A leaked database therefore yields nothing replayable.

	token, _ := auth.GenerateToken()
	hash := auth.HashToken(token, cfg.SigningKey)

# Verification Codes

Phone verification codes are 6 decimal digits. Codes are stored as
PBKDF2-HMAC-SHA512 hashes (100k iterations) with a random 128-byte
per-code salt, and compared in constant time:

	code, _ := auth.NewVerificationCode()
	salt, _ := auth.NewCodeSalt()
	hash := auth.HashCode(code, salt)
	...
	ok := auth.VerifyCode(submitted, saltHex, hashHex)

The heavy KDF matters because the code space is only 10^6; combined
with the short code lifetime and attempt rate limits it keeps online
and offline guessing impractical.
*/
package auth
