// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and verification utilities.

# Dashboard Tokens

Each campaign carries an opaque dashboard token. Privileged operations
(reset, results, progress download) require it:

	if err := auth.ValidateToken(campaign.Token, req.Token); err != nil {
		return err // models.ErrInvalidToken
	}

Comparison uses hmac.Equal so it runs in constant time.

Read-only views that merely hide secrets use IsPrivileged with an optional
token.

# Token Generation

Completion and dashboard tokens are 10 hex characters:

	token, err := auth.GenerateToken()

Random hex IDs of any length:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
