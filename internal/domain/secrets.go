// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "strings"

// RedactString replaces a string with asterisks of the same length
func RedactString(s string) string {
	if len(s) == 0 {
		return ""
	}

	return strings.Repeat("*", len(s))
}

// RedactToken keeps the numeric bot id of a Telegram token and masks the
// secret part.
func RedactToken(token string) string {
	id, secret, ok := strings.Cut(token, ":")
	if !ok {
		return RedactString(token)
	}
	return id + ":" + RedactString(secret)
}
