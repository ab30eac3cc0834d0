// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// SessionTTL is the duration a bearer-token session remains valid.
	// Long-lived (30 days) to provide a good user experience.
	SessionTTL = 30 * 24 * time.Hour

	// SessionTokenLength is the byte length of the random secure token (256 bits).
	SessionTokenLength = 32

	// MinPasswordLength is the minimum accepted password length at registration.
	MinPasswordLength = 6

	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// VerificationTokenTTL is the duration an email verification token remains valid.
	// Long-lived (24 hours) as users might not check email immediately.
	VerificationTokenTTL = 24 * time.Hour

	// VerificationTokenLength is the byte length of the random verification token.
	VerificationTokenLength = 32
)
