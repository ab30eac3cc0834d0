// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and logic for
authentication, authorization, and account lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no
external dependencies and encapsulate all business rules related to user
identity and session validity.
*/
package auth

import (
	"strings"
	"time"

	"github.com/taibuivan/libria/internal/platform/sec"
)

// # Enumerations

// MembershipType classifies an account for loan policy and reporting purposes.
type MembershipType string

const (
	MembershipStudent   MembershipType = "student"
	MembershipRegular   MembershipType = "regular"
	MembershipPremium   MembershipType = "premium"
	MembershipSenior    MembershipType = "senior"
	MembershipStaff     MembershipType = "staff"
	MembershipCorporate MembershipType = "corporate"
)

// MembershipTypes lists every valid membership value, for validation.
var MembershipTypes = []string{
	string(MembershipStudent), string(MembershipRegular), string(MembershipPremium),
	string(MembershipSenior), string(MembershipStaff), string(MembershipCorporate),
}

// AccountStatus is the lifecycle state of a user account.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
)

// AccountStatuses lists every valid status value, for validation.
var AccountStatuses = []string{
	string(StatusActive), string(StatusInactive), string(StatusSuspended),
}

// # Domain Entities

// User represents a registered member of the Libria platform.
//
// The running counters (TotalBorrowed, CurrentBorrowed, fine totals) are
// maintained exclusively by the circulation manager inside its transactions.
// No other writer may touch them.
type User struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	PasswordHash   string         `json:"-"` // Explicitly omitted from JSON for security.
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Membership     MembershipType `json:"membership"`
	Role           sec.Role       `json:"role"`
	Status         AccountStatus  `json:"status"`
	IsVerified     bool           `json:"is_verified"`
	TotalBorrowed  int            `json:"total_borrowed"`
	CurrentLoans   int            `json:"current_loans"`
	TotalFineCents int            `json:"total_fine_cents"`
	OwedFineCents  int            `json:"owed_fine_cents"`
	SearchableText string         `json:"-"` // Denormalized lookup text, storage concern only.
	LastLoginAt    *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// FullName returns the display name assembled from the name fields.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Principal projects the user into the normalized caller identity.
func (u *User) Principal() *sec.Principal {
	return &sec.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// Session represents one active bearer-token credential.
//
// A session is valid iff now < ExpiresAt. Expired rows are deleted lazily on
// the next lookup — there is no background sweep in the API process.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TokenHash  string    `json:"-"` // SHA-256 of the bearer token. Omitted for security.
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Expired reports whether the session has passed its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// # Normalization

// NormalizeEmail canonicalizes an email address for storage and lookup.
// Uniqueness is case-insensitive, so every comparison goes through here.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BuildSearchableText derives the denormalized lookup string for a user:
// the lower-cased concatenation of email, first name, last name, and full name.
func BuildSearchableText(email, firstName, lastName string) string {
	fullName := strings.TrimSpace(firstName + " " + lastName)
	return strings.ToLower(strings.Join([]string{email, firstName, lastName, fullName}, " "))
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldMembership      = "membership"
	FieldStatus          = "status"
)
