// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/mailer"
	"github.com/taibuivan/libria/internal/platform/sec"
	"github.com/taibuivan/libria/internal/platform/validate"
	"github.com/taibuivan/libria/pkg/uuidv7"
)

// loginFailedMessage is the single message used for every login failure:
// unknown email, wrong password, or a non-active account. One message
// prevents user enumeration.
const loginFailedMessage = "Invalid email or password"

// # Input / Output Types

// RegisterInput carries the payload for account creation.
type RegisterInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Membership string `json:"membership"`
}

// LoginInput carries the payload for credential authentication.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthSession is the result of a successful registration or login: the raw
// bearer token (shown exactly once), its expiry, and the authenticated user.
type AuthSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// # Service

/*
Service implements the session management business logic: registration,
credential login, bearer-token resolution, logout, and the password
reset / email verification flows.

Session tokens are opaque 256-bit random values. Only their SHA-256 digest
is persisted, so a database leak does not leak usable credentials.
*/
type Service struct {
	users        UserRepository
	sessions     SessionRepository
	resetTokens  ResetTokenRepository
	verifyTokens VerificationTokenRepository
	mail         mailer.Mailer
	logger       *slog.Logger
	now          func() time.Time
}

/*
NewService constructs the authentication service.

Parameters:
  - users: The user account repository.
  - sessions: The bearer-token session repository.
  - resetTokens: Short-lived password reset token storage.
  - verifyTokens: Email verification token storage.
  - mail: Outbound email delivery.
  - logger: The structured logger.
*/
func NewService(
	users UserRepository,
	sessions SessionRepository,
	resetTokens ResetTokenRepository,
	verifyTokens VerificationTokenRepository,
	mail mailer.Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:        users,
		sessions:     sessions,
		resetTokens:  resetTokens,
		verifyTokens: verifyTokens,
		mail:         mail,
		logger:       logger,
		now:          time.Now,
	}
}

// # Registration

/*
Register creates a new account and opens its first session.

The email is normalized to lower case before the uniqueness check, so
"User@Example.com" and "user@example.com" are the same account. New users
always start as active members regardless of what the payload claims.

Returns:
  - *AuthSession: The raw bearer token, expiry, and created user.
  - error: A validation error, a conflict when the email is taken, or a wrapped storage error.
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*AuthSession, error) {
	input.Email = NormalizeEmail(input.Email)
	if input.Membership == "" {
		input.Membership = string(MembershipRegular)
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email).MaxLen(FieldEmail, input.Email, 254)
	v.Required(FieldPassword, input.Password).MinLen(FieldPassword, input.Password, MinPasswordLength)
	v.Required(FieldFirstName, input.FirstName).MaxLen(FieldFirstName, input.FirstName, 100)
	v.Required(FieldLastName, input.LastName).MaxLen(FieldLastName, input.LastName, 100)
	v.OneOf(FieldMembership, input.Membership, MembershipTypes...)
	if err := v.Err(); err != nil {
		return nil, err
	}

	existing, err := service.users.FindByEmail(context, input.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_register_lookup_failed: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_register_hash_failed: %w", err)
	}

	now := service.now().UTC()
	user := &User{
		ID:             uuidv7.New(),
		Email:          input.Email,
		PasswordHash:   passwordHash,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Membership:     MembershipType(input.Membership),
		Role:           sec.RoleMember,
		Status:         StatusActive,
		SearchableText: BuildSearchableText(input.Email, input.FirstName, input.LastName),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := service.users.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_register_create_failed: %w", err)
	}

	session, err := service.issueSession(context, user.ID)
	if err != nil {
		return nil, err
	}

	service.sendVerificationEmail(context, user)

	service.logger.InfoContext(context, "user_registered",
		slog.String("user_id", user.ID),
		slog.String("membership", string(user.Membership)),
	)

	return &AuthSession{Token: session.Token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// # Login / Logout

/*
Login authenticates an email/password pair and opens a new session.

Every failure path — unknown email, wrong password, suspended or inactive
account — returns the identical generic unauthorized error.

Returns:
  - *AuthSession: The raw bearer token, expiry, and authenticated user.
  - error: A generic unauthorized error, or a wrapped storage error.
*/
func (service *Service) Login(context context.Context, input LoginInput) (*AuthSession, error) {
	input.Email = NormalizeEmail(input.Email)

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email)
	v.Required(FieldPassword, input.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := service.users.FindByEmail(context, input.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_login_lookup_failed: %w", err)
	}
	if user == nil || !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized(loginFailedMessage)
	}
	if user.Status != StatusActive {
		// Same message as a bad password: account state is not disclosed.
		return nil, apperr.Unauthorized(loginFailedMessage)
	}

	session, err := service.issueSession(context, user.ID)
	if err != nil {
		return nil, err
	}

	loginAt := service.now().UTC()
	if err := service.users.UpdateLastLogin(context, user.ID, loginAt); err != nil {
		// Best-effort stamp. The session is already valid.
		service.logger.WarnContext(context, "auth_last_login_stamp_failed",
			slog.String("user_id", user.ID), slog.Any("error", err))
	} else {
		user.LastLoginAt = &loginAt
	}

	service.logger.InfoContext(context, "user_logged_in", slog.String("user_id", user.ID))

	return &AuthSession{Token: session.Token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

/*
Logout revokes the session behind a bearer token.

The operation is idempotent: an unknown, already-revoked, or expired token
succeeds silently.
*/
func (service *Service) Logout(context context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := service.sessions.DeleteByTokenHash(context, sec.HashToken(token)); err != nil {
		return fmt.Errorf("auth_logout_failed: %w", err)
	}
	return nil
}

// # Token Resolution

/*
CurrentUser resolves a bearer token to its user.

An unknown, malformed, or expired token resolves to nil without an error.
Expired sessions are deleted on discovery — lookups double as the cleanup
mechanism — and live sessions get their last-used stamp refreshed.

Returns:
  - *User: The session owner, or nil when the token does not resolve.
  - error: A wrapped storage error only.
*/
func (service *Service) CurrentUser(context context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	session, err := service.sessions.FindByTokenHash(context, sec.HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("auth_session_lookup_failed: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	now := service.now().UTC()
	if session.Expired(now) {
		if err := service.sessions.Delete(context, session.ID); err != nil {
			service.logger.WarnContext(context, "auth_expired_session_delete_failed",
				slog.String("session_id", session.ID), slog.Any("error", err))
		}
		return nil, nil
	}

	if err := service.sessions.Touch(context, session.ID, now); err != nil {
		service.logger.WarnContext(context, "auth_session_touch_failed",
			slog.String("session_id", session.ID), slog.Any("error", err))
	}

	user, err := service.users.FindByID(context, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth_session_user_lookup_failed: %w", err)
	}
	return user, nil
}

/*
ResolveToken maps a bearer token to a normalized [sec.Principal] for the
request middleware.

An unresolvable token and a non-active account both yield a generic
unauthorized error.
*/
func (service *Service) ResolveToken(context context.Context, token string) (*sec.Principal, error) {
	user, err := service.CurrentUser(context, token)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != StatusActive {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}
	return user.Principal(), nil
}

// # Password Reset

/*
RequestPasswordReset starts the forgot-password flow for an email address.

The response is identical whether or not the address is registered, so the
endpoint cannot be used to probe for accounts. When the account exists, a
single-use token is stored with a short TTL and emailed to the user.
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	email = NormalizeEmail(email)

	v := &validate.Validator{}
	v.Required(FieldEmail, email).Email(FieldEmail, email)
	if err := v.Err(); err != nil {
		return err
	}

	user, err := service.users.FindByEmail(context, email)
	if err != nil {
		return fmt.Errorf("auth_reset_lookup_failed: %w", err)
	}
	if user == nil {
		// Deliberately indistinguishable from the success path.
		service.logger.InfoContext(context, "password_reset_unknown_email")
		return nil
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return fmt.Errorf("auth_reset_token_generate_failed: %w", err)
	}
	if err := service.resetTokens.Save(context, sec.HashToken(token), user.ID, ResetTokenTTL); err != nil {
		return fmt.Errorf("auth_reset_token_save_failed: %w", err)
	}

	message := mailer.Message{
		To:      user.Email,
		Subject: "Reset your Libria password",
		Text: fmt.Sprintf(
			"Hi %s,\n\nUse the token below to reset your password. It expires in %d minutes.\n\n%s\n\nIf you did not request this, you can ignore this email.",
			user.FirstName, int(ResetTokenTTL.Minutes()), token,
		),
	}
	if err := service.mail.Send(context, message); err != nil {
		return fmt.Errorf("auth_reset_mail_failed: %w", err)
	}

	service.logger.InfoContext(context, "password_reset_requested", slog.String("user_id", user.ID))
	return nil
}

/*
ResetPassword completes the forgot-password flow.

The token is consumed atomically (single use), the new password hash is
stored, and every open session of the account is revoked.
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	v := &validate.Validator{}
	v.Required(FieldToken, token)
	v.Required(FieldNewPassword, newPassword).MinLen(FieldNewPassword, newPassword, MinPasswordLength)
	if err := v.Err(); err != nil {
		return err
	}

	userID, err := service.resetTokens.Consume(context, sec.HashToken(token))
	if err != nil {
		return fmt.Errorf("auth_reset_consume_failed: %w", err)
	}
	if userID == "" {
		return apperr.Unauthorized("Invalid or expired reset token")
	}

	passwordHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_reset_hash_failed: %w", err)
	}
	if err := service.users.UpdatePassword(context, userID, passwordHash); err != nil {
		return fmt.Errorf("auth_reset_update_failed: %w", err)
	}

	revoked, err := service.sessions.DeleteAllForUser(context, userID)
	if err != nil {
		return fmt.Errorf("auth_reset_revoke_failed: %w", err)
	}

	service.logger.InfoContext(context, "password_reset_completed",
		slog.String("user_id", userID),
		slog.Int64("sessions_revoked", revoked),
	)
	return nil
}

/*
ChangePassword replaces the password of an authenticated user after
verifying the current one.
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {
	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, currentPassword)
	v.Required(FieldNewPassword, newPassword).MinLen(FieldNewPassword, newPassword, MinPasswordLength)
	if err := v.Err(); err != nil {
		return err
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return fmt.Errorf("auth_change_password_lookup_failed: %w", err)
	}
	if user == nil {
		return apperr.NotFound("User")
	}
	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	passwordHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_change_password_hash_failed: %w", err)
	}
	if err := service.users.UpdatePassword(context, userID, passwordHash); err != nil {
		return fmt.Errorf("auth_change_password_update_failed: %w", err)
	}

	service.logger.InfoContext(context, "password_changed", slog.String("user_id", userID))
	return nil
}

// # Email Verification

/*
VerifyEmail consumes a verification token and marks the account verified.
*/
func (service *Service) VerifyEmail(context context.Context, token string) error {
	v := &validate.Validator{}
	v.Required(FieldToken, token)
	if err := v.Err(); err != nil {
		return err
	}

	userID, err := service.verifyTokens.Consume(context, sec.HashToken(token))
	if err != nil {
		return fmt.Errorf("auth_verify_consume_failed: %w", err)
	}
	if userID == "" {
		return apperr.Unauthorized("Invalid or expired verification token")
	}

	if err := service.users.MarkVerified(context, userID); err != nil {
		return fmt.Errorf("auth_verify_update_failed: %w", err)
	}

	service.logger.InfoContext(context, "email_verified", slog.String("user_id", userID))
	return nil
}

// sendVerificationEmail issues a verification token and emails it.
// Failures are logged, never surfaced: registration must not fail because
// the relay is down.
func (service *Service) sendVerificationEmail(context context.Context, user *User) {
	token, err := sec.GenerateSecureToken(VerificationTokenLength)
	if err != nil {
		service.logger.WarnContext(context, "auth_verify_token_generate_failed", slog.Any("error", err))
		return
	}
	if err := service.verifyTokens.Save(context, sec.HashToken(token), user.ID, VerificationTokenTTL); err != nil {
		service.logger.WarnContext(context, "auth_verify_token_save_failed", slog.Any("error", err))
		return
	}

	message := mailer.Message{
		To:      user.Email,
		Subject: "Verify your Libria email address",
		Text: fmt.Sprintf(
			"Hi %s,\n\nWelcome to Libria. Use the token below to verify your email address. It expires in %d hours.\n\n%s",
			user.FirstName, int(VerificationTokenTTL.Hours()), token,
		),
	}
	if err := service.mail.Send(context, message); err != nil {
		service.logger.WarnContext(context, "auth_verify_mail_failed",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}
}

// # Internals

// issuedSession pairs a raw token with its stored session row.
type issuedSession struct {
	Token     string
	ExpiresAt time.Time
}

// issueSession mints a fresh opaque token, stores its digest, and returns
// the raw token. This is the only place raw tokens exist server-side.
func (service *Service) issueSession(context context.Context, userID string) (*issuedSession, error) {
	token, err := sec.GenerateSecureToken(SessionTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_session_token_generate_failed: %w", err)
	}

	now := service.now().UTC()
	session := &Session{
		ID:         uuidv7.New(),
		UserID:     userID,
		TokenHash:  sec.HashToken(token),
		ExpiresAt:  now.Add(SessionTTL),
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if err := service.sessions.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_session_create_failed: %w", err)
	}

	return &issuedSession{Token: token, ExpiresAt: session.ExpiresAt}, nil
}
