// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/mailer"
	"github.com/taibuivan/libria/internal/platform/sec"
)

// # In-Memory Fakes

type fakeUserRepo struct {
	users map[string]*User // keyed by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return apperr.Conflict("Email is already registered")
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	if user, ok := r.users[userID]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	if user, ok := r.users[userID]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

func (r *fakeUserRepo) MarkVerified(_ context.Context, userID string) error {
	if user, ok := r.users[userID]; ok {
		user.IsVerified = true
	}
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*Session // keyed by id
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *Session) error {
	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

func (r *fakeSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	for _, session := range r.sessions {
		if session.TokenHash == tokenHash {
			clone := *session
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Touch(_ context.Context, sessionID string, at time.Time) error {
	if session, ok := r.sessions[sessionID]; ok {
		session.LastUsedAt = at
	}
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, sessionID string) error {
	delete(r.sessions, sessionID)
	return nil
}

func (r *fakeSessionRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	for id, session := range r.sessions {
		if session.TokenHash == tokenHash {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	var removed int64
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var removed int64
	for id, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

type fakeTokenRepo struct {
	tokens map[string]string // tokenHash -> userID
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]string{}}
}

func (r *fakeTokenRepo) Save(_ context.Context, tokenHash, userID string, _ time.Duration) error {
	r.tokens[tokenHash] = userID
	return nil
}

func (r *fakeTokenRepo) Consume(_ context.Context, tokenHash string) (string, error) {
	userID := r.tokens[tokenHash]
	delete(r.tokens, tokenHash)
	return userID, nil
}

// captureMailer records outbound messages for assertions.
type captureMailer struct {
	sent []mailer.Message
}

func (m *captureMailer) Send(_ context.Context, message mailer.Message) error {
	m.sent = append(m.sent, message)
	return nil
}

// # Harness

type authFixture struct {
	service  *Service
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	resets   *fakeTokenRepo
	verifies *fakeTokenRepo
	mail     *captureMailer
	clock    *time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	fixture := &authFixture{
		users:    newFakeUserRepo(),
		sessions: newFakeSessionRepo(),
		resets:   newFakeTokenRepo(),
		verifies: newFakeTokenRepo(),
		mail:     &captureMailer{},
	}

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fixture.clock = &start

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fixture.service = NewService(fixture.users, fixture.sessions, fixture.resets, fixture.verifies, fixture.mail, logger)
	fixture.service.now = func() time.Time { return *fixture.clock }

	return fixture
}

func (f *authFixture) register(t *testing.T, email, password string) *AuthSession {
	t.Helper()

	session, err := f.service.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "Reader",
	})
	require.NoError(t, err)
	require.NotNil(t, session)
	return session
}

// # Tests

/*
TestService_Register verifies account creation, defaults, and the duplicate
email conflict.
*/
func TestService_Register(t *testing.T) {
	fixture := newAuthFixture(t)

	session := fixture.register(t, "Reader@Example.COM", "s3cret-pass")

	// Email is normalized, defaults are applied, and the password never
	// round-trips in the clear.
	assert.Equal(t, "reader@example.com", session.User.Email)
	assert.Equal(t, MembershipRegular, session.User.Membership)
	assert.Equal(t, sec.RoleMember, session.User.Role)
	assert.Equal(t, StatusActive, session.User.Status)
	assert.NotEqual(t, "s3cret-pass", session.User.PasswordHash)

	// The first session is opened immediately.
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, fixture.clock.Add(SessionTTL), session.ExpiresAt)

	// The verification email went out.
	require.Len(t, fixture.mail.sent, 1)
	assert.Equal(t, "reader@example.com", fixture.mail.sent[0].To)

	t.Run("duplicate_email_conflicts", func(t *testing.T) {
		_, err := fixture.service.Register(context.Background(), RegisterInput{
			Email:     "reader@example.com",
			Password:  "another-pass",
			FirstName: "Other",
			LastName:  "Person",
		})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "CONFLICT", ae.Code)
	})
}

/*
TestService_Login verifies that every failure mode returns the identical
generic error, so the endpoint cannot be used to probe accounts.
*/
func TestService_Login(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "reader@example.com", "s3cret-pass")

	t.Run("success", func(t *testing.T) {
		session, err := fixture.service.Login(context.Background(), LoginInput{
			Email:    "READER@example.com",
			Password: "s3cret-pass",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
		require.NotNil(t, session.User.LastLoginAt)
		assert.Equal(t, *fixture.clock, *session.User.LastLoginAt)
	})

	failures := []struct {
		name     string
		email    string
		password string
		prepare  func()
	}{
		{"unknown_email", "nobody@example.com", "s3cret-pass", nil},
		{"wrong_password", "reader@example.com", "not-the-password", nil},
		{"suspended_account", "reader@example.com", "s3cret-pass", func() {
			for _, user := range fixture.users.users {
				user.Status = StatusSuspended
			}
		}},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prepare != nil {
				tt.prepare()
			}

			_, err := fixture.service.Login(context.Background(), LoginInput{
				Email:    tt.email,
				Password: tt.password,
			})
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "UNAUTHORIZED", ae.Code)
			assert.Equal(t, loginFailedMessage, ae.Message)
		})
	}
}

/*
TestService_Logout verifies revocation and its idempotency.
*/
func TestService_Logout(t *testing.T) {
	fixture := newAuthFixture(t)
	session := fixture.register(t, "reader@example.com", "s3cret-pass")

	require.NoError(t, fixture.service.Logout(context.Background(), session.Token))
	assert.Empty(t, fixture.sessions.sessions)

	// Revoking again, or revoking garbage, still succeeds.
	assert.NoError(t, fixture.service.Logout(context.Background(), session.Token))
	assert.NoError(t, fixture.service.Logout(context.Background(), "never-issued"))
	assert.NoError(t, fixture.service.Logout(context.Background(), ""))

	user, err := fixture.service.CurrentUser(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Nil(t, user)
}

/*
TestService_CurrentUser verifies token resolution, including the lazy
deletion of expired sessions on lookup.
*/
func TestService_CurrentUser(t *testing.T) {
	fixture := newAuthFixture(t)
	session := fixture.register(t, "reader@example.com", "s3cret-pass")

	t.Run("live_token_resolves", func(t *testing.T) {
		user, err := fixture.service.CurrentUser(context.Background(), session.Token)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, session.User.ID, user.ID)
	})

	t.Run("unknown_token_is_nil", func(t *testing.T) {
		user, err := fixture.service.CurrentUser(context.Background(), "never-issued")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("expired_token_deletes_session", func(t *testing.T) {
		*fixture.clock = fixture.clock.Add(SessionTTL + time.Minute)

		user, err := fixture.service.CurrentUser(context.Background(), session.Token)
		require.NoError(t, err)
		assert.Nil(t, user)

		// The row is gone, not just filtered out.
		assert.Empty(t, fixture.sessions.sessions)
	})
}

/*
TestService_ResolveToken verifies the middleware-facing resolution: a
suspended account is rejected even with a live session.
*/
func TestService_ResolveToken(t *testing.T) {
	fixture := newAuthFixture(t)
	session := fixture.register(t, "reader@example.com", "s3cret-pass")

	principal, err := fixture.service.ResolveToken(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, principal.UserID)
	assert.Equal(t, sec.RoleMember, principal.Role)

	for _, user := range fixture.users.users {
		user.Status = StatusSuspended
	}

	_, err = fixture.service.ResolveToken(context.Background(), session.Token)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

/*
TestService_PasswordReset walks the full forgot-password flow: the token is
single use and completing the reset revokes every open session.
*/
func TestService_PasswordReset(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "reader@example.com", "s3cret-pass")

	// Unknown addresses are indistinguishable from known ones.
	require.NoError(t, fixture.service.RequestPasswordReset(context.Background(), "nobody@example.com"))
	assert.Len(t, fixture.mail.sent, 1) // registration mail only

	require.NoError(t, fixture.service.RequestPasswordReset(context.Background(), "reader@example.com"))
	require.Len(t, fixture.mail.sent, 2)

	// The raw token only exists in the email body; recover it from the digest map.
	require.Len(t, fixture.resets.tokens, 1)

	_, err := fixture.service.Login(context.Background(), LoginInput{
		Email:    "reader@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	// The raw token only exists in the email body captured by the fake mailer.
	rawToken := tokenFromEmail(fixture.mail.sent[1].Text)
	require.NotEmpty(t, rawToken)

	require.NoError(t, fixture.service.ResetPassword(context.Background(), rawToken, "brand-new-pass"))

	// Every session is revoked and the new password works.
	assert.Empty(t, fixture.sessions.sessions)

	_, err = fixture.service.Login(context.Background(), LoginInput{
		Email:    "reader@example.com",
		Password: "brand-new-pass",
	})
	assert.NoError(t, err)

	// The token was consumed.
	err = fixture.service.ResetPassword(context.Background(), rawToken, "yet-another-pass")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

/*
TestService_ChangePassword verifies the current-password check.
*/
func TestService_ChangePassword(t *testing.T) {
	fixture := newAuthFixture(t)
	session := fixture.register(t, "reader@example.com", "s3cret-pass")

	err := fixture.service.ChangePassword(context.Background(), session.User.ID, "wrong", "brand-new-pass")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	require.NoError(t, fixture.service.ChangePassword(context.Background(), session.User.ID, "s3cret-pass", "brand-new-pass"))

	_, err = fixture.service.Login(context.Background(), LoginInput{
		Email:    "reader@example.com",
		Password: "brand-new-pass",
	})
	assert.NoError(t, err)
}

/*
TestService_VerifyEmail verifies the verification token round trip.
*/
func TestService_VerifyEmail(t *testing.T) {
	fixture := newAuthFixture(t)
	session := fixture.register(t, "reader@example.com", "s3cret-pass")
	assert.False(t, session.User.IsVerified)

	rawToken := tokenFromEmail(fixture.mail.sent[0].Text)
	require.NotEmpty(t, rawToken)

	require.NoError(t, fixture.service.VerifyEmail(context.Background(), rawToken))

	user, err := fixture.users.FindByID(context.Background(), session.User.ID)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)

	// Single use.
	err = fixture.service.VerifyEmail(context.Background(), rawToken)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

// tokenFromEmail pulls the raw token out of a captured email body: it is
// the only line with no spaces at token length.
func tokenFromEmail(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= 40 && !strings.ContainsRune(line, ' ') {
			return line
		}
	}
	return ""
}
