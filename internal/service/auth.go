package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/Payphone-Digital/fleet-registry/internal/repository"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
	"github.com/Payphone-Digital/fleet-registry/pkg/mail"
)

// lastSeenInterval limits how often authentication writes last_seen.
const lastSeenInterval = time.Minute

// AuthService authenticates callers and runs the self-service account
// flows: login, tokens, confirmation, password reset and email change.
type AuthService struct {
	*accounts
	authTTL time.Duration
	now     func() time.Time
}

func NewAuthService(store repository.Store[*model.User], tokens *TokenService, mailer mail.Mailer, adminEmail string) *AuthService {
	return &AuthService{
		accounts: &accounts{
			store:      store,
			tokens:     tokens,
			mailer:     mailer,
			adminEmail: normalizeEmail(adminEmail),
			bcryptCost: bcrypt.DefaultCost,
		},
		authTTL: constants.AuthTokenTTL,
		now:     time.Now,
	}
}

// WithAuthTokenTTL overrides the lifetime of issued auth tokens.
func (s *AuthService) WithAuthTokenTTL(ttl time.Duration) *AuthService {
	if ttl > 0 {
		s.authTTL = ttl
	}
	return s
}

func callerOf(u *model.User, tokenUsed bool) dto.Caller {
	return dto.Caller{
		UserID:    u.ID,
		Email:     u.Email,
		Admin:     u.Admin,
		Confirmed: u.Confirmed,
		TokenUsed: tokenUsed,
	}
}

// AuthenticateBasic checks HTTP Basic credentials. An empty password means
// the username field carries a token.
func (s *AuthService) AuthenticateBasic(ctx context.Context, emailOrToken, password string) (dto.Caller, error) {
	if emailOrToken == "" {
		return dto.Caller{}, domainerrors.ErrUnauthorized
	}
	if password == "" {
		return s.AuthenticateToken(ctx, emailOrToken)
	}

	user, err := s.findByEmail(ctx, emailOrToken)
	if err != nil {
		return dto.Caller{}, s.authFailure(err)
	}
	if !checkPassword(user.PasswordHash, password) {
		return dto.Caller{}, domainerrors.ErrUnauthorized
	}

	s.touch(ctx, user)
	return callerOf(user, false), nil
}

// AuthenticateToken resolves an auth token to its user.
func (s *AuthService) AuthenticateToken(ctx context.Context, raw string) (dto.Caller, error) {
	tok, err := s.tokens.Verify(raw)
	if err != nil {
		return dto.Caller{}, err
	}
	id, ok := tok.Claim(ClaimID)
	if !ok {
		return dto.Caller{}, domainerrors.ErrUnauthorized
	}

	user, err := s.store.Get(ctx, id)
	if err != nil {
		return dto.Caller{}, s.authFailure(err)
	}

	s.touch(ctx, user)
	return callerOf(user, true), nil
}

// authFailure hides lookup misses behind the generic credentials error
// while letting outages through.
func (s *AuthService) authFailure(err error) error {
	if errors.Is(err, domainerrors.ErrNotFound) {
		return domainerrors.ErrUnauthorized
	}
	return err
}

func (s *AuthService) touch(ctx context.Context, user *model.User) {
	now := s.now().UTC()
	if user.LastSeen != nil && now.Sub(*user.LastSeen) < lastSeenInterval {
		return
	}
	user.LastSeen = &now
	if err := s.store.UpdateFields(ctx, user.ID, map[string]any{"last_seen": now}); err != nil {
		logger.WarnWithContext(ctx, "Failed to record last seen").
			String("user_id", user.ID).
			Err(err).
			Log()
	}
}

func (s *AuthService) issueAuthToken(userID string) (dto.TokenResponse, error) {
	token, err := s.tokens.IssueWithClaims(userID, map[string]any{ClaimID: userID}, s.authTTL)
	if err != nil {
		return dto.TokenResponse{}, err
	}
	return dto.TokenResponse{Token: token, Expiration: int(s.authTTL.Seconds())}, nil
}

// Login checks email and password and returns the user with a token.
func (s *AuthService) Login(ctx context.Context, req dto.UserLoginRequest) (*dto.UserLoginResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.Login")

	user, err := s.findByEmail(ctx, req.Email)
	if errors.Is(err, domainerrors.ErrNotFound) {
		logger.LogAuth(normalizeEmail(req.Email), "login", false)
		return nil, domainerrors.ErrUnknownEmail
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(user.PasswordHash, req.Password) {
		logger.LogAuth(user.ID, "login", false)
		return nil, domainerrors.ErrWrongPassword
	}

	s.touch(ctx, user)
	tok, err := s.issueAuthToken(user.ID)
	if err != nil {
		return nil, err
	}

	logger.LogAuth(user.ID, "login", true)
	return &dto.UserLoginResponse{
		User:       dto.NewUserResponse(user),
		Token:      tok.Token,
		Expiration: tok.Expiration,
	}, nil
}

// IssueToken trades password credentials for a token. Callers that
// authenticated with a token cannot chain a new one.
func (s *AuthService) IssueToken(ctx context.Context, caller dto.Caller) (*dto.TokenResponse, error) {
	if caller.UserID == "" || caller.TokenUsed {
		return nil, domainerrors.ErrUnauthorized
	}
	tok, err := s.issueAuthToken(caller.UserID)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// RequestPasswordReset mails a reset token when the address is known.
// Unknown addresses are not revealed to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req dto.ResetRequest) error {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.RequestPasswordReset")

	user, err := s.findByEmail(ctx, req.Email)
	if errors.Is(err, domainerrors.ErrNotFound) {
		logger.InfoWithContext(ctx, "Password reset requested for unknown email").Log()
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueWithClaims(user.ID, map[string]any{ClaimReset: user.ID}, constants.ResetTokenTTL)
	if err != nil {
		return err
	}
	s.mailer.SendTemplate(ctx, user.Email, "Reset Your Password", mail.TemplateReset, map[string]any{
		"user":       user,
		"token":      token,
		"expires_in": constants.ResetTokenTTL.String(),
	})
	return nil
}

// ResetPassword sets a new password for the user named by a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, raw string, req dto.ResetPasswordRequest) error {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.ResetPassword")

	userID, err := s.purposeClaim(raw, ClaimReset)
	if err != nil {
		return err
	}
	user, err := s.store.Get(ctx, userID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return domainerrors.ErrInvalidToken
	}
	if err != nil {
		return err
	}

	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	if err := s.store.Update(ctx, user); err != nil {
		return err
	}

	logger.LogAuth(user.ID, "password_reset", true)
	return nil
}

// ResendConfirmation mails a fresh confirmation token to the caller.
func (s *AuthService) ResendConfirmation(ctx context.Context, caller dto.Caller) error {
	user, err := s.store.Get(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if user.Confirmed {
		return nil
	}
	s.sendConfirmation(ctx, user)
	return nil
}

// Confirm marks the caller's account confirmed. The token must have been
// issued for the caller.
func (s *AuthService) Confirm(ctx context.Context, caller dto.Caller, raw string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.Confirm")

	user, err := s.store.Get(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if user.Confirmed {
		return nil
	}

	userID, err := s.purposeClaim(raw, ClaimConfirm)
	if err != nil {
		return err
	}
	if userID != user.ID {
		return domainerrors.ErrInvalidToken
	}

	user.Confirmed = true
	if err := s.store.Update(ctx, user); err != nil {
		return err
	}

	logger.InfoWithContext(ctx, "Account confirmed").
		String("user_id", user.ID).
		Log()
	return nil
}

// RequestEmailChange mails a change token to the new address after
// checking the caller's password.
func (s *AuthService) RequestEmailChange(ctx context.Context, caller dto.Caller, req dto.ChangeEmailRequest) error {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.RequestEmailChange")

	user, err := s.store.Get(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, req.Password) {
		return domainerrors.ErrWrongPassword
	}

	newEmail := normalizeEmail(req.Email)
	taken, err := s.taken(ctx, "email", newEmail, "")
	if err != nil {
		return err
	}
	if taken {
		return domainerrors.ErrEmailExists
	}

	token, err := s.tokens.IssueWithClaims(user.ID, map[string]any{
		ClaimChangeEmail: user.ID,
		ClaimNewEmail:    newEmail,
	}, constants.EmailChangeTokenTTL)
	if err != nil {
		return err
	}
	s.mailer.SendTemplate(ctx, newEmail, "Confirm your email address", mail.TemplateChangeEmail, map[string]any{
		"user":       user,
		"token":      token,
		"new_email":  newEmail,
		"expires_in": constants.EmailChangeTokenTTL.String(),
	})
	return nil
}

// ChangeEmail applies a change token issued for the caller.
func (s *AuthService) ChangeEmail(ctx context.Context, caller dto.Caller, raw string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.ChangeEmail")

	tok, err := s.tokens.Verify(raw)
	if err != nil {
		return domainerrors.WrapError(domainerrors.ErrInvalidToken, err)
	}
	userID, ok := tok.Claim(ClaimChangeEmail)
	if !ok || userID != caller.UserID {
		return domainerrors.ErrInvalidToken
	}
	newEmail, ok := tok.Claim(ClaimNewEmail)
	if !ok || newEmail == "" {
		return domainerrors.ErrInvalidToken
	}

	taken, err := s.taken(ctx, "email", newEmail, "")
	if err != nil {
		return err
	}
	if taken {
		return domainerrors.ErrInvalidToken
	}

	user, err := s.store.Get(ctx, caller.UserID)
	if err != nil {
		return err
	}
	user.Email = newEmail
	user.Admin = user.Admin || s.isAdminEmail(newEmail)
	if err := s.store.Update(ctx, user); err != nil {
		return err
	}

	logger.InfoWithContext(ctx, "Email address changed").
		String("user_id", user.ID).
		Log()
	return nil
}

// ChangePassword replaces the caller's password after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, caller dto.Caller, req dto.ChangePasswordRequest) error {
	user, err := s.store.Get(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, req.OldPassword) {
		return domainerrors.ErrWrongPassword
	}

	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	if err := s.store.Update(ctx, user); err != nil {
		return err
	}

	logger.LogAuth(user.ID, "password_change", true)
	return nil
}

// SeedAdmin creates the configured admin account, confirmed, unless the
// email is already registered. It reports whether an account was created.
func (s *AuthService) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "AuthService.SeedAdmin")

	if s.adminEmail == "" || password == "" {
		return false, domainerrors.WithMessage(domainerrors.ErrInvalidInput, "ADMIN_EMAIL and ADMIN_PASSWORD are required.")
	}

	_, err := s.findByEmail(ctx, s.adminEmail)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return false, err
	}

	hashed, err := s.hashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &model.User{
		Email:        s.adminEmail,
		Username:     username,
		Name:         username,
		Admin:        true,
		Confirmed:    true,
		PasswordHash: hashed,
	}
	if err := s.store.Create(ctx, admin); err != nil {
		return false, err
	}

	logger.InfoWithContext(ctx, "Admin account created").
		String("user_id", admin.ID).
		Log()
	return true, nil
}

// IssueUserToken signs an auth token for an existing user id.
func (s *AuthService) IssueUserToken(ctx context.Context, userID string) (*dto.TokenResponse, error) {
	if _, err := s.store.Get(ctx, userID); err != nil {
		return nil, err
	}
	tok, err := s.issueAuthToken(userID)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// purposeClaim verifies raw and returns the user id under claim. Any
// failure is reported as an invalid link.
func (s *AuthService) purposeClaim(raw, claim string) (string, error) {
	tok, err := s.tokens.Verify(raw)
	if err != nil {
		return "", domainerrors.WrapError(domainerrors.ErrInvalidToken, err)
	}
	id, ok := tok.Claim(claim)
	if !ok || id == "" {
		return "", domainerrors.ErrInvalidToken
	}
	return id, nil
}
