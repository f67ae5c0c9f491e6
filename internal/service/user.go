package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/Payphone-Digital/fleet-registry/internal/pagination"
	"github.com/Payphone-Digital/fleet-registry/internal/repository"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
	"github.com/Payphone-Digital/fleet-registry/pkg/mail"
)

// accounts holds the user lookups and side effects shared by the admin
// and auth services.
type accounts struct {
	store      repository.Store[*model.User]
	tokens     *TokenService
	mailer     mail.Mailer
	adminEmail string
	bcryptCost int
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *accounts) findBy(ctx context.Context, param, value string) (*model.User, error) {
	cond, err := filter.Compile(filter.ResourceUser, map[string]string{param: value})
	if err != nil {
		return nil, err
	}
	if cond.IsEmpty() {
		return nil, domainerrors.ErrNotFound
	}
	users, _, err := a.store.Find(ctx, cond, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, domainerrors.ErrNotFound
	}
	return users[0], nil
}

func (a *accounts) findByEmail(ctx context.Context, email string) (*model.User, error) {
	return a.findBy(ctx, "email", normalizeEmail(email))
}

// taken reports whether another user than excludeID already uses value.
func (a *accounts) taken(ctx context.Context, param, value, excludeID string) (bool, error) {
	u, err := a.findBy(ctx, param, value)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.ID != excludeID, nil
}

func (a *accounts) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return "", domainerrors.WrapError(domainerrors.ErrInternal, fmt.Errorf("failed to hash password: %w", err))
	}
	return string(hashed), nil
}

func checkPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

func (a *accounts) isAdminEmail(email string) bool {
	return a.adminEmail != "" && normalizeEmail(email) == a.adminEmail
}

func (a *accounts) sendConfirmation(ctx context.Context, u *model.User) {
	token, err := a.tokens.IssueWithClaims(u.ID, map[string]any{ClaimConfirm: u.ID}, constants.ConfirmationTokenTTL)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue confirmation token").
			String("user_id", u.ID).
			Err(err).
			Log()
		return
	}
	a.mailer.SendTemplate(ctx, u.Email, "Confirm Your Account", mail.TemplateConfirm, map[string]any{
		"user":       u,
		"token":      token,
		"expires_in": constants.ConfirmationTokenTTL.String(),
	})
}

// UserService administers user accounts. Every operation requires an
// admin caller.
type UserService struct {
	*accounts
	finder repository.Finder[*model.User]
}

func NewUserService(store repository.Store[*model.User], finder repository.Finder[*model.User], tokens *TokenService, mailer mail.Mailer, adminEmail string) *UserService {
	return &UserService{
		accounts: &accounts{
			store:      store,
			tokens:     tokens,
			mailer:     mailer,
			adminEmail: normalizeEmail(adminEmail),
			bcryptCost: bcrypt.DefaultCost,
		},
		finder: finder,
	}
}

func (s *UserService) List(ctx context.Context, caller dto.Caller, params map[string]string, page int) (pagination.Result[dto.UserResponse], error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UserService.List")

	if err := requireAdmin(caller); err != nil {
		return pagination.Result[dto.UserResponse]{}, err
	}

	cond, err := filter.Compile(filter.ResourceUser, params)
	if err != nil {
		return pagination.Result[dto.UserResponse]{}, err
	}
	res, err := s.finder.Find(ctx, cond, page)
	if err != nil {
		return pagination.Result[dto.UserResponse]{}, err
	}

	items := make([]dto.UserResponse, 0, len(res.Items))
	for _, u := range res.Items {
		items = append(items, dto.NewUserResponse(u))
	}
	return pagination.NewResult(items, res.Total, res.Page, res.PageSize), nil
}

func (s *UserService) Get(ctx context.Context, caller dto.Caller, id string) (*dto.UserResponse, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(u)
	return &resp, nil
}

// Create registers a user and mails a confirmation token.
func (s *UserService) Create(ctx context.Context, caller dto.Caller, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UserService.Create")

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if err := s.checkUnique(ctx, email, req.Username, ""); err != nil {
		logger.WarnWithContext(ctx, "User registration rejected").
			String("email", email).
			Err(err).
			Log()
		return nil, err
	}

	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Username:     strings.TrimSpace(req.Username),
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Admin:        req.Admin || s.isAdminEmail(email),
		PasswordHash: hashed,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "User created").
		String("user_id", user.ID).
		String("email", user.Email).
		Bool("admin", user.Admin).
		Log()

	s.sendConfirmation(ctx, user)

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Update edits a user. A changed email resets confirmation and mails a
// new confirmation token.
func (s *UserService) Update(ctx context.Context, caller dto.Caller, id string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UserService.Update")

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	user, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if err := s.checkUnique(ctx, email, req.Username, user.ID); err != nil {
		return nil, err
	}

	emailChanged := user.Email != email
	if emailChanged {
		user.Email = email
		user.Confirmed = false
	}
	user.Username = strings.TrimSpace(req.Username)
	user.Name = strings.TrimSpace(req.Name)
	user.Phone = strings.TrimSpace(req.Phone)
	user.Admin = req.Admin || s.isAdminEmail(email)

	if err := s.store.Update(ctx, user); err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "User updated").
		String("user_id", user.ID).
		Bool("confirmed", user.Confirmed).
		Log()

	if emailChanged {
		s.sendConfirmation(ctx, user)
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *UserService) Delete(ctx context.Context, caller dto.Caller, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if id == caller.UserID {
		return domainerrors.WithMessage(domainerrors.ErrInvalidInput, "You cannot delete your own account.")
	}
	return s.store.Delete(ctx, id)
}

func (s *UserService) checkUnique(ctx context.Context, email, username, excludeID string) error {
	taken, err := s.taken(ctx, "email", email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return domainerrors.ErrEmailExists
	}

	taken, err = s.taken(ctx, "username", strings.TrimSpace(username), excludeID)
	if err != nil {
		return err
	}
	if taken {
		return domainerrors.ErrUsernameExists
	}
	return nil
}
