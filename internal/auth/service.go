package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/vaughan-dsouza/BeAuth/internal/logging"
	"github.com/vaughan-dsouza/BeAuth/internal/models"
	"github.com/vaughan-dsouza/BeAuth/internal/store"
)

// UserStore is the user directory the flow reads from and writes to.
// GetByEmail returns store.ErrNotFound for unknown emails and Create returns
// an error matching store.ErrDuplicate on a unique-email violation.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type SignUpInput struct {
	Name     string      `json:"name" validate:"required,max=255"`
	Email    string      `json:"email" validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,min=6,maxbytes=72"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service runs sign-up, sign-in and user listing.
type Service struct {
	users  UserStore
	hasher PasswordHasher
	tokens *TokenService
	logger *slog.Logger

	// dummyHash is verified against when the email is unknown so both
	// failure paths cost one hash comparison.
	dummyHash string
}

func NewService(users UserStore, hasher PasswordHasher, tokens *TokenService, logger *slog.Logger) (*Service, error) {
	if users == nil || hasher == nil || tokens == nil {
		return nil, oops.Errorf("auth service: users, hasher and tokens are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, oops.With("operation", "prepare dummy hash").Wrap(err)
	}

	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger.With("component", "auth"),
		dummyHash: dummy,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and returns it without the password hash.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}

	// The unique constraint is the real guard; this lookup only skips the
	// hash for the common duplicate case.
	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, s.duplicate(in.Email)
	case !errors.Is(err, store.ErrNotFound):
		return nil, s.createFailed("lookup existing user", in.Email, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.createFailed("hash password", in.Email, err)
	}

	u, err := s.users.Create(ctx, &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Role:     in.Role,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, s.duplicate(in.Email)
	}
	if err != nil {
		return nil, s.createFailed("insert user", in.Email, err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "email", u.Email, "role", u.Role)
	return u.Public(), nil
}

func (s *Service) duplicate(email string) error {
	err := oops.Code(CodeDuplicateEmail).With("email", email).Wrap(ErrDuplicateEmail)
	logging.LogError(s.logger, "Error creating user", err)
	return err
}

func (s *Service) createFailed(op, email string, cause error) error {
	err := oops.Code(CodeCreateUserFailed).
		With("operation", op).
		With("email", email).
		Wrap(errors.Join(ErrCreateUser, cause))
	logging.LogError(s.logger, "Error creating user", err)
	return err
}

// SignIn checks credentials and issues a session token. Unknown email and
// wrong password both fail with ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*models.User, string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, "", err
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, "", s.authFailed("get user by email", in.Email, err)
	}

	// bcrypt ignores bytes past the limit, so an overlong password would
	// match on its prefix.
	tooLong := len(in.Password) > MaxPasswordBytes

	target := s.dummyHash
	if u != nil && !tooLong {
		target = u.Password
	}
	ok, verifyErr := s.hasher.Verify(in.Password, target)

	if u == nil || tooLong || (verifyErr == nil && !ok) {
		err := oops.Code(CodeInvalidCredentials).
			With("email", in.Email).
			Wrap(ErrInvalidCredentials)
		logging.LogError(s.logger, "Error authenticating user", err)
		return nil, "", err
	}
	if verifyErr != nil {
		return nil, "", s.authFailed("verify password", in.Email, verifyErr)
	}

	token, err := s.tokens.Issue(UserClaims{ID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		logging.LogError(s.logger, "Failed to sign JWT", err)
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "user signed in", "user_id", u.ID, "email", u.Email)
	return u.Public(), token, nil
}

func (s *Service) authFailed(op, email string, cause error) error {
	err := oops.Code(CodeSignInFailed).
		With("operation", op).
		With("email", email).
		Wrap(errors.Join(ErrAuthenticate, cause))
	logging.LogError(s.logger, "Error authenticating user", err)
	return err
}

// Authenticate verifies a presented session token.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		var verr *VerifyError
		if errors.As(err, &verr) {
			s.logger.WarnContext(ctx, "Failed to verify JWT", "reason", string(verr.Reason))
		}
		return nil, err
	}
	return claims, nil
}

// ListUsers returns every user. Password hashes are never selected.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		err = oops.Code(CodeListUsersFailed).Wrap(errors.Join(ErrListUsers, err))
		logging.LogError(s.logger, "Error getting all users", err)
		return nil, err
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}
