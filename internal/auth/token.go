package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/vaughan-dsouza/BeAuth/internal/models"
)

// TokenTTL is how long an issued session token stays valid.
const TokenTTL = 24 * time.Hour

// UserClaims are the identity fields embedded in a session token.
type UserClaims struct {
	ID    int64
	Email string
	Role  models.Role
}

// Claims is the decoded token payload.
type Claims struct {
	UserID int64       `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// VerifyReason tags why a token was rejected. Callers only ever see
// ErrTokenVerify; the reason is kept for logs and tests.
type VerifyReason string

const (
	ReasonMalformed VerifyReason = "malformed"
	ReasonSignature VerifyReason = "bad_signature"
	ReasonExpired   VerifyReason = "expired"
	ReasonClaims    VerifyReason = "invalid_claims"
)

// VerifyError is returned by TokenService.Verify. Its message never reveals
// the reason.
type VerifyError struct {
	Reason VerifyReason
	cause  error
}

func (e *VerifyError) Error() string        { return ErrTokenVerify.Error() }
func (e *VerifyError) Is(target error) bool { return target == ErrTokenVerify }
func (e *VerifyError) Unwrap() error        { return e.cause }

// TokenService issues and verifies HS256-signed session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithClock overrides the time source used for iat/exp and for validation.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithTTL overrides TokenTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) { s.ttl = ttl }
}

func NewTokenService(secret []byte, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, oops.Code(CodeTokenSignFailed).Errorf("token secret not configured")
	}
	s := &TokenService{secret: secret, ttl: TokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token asserting the given identity.
func (s *TokenService) Issue(uc UserClaims) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: uc.ID,
		Email:  uc.Email,
		Role:   uc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(uc.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code(CodeTokenSignFailed).
			With("user_id", uc.ID).
			Wrap(errors.Join(ErrTokenSign, err))
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		verr := &VerifyError{Reason: classify(err), cause: err}
		return nil, oops.Code(CodeTokenInvalid).
			With("reason", string(verr.Reason)).
			Wrap(verr)
	}
	return &claims, nil
}

func classify(err error) VerifyReason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	default:
		return ReasonClaims
	}
}
