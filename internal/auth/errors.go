package auth

import "errors"

// Error kinds surfaced by the auth flow. Failure sites wrap these with oops so
// the code and context travel with the error while errors.Is still matches the
// kind.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("User with this email already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrHashing            = errors.New("Error hashing password")
	ErrVerifying          = errors.New("Error comparing password")
	ErrTokenSign          = errors.New("Failed to sign JWT")
	ErrTokenVerify        = errors.New("Failed to verify JWT")
	ErrCreateUser         = errors.New("Error creating user")
	ErrAuthenticate       = errors.New("Error authenticating user")
	ErrListUsers          = errors.New("Error getting all users")
)

// oops codes, one per error kind.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeDuplicateEmail     = "AUTH_DUPLICATE_EMAIL"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeHashFailed         = "AUTH_HASH_FAILED"
	CodeTokenSignFailed    = "AUTH_TOKEN_SIGN_FAILED"
	CodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	CodeCreateUserFailed   = "AUTH_CREATE_USER_FAILED"
	CodeSignInFailed       = "AUTH_SIGN_IN_FAILED"
	CodeListUsersFailed    = "USERS_LIST_FAILED"
	CodeAuthRequired       = "AUTH_REQUIRED"
)
