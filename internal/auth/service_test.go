package auth

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaughan-dsouza/BeAuth/internal/models"
	"github.com/vaughan-dsouza/BeAuth/internal/store"
)

// memStore is an in-memory UserStore keyed by email.
type memStore struct {
	mu     sync.Mutex
	users  map[string]models.User
	nextID int64

	getErr    error
	createErr error
	listErr   error
	// skipLookup hides existing users from GetByEmail to simulate a racing
	// sign-up that passed the pre-check.
	skipLookup bool
}

func newMemStore() *memStore {
	return &memStore{users: map[string]models.User{}}
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[email]
	if !ok || m.skipLookup {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.users[u.Email]; ok {
		return nil, oops.Wrap(store.ErrDuplicate)
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.Email] = *u
	return u, nil
}

func (m *memStore) List(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

// stubHasher avoids bcrypt cost in flow tests.
type stubHasher struct {
	hashErr   error
	verifyErr error
}

func (h stubHasher) Hash(p string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + p, nil
}

func (h stubHasher) Verify(p, hash string) (bool, error) {
	if h.verifyErr != nil {
		return false, h.verifyErr
	}
	return hash == "hashed:"+p, nil
}

func newTestService(t *testing.T, users UserStore, hasher PasswordHasher) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	svc, err := NewService(users, hasher, newTokens(t, "test-secret"), logger)
	require.NoError(t, err)
	return svc, &buf
}

var alice = SignUpInput{Name: "A", Email: "a@x.com", Password: "secret1"}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := NewService(nil, stubHasher{}, newTokens(t, "k"), nil)
	assert.Error(t, err)
}

func TestSignUp_ThenSignIn(t *testing.T) {
	svc, _ := newTestService(t, newMemStore(), NewBcryptHasher())
	ctx := context.Background()

	in := alice
	in.Name = "Alice"
	created, err := svc.SignUp(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", created.Email)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.Empty(t, created.Password)
	assert.NotZero(t, created.ID)

	u, token, err := svc.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.Empty(t, u.Password)
	assert.NotEmpty(t, token)

	claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestSignUp_StoresHashNotPlaintext(t *testing.T) {
	users := newMemStore()
	svc, _ := newTestService(t, users, stubHasher{})

	_, err := svc.SignUp(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, "hashed:secret1", users.users["a@x.com"].Password)
}

func TestSignUp_NormalizesEmailAndKeepsRole(t *testing.T) {
	svc, _ := newTestService(t, newMemStore(), stubHasher{})

	u, err := svc.SignUp(context.Background(), SignUpInput{
		Name: "Admin", Email: "  Boss@X.com ", Password: "secret1", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "boss@x.com", u.Email)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	users := newMemStore()
	svc, _ := newTestService(t, users, stubHasher{})
	ctx := context.Background()

	_, err := svc.SignUp(ctx, alice)
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, alice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateEmail))
	assert.Equal(t, "User with this email already exists", ErrDuplicateEmail.Error())
	assert.Len(t, users.users, 1)
}

func TestSignUp_DuplicateCaughtByConstraint(t *testing.T) {
	users := newMemStore()
	svc, _ := newTestService(t, users, stubHasher{})
	ctx := context.Background()

	_, err := svc.SignUp(ctx, alice)
	require.NoError(t, err)

	users.skipLookup = true
	_, err = svc.SignUp(ctx, alice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateEmail))
	assert.Len(t, users.users, 1)
}

func TestSignUp_Validation(t *testing.T) {
	svc, _ := newTestService(t, newMemStore(), stubHasher{})

	_, err := svc.SignUp(context.Background(), SignUpInput{Name: "", Email: "nope", Password: "123", Role: "root"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 6 characters", fields["password"])
	assert.Contains(t, fields["role"], "must be one of")
}

func TestSignUp_PasswordByteLimit(t *testing.T) {
	users := newMemStore()
	svc, _ := newTestService(t, users, stubHasher{})
	ctx := context.Background()

	// 40 runes, 80 bytes.
	in := alice
	in.Password = strings.Repeat("é", 40)
	_, err := svc.SignUp(ctx, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrCreateUser))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "password", verr.Fields[0].Field)
	assert.Equal(t, "must be at most 72 bytes", verr.Fields[0].Message)
	assert.Empty(t, users.users)

	in.Password = strings.Repeat("a", MaxPasswordBytes)
	_, err = svc.SignUp(ctx, in)
	require.NoError(t, err)
}

func TestSignUp_HashFailure(t *testing.T) {
	users := newMemStore()
	svc, _ := newTestService(t, users, stubHasher{})
	svc.hasher = stubHasher{hashErr: oops.Wrap(ErrHashing)}

	_, err := svc.SignUp(context.Background(), alice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCreateUser))
	assert.Empty(t, users.users)
}

func TestSignUp_StoreFailure(t *testing.T) {
	users := newMemStore()
	users.createErr = errors.New("connection reset")
	svc, logs := newTestService(t, users, stubHasher{})

	_, err := svc.SignUp(context.Background(), alice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCreateUser))
	assert.Contains(t, logs.String(), "connection reset")
	assert.Contains(t, logs.String(), CodeCreateUserFailed)
}

func TestSignIn_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, newMemStore(), NewBcryptHasher())
	ctx := context.Background()

	_, err := svc.SignUp(ctx, alice)
	require.NoError(t, err)

	_, _, errMissing := svc.SignIn(ctx, SignInInput{Email: "ghost@x.com", Password: "secret1"})
	_, _, errWrong := svc.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "wrong"})

	require.Error(t, errMissing)
	require.Error(t, errWrong)
	assert.True(t, errors.Is(errMissing, ErrInvalidCredentials))
	assert.True(t, errors.Is(errWrong, ErrInvalidCredentials))
	assert.Equal(t, errMissing.Error(), errWrong.Error())
	assert.Equal(t, "Invalid credentials", errWrong.Error())
}

func TestSignIn_RejectsPasswordPastByteLimit(t *testing.T) {
	svc, _ := newTestService(t, newMemStore(), NewBcryptHasher())
	ctx := context.Background()

	in := alice
	in.Password = strings.Repeat("a", MaxPasswordBytes)
	_, err := svc.SignUp(ctx, in)
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, SignInInput{Email: in.Email, Password: in.Password + "suffix"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, token, err := svc.SignIn(ctx, SignInInput{Email: in.Email, Password: in.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestSignIn_StoreFailure(t *testing.T) {
	users := newMemStore()
	users.getErr = errors.New("db down")
	svc, _ := newTestService(t, users, stubHasher{})

	_, _, err := svc.SignIn(context.Background(), SignInInput{Email: "a@x.com", Password: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthenticate))
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}

func TestSignIn_VerifyFailure(t *testing.T) {
	users := newMemStore()
	svc, _ := newTestService(t, users, stubHasher{})
	_, err := svc.SignUp(context.Background(), alice)
	require.NoError(t, err)

	svc.hasher = stubHasher{verifyErr: oops.Wrap(ErrVerifying)}
	_, _, err = svc.SignIn(context.Background(), SignInInput{Email: "a@x.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthenticate))
	assert.True(t, errors.Is(err, ErrVerifying))
}

func TestAuthenticate_RejectsGarbage(t *testing.T) {
	svc, logs := newTestService(t, newMemStore(), stubHasher{})

	_, err := svc.Authenticate(context.Background(), "garbage")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenVerify))
	assert.Contains(t, logs.String(), string(ReasonMalformed))
}

func TestListUsers_OmitsPasswords(t *testing.T) {
	svc, _ := newTestService(t, newMemStore(), stubHasher{})
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com"} {
		_, err := svc.SignUp(ctx, SignUpInput{Name: "User", Email: email, Password: "secret1"})
		require.NoError(t, err)
	}

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.Password)
	}
}

func TestListUsers_StoreFailure(t *testing.T) {
	users := newMemStore()
	users.listErr = errors.New("boom")
	svc, _ := newTestService(t, users, stubHasher{})

	_, err := svc.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrListUsers))
}
