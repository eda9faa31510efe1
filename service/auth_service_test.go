// file: service/auth_service_test.go

package service

import (
	"context"
	"database/sql"
	"errors"
	"hotel-user-api/logger"
	"hotel-user-api/model"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestMain runs setup before any tests in this package are executed.
func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// mockUserRepo is a mock implementation of IUserRepository.
type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}
func (m *mockUserRepo) GetUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) GetUserByID(id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) GetUserByUsername(username string) (*model.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) ExistsByEmail(email string) (bool, error) {
	args := m.Called(email)
	return args.Bool(0), args.Error(1)
}
func (m *mockUserRepo) UpdateLastLogin(userID int, at time.Time) error {
	args := m.Called(userID, at)
	return args.Error(0)
}
func (m *mockUserRepo) UpdateProfile(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}
func (m *mockUserRepo) GetAllUsers(limit, offset int) ([]*model.User, int, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.User), args.Int(1), args.Error(2)
}
func (m *mockUserRepo) UpdateUserRole(userID int, newRole string) error {
	args := m.Called(userID, newRole)
	return args.Error(0)
}
func (m *mockUserRepo) SetAccountLocked(userID int, locked bool) error {
	args := m.Called(userID, locked)
	return args.Error(0)
}

// mockTokenRepo is a mock implementation of ITokenRepository.
type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) Create(token *model.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}
func (m *mockTokenRepo) GetByToken(token string) (*model.RefreshToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}
func (m *mockTokenRepo) Revoke(token string) (bool, error) {
	args := m.Called(token)
	return args.Bool(0), args.Error(1)
}
func (m *mockTokenRepo) Delete(token string) error {
	args := m.Called(token)
	return args.Error(0)
}
func (m *mockTokenRepo) RevokeAllForUser(userID int) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockTokenRepo) CreateTx(tx *sql.Tx, token *model.RefreshToken) error {
	args := m.Called(tx, token)
	return args.Error(0)
}
func (m *mockTokenRepo) RevokeTx(tx *sql.Tx, token string) (bool, error) {
	args := m.Called(tx, token)
	return args.Bool(0), args.Error(1)
}

var (
	testPasswordHash     string
	testPasswordHashOnce sync.Once
)

// hashedTestPassword returns a bcrypt hash of "pw123456", computed once
// because bcrypt is intentionally slow.
func hashedTestPassword(t *testing.T) string {
	testPasswordHashOnce.Do(func() {
		hash, err := HashPassword("pw123456")
		if err != nil {
			t.Fatalf("could not hash test password: %v", err)
		}
		testPasswordHash = hash
	})
	return testPasswordHash
}

func loginTestUser(t *testing.T) *model.User {
	return &model.User{
		ID:       7,
		Username: "alice",
		Email:    "a@x.com",
		Password: hashedTestPassword(t),
		Role:     string(model.RoleGuest),
	}
}

func newTestAuthService(db *sql.DB, userRepo *mockUserRepo, tokenRepo *mockTokenRepo, now time.Time) *AuthService {
	codec := NewTokenCodec("test-secret")
	codec.now = frozenClock(now)
	s := NewAuthService(db, userRepo, tokenRepo, codec, 30*time.Minute, 7*24*time.Hour)
	s.now = frozenClock(now)
	return s
}

func TestAuthService_Login(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		user := loginTestUser(t)

		userRepo.On("GetUserByEmail", "a@x.com").Return(user, nil).Once()
		userRepo.On("UpdateLastLogin", user.ID, now).Return(nil).Once()
		tokenRepo.On("Create", mock.MatchedBy(func(rec *model.RefreshToken) bool {
			return rec.UserID == user.ID &&
				rec.ExpiresAt.Equal(now.Add(7*24*time.Hour)) &&
				rec.CreatedAt.Equal(now) &&
				rec.Token != ""
		})).Return(nil).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		pair, err := authService.Login(context.Background(), "a@x.com", "pw123456")

		assert.NoError(t, err)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.Equal(t, int64(1800), pair.ExpiresIn)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.NotNil(t, pair.User)
		assert.Equal(t, "a@x.com", pair.User.Email)

		// The access token must validate immediately under the bearer gate.
		claims, err := authService.ValidateBearer(pair.AccessToken)
		assert.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "guest", claims.Role)

		userRepo.AssertExpectations(t)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("locked account fails regardless of secret correctness", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		user := loginTestUser(t)
		user.AccountLocked = true

		userRepo.On("GetUserByEmail", "a@x.com").Return(user, nil).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		_, err := authService.Login(context.Background(), "a@x.com", "pw123456")

		assert.ErrorIs(t, err, ErrAccountLocked)
		tokenRepo.AssertNotCalled(t, "Create")
		userRepo.AssertNotCalled(t, "UpdateLastLogin")
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)

		userRepo.On("GetUserByEmail", "a@x.com").Return(loginTestUser(t), nil).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		_, err := authService.Login(context.Background(), "a@x.com", "wrongpassword")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		tokenRepo.AssertNotCalled(t, "Create")
	})

	t.Run("unknown email", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)

		userRepo.On("GetUserByEmail", "nobody@x.com").Return(nil, sql.ErrNoRows).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		_, err := authService.Login(context.Background(), "nobody@x.com", "pw123456")

		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("last-login update failure does not fail the login", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		user := loginTestUser(t)

		userRepo.On("GetUserByEmail", "a@x.com").Return(user, nil).Once()
		userRepo.On("UpdateLastLogin", user.ID, now).Return(errors.New("db error")).Once()
		tokenRepo.On("Create", mock.AnythingOfType("*model.RefreshToken")).Return(nil).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		pair, err := authService.Login(context.Background(), "a@x.com", "pw123456")

		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
	})

	t.Run("persistence failure is wrapped", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)

		userRepo.On("GetUserByEmail", "a@x.com").Return(nil, errors.New("connection refused")).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		_, err := authService.Login(context.Background(), "a@x.com", "pw123456")

		assert.ErrorIs(t, err, ErrInternal)
		assert.NotContains(t, ErrInternal.Error(), "connection refused")
	})
}

func TestAuthService_Refresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	liveRecord := func() *model.RefreshToken {
		return &model.RefreshToken{
			ID:        3,
			Token:     "opaque-refresh-token",
			UserID:    7,
			Revoked:   false,
			ExpiresAt: now.Add(24 * time.Hour),
			CreatedAt: now.Add(-time.Hour),
		}
	}

	t.Run("success rotates the token", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		record := liveRecord()

		tokenRepo.On("GetByToken", record.Token).Return(record, nil).Once()
		userRepo.On("GetUserByID", record.UserID).Return(loginTestUser(t), nil).Once()
		dbMock.ExpectBegin()
		tokenRepo.On("RevokeTx", mock.Anything, record.Token).Return(true, nil).Once()
		tokenRepo.On("CreateTx", mock.Anything, mock.MatchedBy(func(rec *model.RefreshToken) bool {
			return rec.UserID == record.UserID &&
				rec.ExpiresAt.Equal(now.Add(7*24*time.Hour)) &&
				rec.Token != "" && rec.Token != record.Token
		})).Return(nil).Once()
		dbMock.ExpectCommit()

		authService := newTestAuthService(db, userRepo, tokenRepo, now)
		pair, err := authService.Refresh(context.Background(), record.Token)

		assert.NoError(t, err)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.Equal(t, int64(1800), pair.ExpiresIn)
		assert.NotEqual(t, record.Token, pair.RefreshToken)
		assert.Nil(t, pair.User)
		assert.True(t, authService.codec.Validate(pair.AccessToken, "alice"))

		tokenRepo.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unknown token", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)

		tokenRepo.On("GetByToken", "ghost").Return(nil, sql.ErrNoRows).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		_, err := authService.Refresh(context.Background(), "ghost")

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("revoked token signals reuse", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		record := liveRecord()
		record.Revoked = true

		tokenRepo.On("GetByToken", record.Token).Return(record, nil).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		_, err := authService.Refresh(context.Background(), record.Token)

		assert.ErrorIs(t, err, ErrTokenReused)
		tokenRepo.AssertNotCalled(t, "RevokeTx")
		tokenRepo.AssertNotCalled(t, "CreateTx")
	})

	t.Run("expired token is lazily deleted", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		record := liveRecord()
		record.ExpiresAt = now.Add(-time.Millisecond)

		tokenRepo.On("GetByToken", record.Token).Return(record, nil).Once()
		tokenRepo.On("Delete", record.Token).Return(nil).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		_, err := authService.Refresh(context.Background(), record.Token)

		assert.ErrorIs(t, err, ErrTokenExpired)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("locked owner cannot refresh", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		record := liveRecord()
		user := loginTestUser(t)
		user.AccountLocked = true

		tokenRepo.On("GetByToken", record.Token).Return(record, nil).Once()
		userRepo.On("GetUserByID", record.UserID).Return(user, nil).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		_, err := authService.Refresh(context.Background(), record.Token)

		assert.ErrorIs(t, err, ErrAccountLocked)
		tokenRepo.AssertNotCalled(t, "RevokeTx")
	})

	t.Run("losing the rotation race reports reuse", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		record := liveRecord()

		tokenRepo.On("GetByToken", record.Token).Return(record, nil).Once()
		userRepo.On("GetUserByID", record.UserID).Return(loginTestUser(t), nil).Once()
		dbMock.ExpectBegin()
		tokenRepo.On("RevokeTx", mock.Anything, record.Token).Return(false, nil).Once()
		dbMock.ExpectRollback()

		authService := newTestAuthService(db, userRepo, tokenRepo, now)
		_, err = authService.Refresh(context.Background(), record.Token)

		assert.ErrorIs(t, err, ErrTokenReused)
		tokenRepo.AssertNotCalled(t, "CreateTx")
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("create failure keeps the old token valid", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		record := liveRecord()

		tokenRepo.On("GetByToken", record.Token).Return(record, nil).Once()
		userRepo.On("GetUserByID", record.UserID).Return(loginTestUser(t), nil).Once()
		dbMock.ExpectBegin()
		tokenRepo.On("RevokeTx", mock.Anything, record.Token).Return(true, nil).Once()
		tokenRepo.On("CreateTx", mock.Anything, mock.AnythingOfType("*model.RefreshToken")).
			Return(errors.New("insert failed")).Once()
		dbMock.ExpectRollback()

		authService := newTestAuthService(db, userRepo, tokenRepo, now)
		_, err = authService.Refresh(context.Background(), record.Token)

		// The transaction rolls back, so the revocation of the old
		// token never commits and the session is not silently lost.
		assert.ErrorIs(t, err, ErrInternal)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestAuthService_Logout(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		record := &model.RefreshToken{Token: "tok", UserID: 7, ExpiresAt: now.Add(time.Hour)}

		tokenRepo.On("GetByToken", "tok").Return(record, nil).Once()
		tokenRepo.On("Revoke", "tok").Return(true, nil).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		err := authService.Logout(context.Background(), "tok")

		assert.NoError(t, err)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("second logout fails loud", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		record := &model.RefreshToken{Token: "tok", UserID: 7, Revoked: true, ExpiresAt: now.Add(time.Hour)}

		tokenRepo.On("GetByToken", "tok").Return(record, nil).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		err := authService.Logout(context.Background(), "tok")

		assert.ErrorIs(t, err, ErrAlreadyRevoked)
		tokenRepo.AssertNotCalled(t, "Revoke")
	})

	t.Run("unknown token", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)

		tokenRepo.On("GetByToken", "ghost").Return(nil, sql.ErrNoRows).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		err := authService.Logout(context.Background(), "ghost")

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("logout all revokes every live session", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)

		tokenRepo.On("RevokeAllForUser", 7).Return(int64(3), nil).Once()

		authService := newTestAuthService(nil, userRepo, tokenRepo, now)
		err := authService.LogoutAll(context.Background(), 7)

		assert.NoError(t, err)
		tokenRepo.AssertExpectations(t)
	})
}

// fakeTokenStore is an in-memory ITokenRepository with real
// compare-and-swap semantics, used to exercise concurrent rotation.
type fakeTokenStore struct {
	mu     sync.Mutex
	nextID int
	tokens map[string]*model.RefreshToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]*model.RefreshToken)}
}

func (f *fakeTokenStore) Create(token *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	token.ID = f.nextID
	clone := *token
	f.tokens[token.Token] = &clone
	return nil
}

func (f *fakeTokenStore) GetByToken(tokenString string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.tokens[tokenString]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *rec
	return &clone, nil
}

func (f *fakeTokenStore) Revoke(tokenString string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.tokens[tokenString]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	return true, nil
}

func (f *fakeTokenStore) Delete(tokenString string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, tokenString)
	return nil
}

func (f *fakeTokenStore) RevokeAllForUser(userID int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, rec := range f.tokens {
		if rec.UserID == userID && !rec.Revoked {
			rec.Revoked = true
			n++
		}
	}
	return n, nil
}

func (f *fakeTokenStore) CreateTx(_ *sql.Tx, token *model.RefreshToken) error {
	return f.Create(token)
}

func (f *fakeTokenStore) RevokeTx(_ *sql.Tx, tokenString string) (bool, error) {
	return f.Revoke(tokenString)
}

func TestAuthService_RefreshConcurrencySingleWinner(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	dbMock.MatchExpectationsInOrder(false)
	dbMock.ExpectBegin()
	dbMock.ExpectBegin()
	dbMock.ExpectCommit()
	dbMock.ExpectRollback()

	store := newFakeTokenStore()
	record := &model.RefreshToken{
		Token:     "shared-refresh-token",
		UserID:    7,
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now,
	}
	assert.NoError(t, store.Create(record))

	userRepo := new(mockUserRepo)
	userRepo.On("GetUserByID", 7).Return(loginTestUser(t), nil)

	codec := NewTokenCodec("test-secret")
	codec.now = frozenClock(now)
	authService := NewAuthService(db, userRepo, store, codec, 30*time.Minute, 7*24*time.Hour)
	authService.now = frozenClock(now)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			_, err := authService.Refresh(context.Background(), record.Token)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var success, reused int
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrTokenReused):
			reused++
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}

	assert.Equal(t, 1, success, "exactly one refresh must win the rotation")
	assert.Equal(t, 1, reused, "the loser must observe the token as already used")

	old, err := store.GetByToken(record.Token)
	assert.NoError(t, err)
	assert.True(t, old.Revoked)
}
