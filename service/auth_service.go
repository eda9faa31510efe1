package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"hotel-user-api/logger"
	"hotel-user-api/model"
	"hotel-user-api/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// TokenPair is the response of a successful login or refresh.
type TokenPair struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	TokenType    string             `json:"token_type"`
	ExpiresIn    int64              `json:"expires_in"`
	User         *model.UserSummary `json:"user,omitempty"`
}

// AuthService orchestrates login, refresh and logout. Refresh token
// rotation is the only operation that needs a transactional boundary,
// which is why the service holds the *sql.DB in addition to the
// repositories.
type AuthService struct {
	db         *sql.DB
	userRepo   repository.IUserRepository
	tokenRepo  repository.ITokenRepository
	codec      *TokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(db *sql.DB, userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository,
	codec *TokenCodec, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		db:         db,
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// newOpaqueToken generates a refresh token with 256 bits of entropy,
// base64url-encoded without padding.
func newOpaqueToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Login authenticates an email/password pair and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	log := logger.Log.WithField("email", email)
	log.Info("Attempting to authenticate user")

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Login failed: user not found")
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: looking up user: %v", ErrInternal, err)
	}

	if user.AccountLocked {
		log.Warn("Attempt to login with locked account")
		return nil, ErrAccountLocked
	}

	if !CheckPasswordHash(password, user.Password) {
		log.Warn("Login failed: invalid password")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	// Best-effort: a failed last-login update must not fail the login.
	if err := s.userRepo.UpdateLastLogin(user.ID, s.now()); err != nil {
		log.WithError(err).Warn("Failed to update last login timestamp")
	}

	log.WithField("user_id", user.ID).Info("User authenticated successfully")
	summary := user.Summary()
	pair.User = &summary
	return pair, nil
}

// Refresh exchanges a live refresh token for a new token pair,
// rotating the refresh token in the same transaction.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	record, err := s.tokenRepo.GetByToken(refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: looking up refresh token: %v", ErrInternal, err)
	}

	if record.Revoked {
		// Possible token theft: the token was already rotated away or
		// logged out. Logged, but no session-wide revocation happens.
		logger.Log.WithFields(logrus.Fields{
			"user_id":  record.UserID,
			"token_id": record.ID,
		}).Warn("Refresh token reuse detected")
		return nil, ErrTokenReused
	}

	now := s.now()
	if !now.Before(record.ExpiresAt) {
		// Lazy cleanup: expired rows are deleted when encountered,
		// never swept proactively.
		if err := s.tokenRepo.Delete(record.Token); err != nil {
			logger.Log.WithError(err).Warn("Failed to delete expired refresh token")
		}
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.GetUserByID(record.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: looking up token owner: %v", ErrInternal, err)
	}
	if user.AccountLocked {
		return nil, ErrAccountLocked
	}

	newRecord := &model.RefreshToken{
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if newRecord.Token, err = newOpaqueToken(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// Rotation: revoking the old token and inserting its replacement
	// must commit together. The revoked=false guard inside RevokeTx
	// ensures that of two concurrent refreshes with the same token,
	// exactly one wins; the loser observes the token as already used.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: could not begin transaction: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	rotated, err := s.tokenRepo.RevokeTx(tx, record.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: revoking rotated token: %v", ErrInternal, err)
	}
	if !rotated {
		logger.Log.WithField("user_id", record.UserID).Warn("Lost refresh rotation race")
		return nil, ErrTokenReused
	}

	if err := s.tokenRepo.CreateTx(tx, newRecord); err != nil {
		return nil, fmt.Errorf("%w: creating rotated token: %v", ErrInternal, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: could not commit rotation: %v", ErrInternal, err)
	}

	accessToken, err := s.codec.Mint(user, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	logger.Log.WithField("user_id", user.ID).Info("Refresh token rotated successfully")
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRecord.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Logout revokes a refresh token. A second logout with the same token
// fails loud with ErrAlreadyRevoked to surface misuse.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	record, err := s.tokenRepo.GetByToken(refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		}
		return fmt.Errorf("%w: looking up refresh token: %v", ErrInternal, err)
	}

	if record.Revoked {
		return ErrAlreadyRevoked
	}

	revoked, err := s.tokenRepo.Revoke(record.Token)
	if err != nil {
		return fmt.Errorf("%w: revoking refresh token: %v", ErrInternal, err)
	}
	if !revoked {
		return ErrAlreadyRevoked
	}

	logger.Log.WithField("user_id", record.UserID).Info("User logged out")
	return nil
}

// LogoutAll revokes every live refresh token owned by the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID int) error {
	revoked, err := s.tokenRepo.RevokeAllForUser(userID)
	if err != nil {
		return fmt.Errorf("%w: revoking user sessions: %v", ErrInternal, err)
	}
	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"revoked": revoked,
	}).Info("All sessions revoked for user")
	return nil
}

// ValidateBearer decodes a signed access token and returns its claims.
// Used by the request-authentication gate.
func (s *AuthService) ValidateBearer(tokenString string) (*model.AppClaims, error) {
	return s.codec.Decode(tokenString)
}

func (s *AuthService) issueTokens(user *model.User) (*TokenPair, error) {
	accessToken, err := s.codec.Mint(user, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	now := s.now()
	record := &model.RefreshToken{
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if record.Token, err = newOpaqueToken(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if err := s.tokenRepo.Create(record); err != nil {
		return nil, fmt.Errorf("%w: storing refresh token: %v", ErrInternal, err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: record.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}
