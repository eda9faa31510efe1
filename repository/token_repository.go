// file: repository/token_repository.go

package repository

import (
	"database/sql"
	"hotel-user-api/logger"
	"hotel-user-api/model"

	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh token database operations.
type ITokenRepository interface {
	Create(token *model.RefreshToken) error
	GetByToken(token string) (*model.RefreshToken, error)
	Revoke(token string) (bool, error)
	Delete(token string) error
	RevokeAllForUser(userID int) (int64, error)
	CreateTx(tx *sql.Tx, token *model.RefreshToken) error
	RevokeTx(tx *sql.Tx, token string) (bool, error)
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Create inserts a new refresh token record into the database.
func (r *TokenRepository) Create(token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to create a new refresh token")

	query := `INSERT INTO refresh_tokens (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.DB.QueryRow(query, token.Token, token.UserID, token.ExpiresAt, token.CreatedAt).Scan(&token.ID)
	if err != nil {
		log.WithError(err).Error("Failed to execute create refresh token query")
		return err
	}
	return nil
}

// GetByToken retrieves a refresh token record by its opaque value.
// Returns sql.ErrNoRows when the token is unknown.
func (r *TokenRepository) GetByToken(tokenString string) (*model.RefreshToken, error) {
	token := &model.RefreshToken{}
	query := `SELECT id, token, user_id, revoked, expires_at, created_at FROM refresh_tokens WHERE token = $1`
	err := r.DB.QueryRow(query, tokenString).
		Scan(&token.ID, &token.Token, &token.UserID, &token.Revoked, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get refresh token query")
		}
		return nil, err
	}
	return token, nil
}

// Revoke flips the revoked flag. The `revoked = false` guard makes the
// update a compare-and-swap: a row that was already revoked (or never
// existed) reports no state transition, which callers use to detect
// replay of a rotated token.
func (r *TokenRepository) Revoke(tokenString string) (bool, error) {
	query := `UPDATE refresh_tokens SET revoked = true WHERE token = $1 AND revoked = false`
	res, err := r.DB.Exec(query, tokenString)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute revoke refresh token query")
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Delete removes a refresh token record. Used for lazy cleanup when an
// expired token is encountered during refresh.
func (r *TokenRepository) Delete(tokenString string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1`
	_, err := r.DB.Exec(query, tokenString)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete refresh token query")
	}
	return err
}

// RevokeAllForUser revokes every live refresh token owned by a user.
// This is used for logging out from all sessions.
func (r *TokenRepository) RevokeAllForUser(userID int) (int64, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to revoke all refresh tokens for a user")

	query := `UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`
	res, err := r.DB.Exec(query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke all refresh tokens query")
		return 0, err
	}
	return res.RowsAffected()
}

// CreateTx is Create executed inside an existing transaction, used
// during rotation so that revoking the old token and inserting its
// replacement commit together.
func (r *TokenRepository) CreateTx(tx *sql.Tx, token *model.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	return tx.QueryRow(query, token.Token, token.UserID, token.ExpiresAt, token.CreatedAt).Scan(&token.ID)
}

// RevokeTx is Revoke executed inside an existing transaction, with the
// same compare-and-swap semantics.
func (r *TokenRepository) RevokeTx(tx *sql.Tx, tokenString string) (bool, error) {
	query := `UPDATE refresh_tokens SET revoked = true WHERE token = $1 AND revoked = false`
	res, err := tx.Exec(query, tokenString)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
