package handler

import (
	"context"
	"encoding/json"
	"errors"
	"hotel-user-api/common"
	"hotel-user-api/logger"
	"hotel-user-api/model"
	"hotel-user-api/service"
	"net/http"

	"github.com/sirupsen/logrus"
)

// IAuthService defines the contract the auth handlers need from the
// session manager.
type IAuthService interface {
	Login(ctx context.Context, email, password string) (*service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID int) error
}

type AuthHandler struct {
	auth IAuthService
}

func NewAuthHandler(auth IAuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// @Summary      Authenticate a user
// @Description  exchanges email/password for an access + refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.LoginRequest true "credentials"
// @Success      200 {object} service.TokenPair
// @Failure      401 {object} common.AppError
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	log := logger.Log.WithFields(logrus.Fields{
		"email":      req.Email,
		"request_id": RequestID(r.Context()),
	})
	log.Info("Login request received")

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		// Never reveal which factor failed.
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidCredentials):
			return common.NewAppError(http.StatusUnauthorized, "Invalid credentials", err)
		case errors.Is(err, service.ErrAccountLocked):
			return common.NewAppError(http.StatusLocked, "Account is locked", err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not process login", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Refresh godoc
// @Summary      Rotate a refresh token
// @Description  exchanges a live refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RefreshRequest true "refresh token"
// @Success      200 {object} service.TokenPair
// @Failure      401 {object} common.AppError
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		// Expired and reused tokens are distinguished in logs only,
		// never in the response, to avoid oracle attacks.
		case errors.Is(err, service.ErrInvalidToken),
			errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrTokenReused):
			return common.NewAppError(http.StatusUnauthorized, "Invalid or expired refresh token", err)
		case errors.Is(err, service.ErrAccountLocked):
			return common.NewAppError(http.StatusLocked, "Account is locked", err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not refresh token", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Logout godoc
// @Summary      Revoke a refresh token
// @Tags         auth
// @Accept       json
// @Param        request body model.LogoutRequest true "refresh token"
// @Success      204
// @Failure      401 {object} common.AppError
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LogoutRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrAlreadyRevoked):
			return common.NewAppError(http.StatusUnauthorized, "Invalid refresh token", err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not process logout", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// LogoutAll godoc
// @Summary      Revoke all sessions of the authenticated user
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401 {object} common.AppError
// @Router       /api/logout/all [post]
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	if err := h.auth.LogoutAll(r.Context(), userID); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not revoke sessions", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
