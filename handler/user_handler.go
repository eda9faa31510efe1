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
)

// IUserService defines the contract the user handlers need.
type IUserService interface {
	Register(req model.RegisterRequest) (*model.UserSummary, error)
	GetProfile(ctx context.Context, username string) (*model.UserSummary, error)
	UpdateProfile(ctx context.Context, username string, req model.UpdateProfileRequest) (*model.UserSummary, error)
}

type UserHandler struct {
	users IUserService
}

func NewUserHandler(users IUserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RegisterRequest true "registration payload"
// @Success      201 {object} model.UserSummary
// @Failure      409 {object} common.AppError
// @Router       /api/auth/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	logger.Log.WithField("email", req.Email).Info("Registration request received")

	user, err := h.users.Register(req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			return common.NewAppError(http.StatusConflict, "User with this email already exists", err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not register user", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
	return nil
}

// GetProfile godoc
// @Summary      Get the authenticated user's profile
// @Tags         user
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} model.UserSummary
// @Failure      401 {object} common.AppError
// @Router       /api/user/profile [get]
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) *common.AppError {
	username, ok := r.Context().Value(UsernameKey).(string)
	if !ok || username == "" {
		return common.NewAppError(http.StatusUnauthorized, "Invalid subject in token", nil)
	}

	profile, err := h.users.GetProfile(r.Context(), username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusNotFound, "User not found", err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not load profile", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(profile)
	return nil
}

// UpdateProfile godoc
// @Summary      Update the authenticated user's profile
// @Tags         user
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body model.UpdateProfileRequest true "fields to update"
// @Success      200 {object} model.UserSummary
// @Failure      401 {object} common.AppError
// @Router       /api/user/profile [put]
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) *common.AppError {
	username, ok := r.Context().Value(UsernameKey).(string)
	if !ok || username == "" {
		return common.NewAppError(http.StatusUnauthorized, "Invalid subject in token", nil)
	}

	var req model.UpdateProfileRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	updated, err := h.users.UpdateProfile(r.Context(), username, req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusNotFound, "User not found", err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not update profile", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(updated)
	return nil
}
