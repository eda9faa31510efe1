package handler

import (
	"encoding/json"
	"errors"
	"hotel-user-api/common"
	"hotel-user-api/logger"
	"hotel-user-api/model"
	"hotel-user-api/service"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

// IAdminService defines the contract the admin handlers need.
type IAdminService interface {
	ListUsers(page, size int) (*service.UserPage, error)
	UpdateUserRole(userID int, newRole model.Role) error
	SetAccountLock(userID int, locked bool) error
}

type AdminHandler struct {
	admin IAdminService
}

func NewAdminHandler(admin IAdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListUsers godoc
// @Summary      List users (paginated)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        page query int false "page number (1-based)"
// @Param        size query int false "page size"
// @Success      200 {object} service.UserPage
// @Failure      403 {object} common.AppError
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) *common.AppError {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	logger.Log.WithFields(logrus.Fields{
		"page": page,
		"size": size,
	}).Info("Admin user listing requested")

	result, err := h.admin.ListUsers(page, size)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not list users", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
	return nil
}

// UpdateUserRole godoc
// @Summary      Change a user's role
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Param        id path int true "user id"
// @Param        request body model.UpdateUserRoleRequest true "new role"
// @Success      204
// @Failure      400 {object} common.AppError
// @Router       /api/admin/users/{id}/role [put]
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid user ID", err)
	}

	var req model.UpdateUserRoleRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.admin.UpdateUserRole(userID, req.Role); err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			return common.NewAppError(http.StatusBadRequest, "Invalid role specified", err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not update role", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// LockUser godoc
// @Summary      Lock or unlock an account
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Param        id path int true "user id"
// @Param        request body model.LockUserRequest true "lock flag"
// @Success      204
// @Failure      400 {object} common.AppError
// @Router       /api/admin/users/{id}/lock [put]
func (h *AdminHandler) LockUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid user ID", err)
	}

	var req model.LockUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid request body", err)
	}

	if err := h.admin.SetAccountLock(userID, req.Locked); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not change lock state", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"locked":  req.Locked,
	}).Info("Account lock state changed")

	w.WriteHeader(http.StatusNoContent)
	return nil
}
