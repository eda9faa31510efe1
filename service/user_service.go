package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hotel-user-api/logger"
	"hotel-user-api/model"
	"hotel-user-api/repository"
	"time"

	"github.com/redis/go-redis/v9"
)

// UserPage is one page of a paginated user listing.
type UserPage struct {
	Users []model.UserSummary `json:"users"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Size  int                 `json:"size"`
}

// UserService handles registration, profiles and admin operations.
// Profile reads go through a cache-aside layer in Redis.
type UserService struct {
	userRepo    repository.IUserRepository
	redisClient *redis.Client
	now         func() time.Time
}

func NewUserService(userRepo repository.IUserRepository, redisClient *redis.Client) *UserService {
	return &UserService{
		userRepo:    userRepo,
		redisClient: redisClient,
		now:         time.Now,
	}
}

// Register creates a new user with the default guest role.
func (s *UserService) Register(req model.RegisterRequest) (*model.UserSummary, error) {
	log := logger.Log.WithField("email", req.Email)
	log.Info("Attempting to register new user")

	exists, err := s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: checking email: %v", ErrInternal, err)
	}
	if exists {
		log.Warn("Registration failed: email already exists")
		return nil, ErrUserExists
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hashing password: %v", ErrInternal, err)
	}

	user := &model.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashedPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      string(model.RoleGuest),
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("%w: creating user: %v", ErrInternal, err)
	}

	log.WithField("user_id", user.ID).Info("User registered successfully")
	summary := user.Summary()
	return &summary, nil
}

func profileCacheKey(username string) string {
	return fmt.Sprintf("profile:%s", username)
}

// GetProfile returns the public profile of a user, utilizing a
// cache-aside strategy.
func (s *UserService) GetProfile(ctx context.Context, username string) (*model.UserSummary, error) {
	cacheKey := profileCacheKey(username)

	cached, err := s.redisClient.Get(ctx, cacheKey).Result()
	if err == nil {
		var summary model.UserSummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return &summary, nil
		}
	}

	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: looking up profile: %v", ErrInternal, err)
	}

	summary := user.Summary()
	if data, err := json.Marshal(summary); err == nil {
		s.redisClient.Set(ctx, cacheKey, data, 10*time.Minute)
	}
	return &summary, nil
}

// UpdateProfile applies the non-empty fields of the request to the
// user's record and invalidates the cached profile.
func (s *UserService) UpdateProfile(ctx context.Context, username string, req model.UpdateProfileRequest) (*model.UserSummary, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: looking up profile: %v", ErrInternal, err)
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	user.UpdatedAt = s.now()

	if err := s.userRepo.UpdateProfile(user); err != nil {
		return nil, fmt.Errorf("%w: updating profile: %v", ErrInternal, err)
	}

	// Invalidate under both keys in case the username changed.
	s.redisClient.Del(ctx, profileCacheKey(username), profileCacheKey(user.Username))

	logger.Log.WithField("user_id", user.ID).Info("Profile updated")
	summary := user.Summary()
	return &summary, nil
}

// ListUsers returns one page of users for the admin listing. Page is
// 1-based; size is clamped to 1..100.
func (s *UserService) ListUsers(page, size int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	users, total, err := s.userRepo.GetAllUsers(size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("%w: listing users: %v", ErrInternal, err)
	}

	summaries := make([]model.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, user.Summary())
	}
	return &UserPage{Users: summaries, Total: total, Page: page, Size: size}, nil
}

// UpdateUserRole validates the role and calls the repository to update it.
func (s *UserService) UpdateUserRole(userID int, newRole model.Role) error {
	if newRole != model.RoleGuest && newRole != model.RoleHotelOwner && newRole != model.RoleAdmin {
		return ErrInvalidRole
	}
	return s.userRepo.UpdateUserRole(userID, string(newRole))
}

// SetAccountLock toggles the account lock flag. Locked accounts cannot
// log in or refresh; their outstanding access tokens expire naturally.
func (s *UserService) SetAccountLock(userID int, locked bool) error {
	return s.userRepo.SetAccountLocked(userID, locked)
}
