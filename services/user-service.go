package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-manager/server/apierror"
	"task-manager/server/logging"
	"task-manager/server/models"
	"task-manager/server/repositories"
	"task-manager/server/utils"
)

const recentUsersLimit = 5

type UserService struct {
	users    UserStore
	tasks    TaskStore
	tokens   *JWTService
	notifier Notifier
	hashCost int
	now      func() time.Time
}

func NewUserService(users UserStore, tasks TaskStore, tokens *JWTService, notifier Notifier) *UserService {
	return &UserService{
		users:    users,
		tasks:    tasks,
		tokens:   tokens,
		notifier: notifier,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	v := &validator{}
	user := &models.User{
		Username: v.username(in.Username),
		Email:    v.email(in.Email),
		Role:     models.RoleUser,
	}
	v.password(in.Password)
	if in.Role != "" {
		user.Role = models.Role(in.Role)
		if !user.Role.Valid() {
			v.add("role", "Invalid role", in.Role)
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password, s.hashCost)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	user.Password = hash
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt

	if err := s.users.Insert(ctx, user); err != nil {
		return nil, userStoreError("register", err)
	}
	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered with role %s", user.ID.Hex(), user.Role)

	s.notifier.NotifyWelcome(user.Email, user.Username)
	return user, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	v := &validator{}
	if in.Email == "" {
		v.add("email", "Email is required", nil)
	}
	if in.Password == "" {
		v.add("password", "Password is required", nil)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	invalid := apierror.Unauthenticated("Invalid credentials")
	user, err := s.users.FindByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, apierror.Internal(err)
	}
	if err := utils.CheckPassword(user.Password, in.Password); err != nil {
		if errors.Is(err, utils.ErrPasswordMismatch) {
			logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Wrong password for user %s", user.ID.Hex())
			return nil, invalid
		}
		return nil, apierror.Internal(err)
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) Profile(ctx context.Context, identity models.Identity) (*models.User, error) {
	user, err := s.users.FindByID(ctx, identity.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apierror.Unauthenticated("User no longer exists")
	}
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, identity models.Identity, in UpdateProfileInput) (*models.User, error) {
	v := &validator{}
	var c models.UserChanges
	if in.Username != nil {
		username := v.username(*in.Username)
		c.Username = &username
	}
	if in.Email != nil {
		email := v.email(*in.Email)
		c.Email = &email
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, identity.ID, c, s.now())
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apierror.Unauthenticated("User no longer exists")
	}
	if err != nil {
		return nil, userStoreError("update profile", err)
	}
	return user, nil
}

// AdminStats summarises users and tasks across all owners.
func (s *UserService) AdminStats(ctx context.Context, identity models.Identity) (*models.UserStats, error) {
	if err := authorize(identity, models.RoleAdmin); err != nil {
		return nil, err
	}

	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	totalTasks, err := s.tasks.CountAll(ctx)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	recent, err := s.users.Recent(ctx, recentUsersLimit)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	return &models.UserStats{TotalUsers: totalUsers, TotalTasks: totalTasks, RecentUsers: recent}, nil
}

func userStoreError(op string, err error) error {
	var dup *repositories.DuplicateKeyError
	if errors.As(err, &dup) {
		return apierror.Conflict(fmt.Sprintf("Duplicate field value entered for %s", dup.Field))
	}
	logging.Logger.Errorf("Event ID: USER_STORE_ERROR, Description: %s failed: %v", op, err)
	return apierror.Internal(err)
}
