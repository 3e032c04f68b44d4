package service

import (
	"context"
	"errors"
	"time"

	"davra/internal/crypto"
	"davra/internal/models"
	"davra/internal/repository"

	"gorm.io/gorm"
)

// UserService implements registration, profiles, and the follow graph.
type UserService struct {
	userRepo    repository.UserRepository
	cipher      *crypto.Cipher
	coordinator *Coordinator
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, cipher *crypto.Cipher, coordinator *Coordinator) *UserService {
	return &UserService{userRepo: userRepo, cipher: cipher, coordinator: coordinator}
}

// CreateUserInput carries a registration request. Muslim is a pointer so a
// missing field can be told apart from an explicit false.
type CreateUserInput struct {
	Username  string
	Password  string
	Email     string
	FullName  string
	Birthdate time.Time
	Gender    models.Gender
	Muslim    *bool
}

// UpdateUserInput carries a partial profile update; nil fields are untouched.
type UpdateUserInput struct {
	RequesterID uint
	UserID      uint
	FullName    *string
	Email       *string
	Password    *string
	Birthdate   *time.Time
	Gender      *models.Gender
	Muslim      *bool
}

// CreateUser validates the profile, encrypts the credential, and persists the
// user. A taken username is a conflict, every other problem a validation error.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	switch {
	case in.Username == "":
		return nil, models.NewValidationError("Username is required")
	case in.Password == "":
		return nil, models.NewValidationError("Password is required")
	case in.Birthdate.IsZero():
		return nil, models.NewValidationError("Birthdate is required")
	case !in.Gender.Valid():
		return nil, models.NewValidationError("Gender must be male or female")
	case in.Muslim == nil:
		return nil, models.NewValidationError("Religious affiliation flag is required")
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username is already taken")
	}

	ciphertext, iv, err := s.cipher.Encrypt(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	fullName := in.FullName
	if fullName == "" {
		fullName = models.DefaultFullName
	}

	user := &models.User{
		Username:   in.Username,
		Email:      in.Email,
		Password:   ciphertext,
		PasswordIV: iv,
		FullName:   fullName,
		Birthdate:  in.Birthdate,
		Gender:     in.Gender,
		Muslim:     *in.Muslim,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate resolves a username/password pair to the stored user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.cipher.Verify(user.Password, user.PasswordIV, password) {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	return user, nil
}

// GetUser fetches one user by id.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("User", id)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns one page of users in insertion order plus the total count.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int64, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateUser applies a partial profile update. Only the account owner may edit.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user.ID != in.RequesterID {
		return nil, models.NewForbiddenError("You can only edit your own profile")
	}

	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Birthdate != nil {
		if in.Birthdate.IsZero() {
			return nil, models.NewValidationError("Birthdate cannot be empty")
		}
		user.Birthdate = *in.Birthdate
	}
	if in.Gender != nil {
		if !in.Gender.Valid() {
			return nil, models.NewValidationError("Gender must be male or female")
		}
		user.Gender = *in.Gender
	}
	if in.Muslim != nil {
		user.Muslim = *in.Muslim
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, models.NewValidationError("Password cannot be empty")
		}
		ciphertext, iv, err := s.cipher.Encrypt(*in.Password)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = ciphertext
		user.PasswordIV = iv
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser cascades the account away. Only the account owner may delete.
func (s *UserService) DeleteUser(ctx context.Context, requesterID, userID uint) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.ID != requesterID {
		return models.NewForbiddenError("You can only delete your own account")
	}
	return s.coordinator.DeleteUser(ctx, userID)
}

// Follow inserts the directed edge from follower to target and updates both
// counters. Self-follows are rejected, duplicate edges are conflicts.
func (s *UserService) Follow(ctx context.Context, followerID, targetID uint) error {
	if followerID == targetID {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.GetUser(ctx, followerID); err != nil {
		return err
	}
	if _, err := s.GetUser(ctx, targetID); err != nil {
		return err
	}

	following, err := s.userRepo.IsFollowing(ctx, followerID, targetID)
	if err != nil {
		return err
	}
	if following {
		return models.NewConflictError("You are already following this user")
	}
	return s.userRepo.Follow(ctx, followerID, targetID)
}

// Unfollow removes the edge; a missing edge is a conflict.
func (s *UserService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	if followerID == targetID {
		return models.NewValidationError("You cannot unfollow yourself")
	}
	if _, err := s.GetUser(ctx, followerID); err != nil {
		return err
	}
	if _, err := s.GetUser(ctx, targetID); err != nil {
		return err
	}

	following, err := s.userRepo.IsFollowing(ctx, followerID, targetID)
	if err != nil {
		return err
	}
	if !following {
		return models.NewConflictError("You are not following this user")
	}
	return s.userRepo.Unfollow(ctx, followerID, targetID)
}
