package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chat-realtime/internal/models"

	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
)

const (
	searchLimit  = 10
	suggestLimit = 5
)

type UserService struct {
	repo   UserRepository
	tokens *TokenManager
	logger *slog.Logger
}

func NewUserService(repo UserRepository, tokens *TokenManager, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:   repo,
		tokens: tokens,
		logger: logger,
	}
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Password == "" || req.Username == "" {
		return nil, ErrInvalidRequest
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		FullName: strings.TrimSpace(req.FullName),
	}

	// Repository handles email and username uniqueness
	if err := s.repo.Create(ctx, &user); err != nil {
		s.logger.Warn("Registration failed", "email", req.Email, "username", req.Username, "error", err)
		return nil, err
	}

	s.logger.Info("User registered", "userID", user.ID, "username", user.Username)
	resp := user.ToResponse()
	return &resp, nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateProfile updates the user's profile information
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserResponse, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.Password != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			return nil, ErrWrongPassword
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash new password: %w", err)
		}
		user.Password = string(hashedPassword)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

// SearchUsers searches for users by username or full name (partial match)
func (s *UserService) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.UserSummary{}, nil
	}

	users, err := s.repo.SearchUsersByUsername(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u models.User, _ int) models.UserSummary { return u.Summary() }), nil
}

// GetPublicProfile looks a user up by username as seen by viewerID.
func (s *UserService) GetPublicProfile(ctx context.Context, viewerID, username string) (*models.PublicProfileResponse, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}

	followers, following, err := s.repo.CountFollows(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := &models.PublicProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
		Followers: followers,
		Following: following,
	}
	if viewer, err := models.ParseUserID(viewerID); err == nil && viewer != user.ID {
		if resp.IsFollowing, err = s.repo.IsFollowing(ctx, viewer, user.ID); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// ToggleFollow follows targetID, or unfollows it when userID already does.
func (s *UserService) ToggleFollow(ctx context.Context, userID, targetID string) (*models.FollowResponse, error) {
	if userID == targetID {
		return nil, ErrFollowSelf
	}
	follower, err := models.ParseUserID(userID)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	target, err := s.findUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	following, err := s.repo.IsFollowing(ctx, follower, target.ID)
	if err != nil {
		return nil, err
	}
	if following {
		if err := s.repo.Unfollow(ctx, follower, target.ID); err != nil {
			return nil, err
		}
		s.logger.Info("User unfollowed", "userID", userID, "targetID", targetID)
		return &models.FollowResponse{Following: false, Message: "User unfollowed successfully"}, nil
	}

	if err := s.repo.Follow(ctx, follower, target.ID); err != nil {
		return nil, err
	}
	s.logger.Info("User followed", "userID", userID, "targetID", targetID)
	return &models.FollowResponse{Following: true, Message: "User followed successfully"}, nil
}

// SuggestedUsers lists a few users the caller does not follow yet.
func (s *UserService) SuggestedUsers(ctx context.Context, userID string) ([]models.UserSummary, error) {
	id, err := models.ParseUserID(userID)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	users, err := s.repo.SuggestUsers(ctx, id, suggestLimit)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u models.User, _ int) models.UserSummary { return u.Summary() }), nil
}

// Summaries resolves user ids to summaries. Malformed or unknown ids are
// absent from the result.
func (s *UserService) Summaries(ctx context.Context, userIDs []string) (map[string]models.UserSummary, error) {
	ids := make([]uint, 0, len(userIDs))
	for _, id := range lo.Uniq(userIDs) {
		if n, err := models.ParseUserID(id); err == nil {
			ids = append(ids, n)
		}
	}

	users, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.UserSummary, len(users))
	for _, u := range users {
		out[u.IDString()] = u.Summary()
	}
	return out, nil
}

func (s *UserService) findUser(ctx context.Context, userID string) (*models.User, error) {
	id, err := models.ParseUserID(userID)
	if err != nil {
		return nil, models.ErrUserNotFound
	}
	return s.repo.FindByID(ctx, id)
}
