package handlers

import (
	"log/slog"
	"net/http"

	"chat-realtime/internal/api/middleware"
	"chat-realtime/internal/models"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService UserService
	groups      GroupSearcher
	roster      OnlineRoster
	logger      *slog.Logger
}

func NewUserHandler(userService UserService, groups GroupSearcher, roster OnlineRoster, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{userService: userService, groups: groups, roster: roster, logger: logger}
}

// GetProfile godoc
// @Summary Get user profile
// @Description Get the current user's profile information
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse "User profile retrieved successfully"
// @Failure 401 {object} models.ErrorResponse "Unauthorized - invalid or missing token"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Update username, full name, avatar or password. Changing the password requires the current one.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Fields to update"
// @Success 200 {object} models.UserResponse "Profile updated"
// @Failure 400 {object} models.ErrorResponse "Bad request - invalid input data"
// @Failure 409 {object} models.ErrorResponse "Username already taken"
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Search godoc
// @Summary Search users and groups
// @Description Search users by username or full name and the caller's groups by name (partial match)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Success 200 {object} models.SearchResponse "Matching users and groups"
// @Router /users/search [get]
func (h *UserHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	query := c.Query("q")

	users, err := h.userService.SearchUsers(ctx, query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	groups, err := h.groups.SearchGroups(ctx, middleware.GetUserID(c), query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.SearchResponse{Users: users, Groups: groups})
}

// GetPublicProfile godoc
// @Summary Get a user's public profile
// @Description Profile of any user by username, with follower counts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} models.PublicProfileResponse "Public profile"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/profile/{username} [get]
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	profile, err := h.userService.GetPublicProfile(c.Request.Context(), middleware.GetUserID(c), c.Param("username"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetSuggestedUsers godoc
// @Summary Suggested users
// @Description A few users the caller does not follow yet
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserSummary "Suggested users"
// @Router /users/suggested [get]
func (h *UserHandler) GetSuggestedUsers(c *gin.Context) {
	users, err := h.userService.SuggestedUsers(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// ToggleFollow godoc
// @Summary Follow or unfollow a user
// @Description Follows the user, or unfollows when already following
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.FollowResponse "Follow state after the toggle"
// @Failure 400 {object} models.ErrorResponse "Cannot follow yourself"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/follow/{id} [post]
func (h *UserHandler) ToggleFollow(c *gin.Context) {
	resp, err := h.userService.ToggleFollow(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetOnlineUsers godoc
// @Summary Online users
// @Description Users with at least one live realtime connection on this server
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.OnlineUsersResponse "Online user ids"
// @Router /users/online [get]
func (h *UserHandler) GetOnlineUsers(c *gin.Context) {
	ids := h.roster.OnlineUserIDs()
	c.JSON(http.StatusOK, models.OnlineUsersResponse{UserIDs: ids, Count: len(ids)})
}
