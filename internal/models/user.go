package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// User represents the user entity
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"` // Username for the user
	Email    string `gorm:"uniqueIndex;not null" json:"email"`    // Unique email for the user
	Password string `json:"-"`                                    // Password is hashed and not returned in responses
	FullName string `json:"fullName,omitempty"`
	// Avatar is optional and stores a profile picture URL
	Avatar string `json:"avatar,omitempty"`
}

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"followerId"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Follow) TableName() string {
	return "user_follows"
}

// IDString is the id used by the document store and the realtime layer.
func (u *User) IDString() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.IDString(),
		Username:   u.Username,
		FullName:   u.FullName,
		ProfileImg: u.Avatar,
	}
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
		Avatar:    u.Avatar,
	}
}

// ParseUserID converts a string id back into the gorm primary key.
func ParseUserID(id string) (uint, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, ErrInvalidID
	}
	return uint(n), nil
}

/** -------------------- DTOs -------------------- */
// Request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"omitempty,max=100"`
}

// LoginRequest represents the request for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Response
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Avatar    string    `json:"avatar,omitempty"`
}

// LoginResponse represents the response for a successful login
// swagger:model
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UpdateProfileRequest changes profile fields; a new password needs the
// current one.
type UpdateProfileRequest struct {
	Username        *string `json:"username,omitempty" binding:"omitempty,min=3,max=50"`
	FullName        *string `json:"fullName,omitempty" binding:"omitempty,max=100"`
	Avatar          *string `json:"avatar,omitempty"` // Optional avatar URL
	Password        *string `json:"password,omitempty" binding:"omitempty,min=6"`
	CurrentPassword string  `json:"currentPassword"`
}

// UserSummary is the public view of a user embedded in conversations,
// messages and realtime events.
type UserSummary struct {
	ID         string `json:"_id"`
	Username   string `json:"username,omitempty"`
	FullName   string `json:"fullName,omitempty"`
	ProfileImg string `json:"profileImg,omitempty"`
}

// PublicProfileResponse is what other users see of a profile.
type PublicProfileResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"fullName,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Followers   int64     `json:"followers"`
	Following   int64     `json:"following"`
	IsFollowing bool      `json:"isFollowing"`
}

// FollowResponse reports the follow state after a toggle.
type FollowResponse struct {
	Following bool   `json:"following"`
	Message   string `json:"message"`
}

// SearchResponse groups user and group matches of a search.
type SearchResponse struct {
	Users  []UserSummary  `json:"users"`
	Groups []GroupSummary `json:"groups"`
}

// OnlineUsersResponse is returned by the presence endpoint.
type OnlineUsersResponse struct {
	UserIDs []string `json:"userIds"`
	Count   int      `json:"count"`
}
