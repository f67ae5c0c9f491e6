package dto

import (
	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
)

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,min=3,max=32,username"`
	Password string `json:"password" binding:"required,min=6,max=32"`
	Name     string `json:"name" binding:"required,max=64"`
	Phone    string `json:"phone" binding:"max=32"`
	Admin    bool   `json:"admin"`
}

type UpdateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,min=3,max=32,username"`
	Name     string `json:"name" binding:"required,max=64"`
	Phone    string `json:"phone" binding:"max=32"`
	Admin    bool   `json:"admin"`
}

type UserResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Admin     bool   `json:"admin"`
	Confirmed bool   `json:"confirmed"`
	LastSeen  *int64 `json:"last_seen"`
	CreatedAt int64  `json:"created_at"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		URL:       ResourceURL(constants.RouteUsers, u.ID),
		Email:     u.Email,
		Username:  u.Username,
		Name:      u.Name,
		Phone:     u.Phone,
		Admin:     u.Admin,
		Confirmed: u.Confirmed,
		LastSeen:  EpochPtr(u.LastSeen),
		CreatedAt: u.CreatedAt.Unix(),
	}
}

type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserLoginResponse struct {
	User       UserResponse `json:"user"`
	Token      string       `json:"token"`
	Expiration int          `json:"expiration"`
}

type TokenResponse struct {
	Token      string `json:"token"`
	Expiration int    `json:"expiration"`
}

type ResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=32"`
}

type ChangeEmailRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	Password    string `json:"password" binding:"required,min=6,max=32"`
}
