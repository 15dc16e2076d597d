package application

import (
	"time"

	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
)

// UserView is the public projection of a user. It never carries credentials.
type UserView struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	DisplayName   string     `json:"display_name"`
	Avatar        string     `json:"avatar,omitempty"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

func NewUserView(u *entity.User) UserView {
	return UserView{
		ID:            u.ID().String(),
		Email:         u.Email().String(),
		FirstName:     u.FirstName(),
		LastName:      u.LastName(),
		DisplayName:   u.DisplayName(),
		Avatar:        u.Avatar(),
		Role:          u.Role().String(),
		Status:        u.Status().String(),
		EmailVerified: u.EmailVerified(),
		CreatedAt:     u.CreatedAt(),
		UpdatedAt:     u.UpdatedAt(),
		LastLoginAt:   u.LastLoginAt(),
	}
}

func NewUserViews(users []*entity.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserView(u))
	}
	return out
}

// AuthResult is returned by every use case that signs a user in.
// ExpiresIn is the access token lifetime in seconds.
type AuthResult struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	User         UserView `json:"user"`
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type ExternalLoginInput struct {
	Token     string
	IPAddress string
	UserAgent string
}

type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Avatar    string
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}
