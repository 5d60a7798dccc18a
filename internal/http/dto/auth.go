// Входные/выходные модели REST. JSON — camelCase, как ждёт мобильный клиент.
package dto

import (
	"time"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/service"
)

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role,omitempty"`
	UserImage string `json:"userImage,omitempty"`
}

func (m RegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{
		Username:  m.Username,
		Email:     m.Email,
		Password:  m.Password,
		Role:      models.Role(m.Role),
		UserImage: m.UserImage,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// User — пользователь без хэша пароля и версии токенов.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	UserImage   string    `json:"userImage"`
	GoogleID    string    `json:"googleId,omitempty"`
	CurrentBook string    `json:"currentBook,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func UserFromModel(u *models.User) *User {
	if u == nil {
		return nil
	}

	return &User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		UserImage:   u.UserImage,
		GoogleID:    u.GoogleID,
		CurrentBook: u.CurrentBook,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type AuthResponse struct {
	Message      string `json:"message"`
	Success      bool   `json:"success"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

func AuthFromResult(msg string, res *models.AuthResult) AuthResponse {
	return AuthResponse{
		Message:      msg,
		Success:      true,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		User:         UserFromModel(res.User),
	}
}

type TokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
