// Package models содержит доменные сущности bookshelf.
package models

import "time"

// Role — роль пользователя.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Изображения по умолчанию для пользователя и книги.
const (
	DefaultUserImage  = "https://placehold.co/400x400/000000/FFFFFF?text=User"
	DefaultCoverImage = "https://placehold.co/300x400/000000/FFFFFF?text=Book"
)

// User — учётная запись читателя (MongoDB, коллекция users).
// Важно:
//   - ID — UUID в строковом виде, хранится в _id;
//   - Email хранится в нижнем регистре и уникален;
//   - PasswordHash пуст у аккаунтов, созданных через Google;
//   - TokenVersion увеличивается при logout и отзывает все refresh-токены.
type User struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password,omitempty"`
	Role         Role      `bson:"role"`
	UserImage    string    `bson:"userImage,omitempty"`
	GoogleID     string    `bson:"googleId,omitempty"`
	TokenVersion int64     `bson:"tokenVersion"`
	CurrentBook  string    `bson:"currentBook,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

// HasPassword сообщает, можно ли войти в аккаунт по паролю.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Principal — проверенная личность, извлечённая из access-токена.
type Principal struct {
	UserID   string
	Role     Role
	Username string
	Email    string
}

// IsAdmin сообщает, обладает ли субъект ролью администратора.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// PrincipalOf строит Principal из учётной записи.
func PrincipalOf(u *User) Principal {
	return Principal{
		UserID:   u.ID,
		Role:     u.Role,
		Username: u.Username,
		Email:    u.Email,
	}
}

// GoogleProfile — профиль, полученный от Google после обмена кода.
type GoogleProfile struct {
	ID            string
	DisplayName   string
	Email         string
	EmailVerified bool
	Picture       string
}
