package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:50;not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"size:100;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	FirstName    string    `json:"first_name" gorm:"size:50;not null"`
	LastName     string    `json:"last_name" gorm:"size:50;not null"`
	Phone        *string   `json:"phone" gorm:"size:20"`
	AvatarURL    *string   `json:"avatar_url" gorm:"size:255"`
	Role         string    `json:"role" gorm:"size:10;not null;default:user"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	FirebaseUID  *string   `json:"-" gorm:"size:128;uniqueIndex"` // set only for federated accounts
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Email     string  `json:"email" validate:"required,email,max=100"`
	Password  string  `json:"password" validate:"required,min=6"`
	FirstName string  `json:"first_name" validate:"required,max=50"`
	LastName  string  `json:"last_name" validate:"required,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=50"`
	LastName  string  `json:"last_name" validate:"required,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

// FirebaseLoginRequest carries a Firebase ID token obtained by the client.
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
