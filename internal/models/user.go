package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID            string    `json:"id" bun:"id,pk"`
	Name          string    `json:"name" bun:"name,notnull"`
	Email         string    `json:"email" bun:"email,notnull,unique"`
	EmailVerified bool      `json:"emailVerified" bun:"email_verified,notnull"`
	Image         *string   `json:"image,omitempty" bun:"image"`
	PasswordHash  *string   `json:"-" bun:"password_hash"`
	CreatedAt     time.Time `json:"createdAt" bun:"created_at,notnull"`
	UpdatedAt     time.Time `json:"updatedAt" bun:"updated_at,notnull"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
