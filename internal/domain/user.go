package domain

import (
	"context"
	"time"
)

// User representa a entidade do usuário no sistema.
// O ID do usuário é o ator (created_by) gravado nas movimentações de estoque.
type User struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID int64     `json:"organization_id" db:"organization_id"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"` // Oculta o hash da senha no JSON de resposta
	Role           UserRole  `json:"role" db:"role"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	OrganizationID int64  `json:"organization_id" validate:"required,gt=0"`
}

// UserRepository define o contrato de persistência para a entidade User.
type UserRepository interface {
	Save(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}
