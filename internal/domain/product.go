package domain

import (
	"context"
	"time"
)

// Product representa o item do catálogo cujo estoque é controlado.
type Product struct {
	ID             int64     `json:"id" db:"id"`
	OrganizationID int64     `json:"organization_id" db:"organization_id"`
	CategoryID     *int64    `json:"category_id,omitempty" db:"category_id"`
	Name           string    `json:"name" db:"name" validate:"required,max=200"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ProductRepository é a interface que a camada de Repositório (Data Access) DEVE implementar.
type ProductRepository interface {
	Save(ctx context.Context, product Product) (Product, error)
	FindByID(ctx context.Context, orgID, id int64) (Product, error)
	FindAllByOrg(ctx context.Context, orgID int64) ([]Product, error)
	Delete(ctx context.Context, orgID, id int64) error
}
