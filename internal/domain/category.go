package domain

import (
	"context"
	"time"
)

// Category agrupa produtos do cardápio. DynamicPricing habilita preço dinâmico para os produtos da categoria.
type Category struct {
	ID             int64     `json:"id" db:"id"`
	OrganizationID int64     `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	DynamicPricing bool      `json:"dynamic_pricing" db:"dynamic_pricing"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryRequest é o payload de criação. DynamicPricing ausente equivale a true.
type CategoryRequest struct {
	Name           string `json:"name" validate:"required,max=100" example:"Cervejas"`
	DynamicPricing *bool  `json:"dynamic_pricing,omitempty" example:"true"`
}

// CategoryRepository define o contrato de persistência de categorias (sempre escopado por organização).
type CategoryRepository interface {
	Save(ctx context.Context, category Category) (Category, error)
	FindByID(ctx context.Context, orgID, id int64) (Category, error)
	FindAllByOrg(ctx context.Context, orgID int64) ([]Category, error)
	// ExistsByName compara nomes sem diferenciar maiúsculas/minúsculas.
	ExistsByName(ctx context.Context, orgID int64, name string) (bool, error)
	Delete(ctx context.Context, orgID, id int64) error
}
