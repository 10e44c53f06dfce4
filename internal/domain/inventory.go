package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"barstock/internal/pkg/quantity"
)

// TransactionType classifica uma movimentação do ledger.
type TransactionType string

const (
	TransactionReceipt    TransactionType = "RECEIPT"
	TransactionSale       TransactionType = "SALE"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
	TransactionCorrection TransactionType = "CORRECTION"
	// TransactionOther é o código de escape para movimentações fora das categorias conhecidas.
	TransactionOther TransactionType = "OTHER"
)

// IsValid informa se t é um dos tipos reconhecidos.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionReceipt, TransactionSale, TransactionAdjustment, TransactionCorrection, TransactionOther:
		return true
	}
	return false
}

// Inventory é o saldo (quantity-on-hand) de um produto em uma organização.
// Existe no máximo um registro por par (OrganizationID, ProductID) e Quantity nunca é negativa.
// Version é incrementada a cada ajuste (controle de concorrência otimista).
type Inventory struct {
	ID             int64             `json:"id" db:"id"`
	OrganizationID int64             `json:"organization_id" db:"organization_id"`
	ProductID      int64             `json:"product_id" db:"product_id"`
	ProductName    string            `json:"product_name,omitempty" db:"product_name"` // lido de products.name nas consultas
	Quantity       quantity.Quantity `json:"quantity" db:"quantity" swaggertype:"string" example:"70.0000"`
	Version        int64             `json:"version" db:"version"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// InventoryTransaction é uma entrada imutável do ledger.
// QuantityAfter == QuantityBefore + QuantityChange, exatamente.
// OrganizationID e ProductID são lidos do registro de inventário dono da entrada (não persistidos no ledger).
type InventoryTransaction struct {
	ID              int64             `json:"id" db:"id"`
	InventoryID     int64             `json:"inventory_id" db:"inventory_id"`
	OrganizationID  int64             `json:"organization_id" db:"organization_id"`
	ProductID       int64             `json:"product_id" db:"product_id"`
	TransactionType TransactionType   `json:"transaction_type" db:"transaction_type"`
	QuantityChange  quantity.Quantity `json:"quantity_change" db:"quantity_change" swaggertype:"string" example:"-30.0000"`
	QuantityBefore  quantity.Quantity `json:"quantity_before" db:"quantity_before" swaggertype:"string" example:"100.0000"`
	QuantityAfter   quantity.Quantity `json:"quantity_after" db:"quantity_after" swaggertype:"string" example:"70.0000"`
	ReferenceID     string            `json:"reference_id,omitempty" db:"reference_id"`
	Notes           string            `json:"notes,omitempty" db:"notes"`
	CreatedBy       *uuid.UUID        `json:"created_by,omitempty" db:"created_by" swaggertype:"string"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

// AdjustmentRequest é o payload de POST /v1/inventory/adjustments.
// A organização e o ator vêm do token, nunca do corpo.
type AdjustmentRequest struct {
	ProductID       int64           `json:"product_id" validate:"required,gt=0" example:"42"`
	TransactionType TransactionType `json:"transaction_type" validate:"required,oneof=RECEIPT SALE ADJUSTMENT CORRECTION OTHER" example:"SALE"`
	QuantityChange  string          `json:"quantity_change" validate:"required" example:"-5"`
	ReferenceID     string          `json:"reference_id,omitempty" validate:"omitempty,max=100" example:"order-42"`
	Notes           string          `json:"notes,omitempty" validate:"omitempty,max=500"`
	ActorID         *uuid.UUID      `json:"-"`
}

// AdjustmentOutcome é o resultado de um ajuste.
// Replayed indica que o referenceId já havia sido processado e Transaction é a entrada original.
type AdjustmentOutcome struct {
	Transaction InventoryTransaction
	Replayed    bool
}

// LedgerDiscrepancy aponta um registro cujo saldo difere da soma das movimentações do ledger.
type LedgerDiscrepancy struct {
	InventoryID    int64             `json:"inventory_id" db:"inventory_id"`
	OrganizationID int64             `json:"organization_id" db:"organization_id"`
	ProductID      int64             `json:"product_id" db:"product_id"`
	Quantity       quantity.Quantity `json:"quantity" db:"quantity" swaggertype:"string"`
	LedgerSum      quantity.Quantity `json:"ledger_sum" db:"ledger_sum" swaggertype:"string"`
}

// ErrDuplicateReference é retornado por Append quando o referenceId já existe no ledger.
var ErrDuplicateReference = errors.New("reference_id já registrado no ledger")

// --- Interfaces de Contrato ---

// InventoryRepository é o armazenamento de saldos.
type InventoryRepository interface {
	// FindByOrgAndProduct retorna NotFoundError quando não há registro para o par.
	FindByOrgAndProduct(ctx context.Context, orgID, productID int64) (Inventory, error)
	FindAllByOrg(ctx context.Context, orgID int64) ([]Inventory, error)
	// CreateIfAbsent devolve o registro existente sem alterá-lo, ou cria um com initial (>= 0).
	CreateIfAbsent(ctx context.Context, orgID, productID int64, initial quantity.Quantity) (Inventory, error)
	// LockByID lê o registro e o bloqueia até o fim da transação corrente.
	LockByID(ctx context.Context, inventoryID int64) (Inventory, error)
	// ApplyAdjustment soma delta ao saldo. Retorna NegativeQuantityError sem mutação
	// quando o resultado seria negativo e ConcurrencyError quando a versão mudou.
	ApplyAdjustment(ctx context.Context, inventoryID int64, delta quantity.Quantity) (Inventory, error)
	ExistsByProductID(ctx context.Context, orgID, productID int64) (bool, error)
}

// InventoryTransactionRepository é o ledger append-only. Não há caminho de update/delete.
type InventoryTransactionRepository interface {
	// Append atribui ID e CreatedAt. Retorna ErrDuplicateReference se o referenceId já existe.
	Append(ctx context.Context, entry InventoryTransaction) (InventoryTransaction, error)
	// ListByInventory ordena por CreatedAt desc (ID desc como desempate).
	ListByInventory(ctx context.Context, inventoryID int64) ([]InventoryTransaction, error)
	ListByReferenceID(ctx context.Context, referenceID string) ([]InventoryTransaction, error)
}

// InventoryUnitOfWork agrupa os dois repositórios sobre a mesma conexão ou transação.
type InventoryUnitOfWork interface {
	Inventory() InventoryRepository
	Transactions() InventoryTransactionRepository
}

// InventoryStore é o ponto de entrada da persistência de inventário.
type InventoryStore interface {
	InventoryUnitOfWork
	// RunInTx executa fn atomicamente: tudo o que fn grava é confirmado junto ou descartado.
	RunInTx(ctx context.Context, fn func(ctx context.Context, uow InventoryUnitOfWork) error) error
	// FindDiscrepancies lista registros cujo saldo difere da soma do ledger.
	FindDiscrepancies(ctx context.Context) ([]LedgerDiscrepancy, error)
}
