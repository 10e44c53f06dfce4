package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// AppError é a interface central para todos os erros customizados do serviço.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito definitivo (recurso duplicado, tentativas de OCC esgotadas).
type ConflictError struct {
	Msg string
	Err error
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return e.Err }

// NewConflictError cria um novo erro de conflito.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// NewConflictErrorWithCause cria um erro de conflito preservando a causa (e.g., o último ConcurrencyError).
func NewConflictErrorWithCause(msg string, err error) AppError {
	return &ConflictError{Msg: msg, Err: err}
}

// ConcurrencyError é um conflito TRANSITÓRIO: versão desatualizada, lock_timeout,
// deadlock ou falha de serialização. O serviço de ajuste tenta novamente; nunca chega ao cliente.
type ConcurrencyError struct {
	Msg string
	Err error
}

func (e *ConcurrencyError) Error() string    { return fmt.Sprintf("Conflito de concorrência: %s", e.Msg) }
func (e *ConcurrencyError) Category() string { return "CONCURRENCY_CONFLICT" }
func (e *ConcurrencyError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConcurrencyError) Unwrap() error    { return e.Err }

// NewConcurrencyError cria um erro de concorrência transitório.
func NewConcurrencyError(msg string, err error) AppError {
	return &ConcurrencyError{Msg: msg, Err: err}
}

// NegativeQuantityError é retornado pelo repositório quando um ajuste deixaria a quantidade negativa.
// Nenhuma mutação é feita quando este erro é retornado.
type NegativeQuantityError struct {
	InventoryID int64
	Current     string
	Delta       string
}

func (e *NegativeQuantityError) Error() string {
	return fmt.Sprintf("Quantidade negativa: inventário %d possui %s, ajuste %s", e.InventoryID, e.Current, e.Delta)
}
func (e *NegativeQuantityError) Category() string { return "NEGATIVE_QUANTITY" }
func (e *NegativeQuantityError) HTTPStatus() int  { return http.StatusUnprocessableEntity } // 422
func (e *NegativeQuantityError) Unwrap() error    { return nil }

// InsufficientStockError é a regra de negócio violada que o serviço devolve ao cliente
// quando um ajuste deixaria o estoque negativo.
type InsufficientStockError struct {
	OrganizationID int64
	ProductID      int64
	Available      string
	Requested      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Estoque insuficiente: organização %d, produto %d, disponível %s, ajuste solicitado %s",
		e.OrganizationID, e.ProductID, e.Available, e.Requested)
}
func (e *InsufficientStockError) Category() string { return "INSUFFICIENT_STOCK" }
func (e *InsufficientStockError) HTTPStatus() int  { return http.StatusUnprocessableEntity } // 422
func (e *InsufficientStockError) Unwrap() error    { return nil }

// UnauthorizedError representa falhas de autenticação/autorização.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autorização.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// TimeoutError representa uma operação que excedeu o prazo (contexto ou lock de linha).
type TimeoutError struct {
	Msg string
	Err error
}

func (e *TimeoutError) Error() string    { return fmt.Sprintf("Tempo esgotado: %s", e.Msg) }
func (e *TimeoutError) Category() string { return "TIMEOUT" }
func (e *TimeoutError) HTTPStatus() int  { return http.StatusGatewayTimeout } // 504
func (e *TimeoutError) Unwrap() error    { return e.Err }

// NewTimeoutError cria um erro de tempo esgotado.
func NewTimeoutError(msg string, err error) AppError {
	return &TimeoutError{Msg: msg, Err: err}
}

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// SQLSTATEs do PostgreSQL tratados como conflitos transitórios.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03" // lock_timeout
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
)

// NewDBError classifica um erro de banco: timeouts de contexto viram TimeoutError,
// falhas de lock/serialização viram ConcurrencyError e o resto vira InternalError.
func NewDBError(msg string, err error) AppError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(msg, err)
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return NewConcurrencyError(fmt.Sprintf("%s (DB %s)", msg, pqErr.Code), err)
		}
	}

	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// IsUniqueViolation informa se err é uma violação de índice único do PostgreSQL.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// IsForeignKeyViolation informa se err é uma violação de chave estrangeira do PostgreSQL.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}

// IsTransient informa se err deve ser tentado novamente pelo serviço.
func IsTransient(err error) bool {
	var concurrencyErr *ConcurrencyError
	return stderrors.As(err, &concurrencyErr)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		// O erro é tipado (ValidationError, NotFoundError, etc.)
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado: tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
