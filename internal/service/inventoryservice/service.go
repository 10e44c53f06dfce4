package inventoryservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/cache"
	"barstock/internal/pkg/logger"
	"barstock/internal/pkg/quantity"
)

// ProductLookup confirma a existência do produto na organização antes de criar saldo para ele.
type ProductLookup interface {
	Exists(ctx context.Context, orgID, productID int64) (bool, error)
}

// maxRetryDelay limita a espera entre tentativas, qualquer que seja a base.
const maxRetryDelay = time.Second

// Config define os limites de retry e o TTL do cache de idempotência.
type Config struct {
	MaxRetries     uint64        // tentativas extras após um conflito transitório
	RetryBase      time.Duration // backoff exponencial: base, 2*base, 4*base...
	IdempotencyTTL time.Duration
}

// Service é o único escritor dos saldos e do ledger.
type Service struct {
	store    domain.InventoryStore
	products ProductLookup // opcional: nil desativa a checagem de produto
	cache    cache.Client  // opcional: nil desativa o cache de idempotência
	validate *validator.Validate
	tracer   trace.Tracer
	cfg      Config
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Inventário.
func NewService(store domain.InventoryStore, products ProductLookup, cacheClient cache.Client, cfg Config, log logger.Logger) *Service {
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 10 * time.Millisecond
	}

	validate := validator.New()
	// Mensagens de validação usam o nome JSON do campo.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		store:    store,
		products: products,
		cache:    cacheClient,
		validate: validate,
		tracer:   otel.Tracer("barstock/inventoryservice"),
		cfg:      cfg,
		logger:   log,
	}
}

// Adjust aplica uma movimentação de estoque e registra a entrada no ledger, atomicamente.
// Com referenceId já processado, devolve a entrada original sem nova mutação (Replayed = true).
func (s *Service) Adjust(ctx context.Context, orgID int64, req domain.AdjustmentRequest) (domain.AdjustmentOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.adjust", trace.WithAttributes(
		attribute.Int64("inventory.organization_id", orgID),
		attribute.Int64("inventory.product_id", req.ProductID),
		attribute.String("inventory.transaction_type", string(req.TransactionType)),
		attribute.String("inventory.reference_id", req.ReferenceID),
	))
	defer span.End()

	outcome, err := s.adjust(ctx, orgID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.AdjustmentOutcome{}, err
	}
	span.SetAttributes(
		attribute.Bool("inventory.replayed", outcome.Replayed),
		attribute.String("inventory.quantity_after", outcome.Transaction.QuantityAfter.String()),
	)
	return outcome, nil
}

func (s *Service) adjust(ctx context.Context, orgID int64, req domain.AdjustmentRequest) (domain.AdjustmentOutcome, error) {
	fields := map[string]interface{}{
		"organization_id":  orgID,
		"product_id":       req.ProductID,
		"transaction_type": req.TransactionType,
		"quantity_change":  req.QuantityChange,
		"reference_id":     req.ReferenceID,
	}
	s.logger.Debug("Iniciando ajuste de inventário no serviço.", fields)

	// 1. Validação
	change, err := s.validateRequest(orgID, req)
	if err != nil {
		return domain.AdjustmentOutcome{}, err
	}
	req.ReferenceID = strings.TrimSpace(req.ReferenceID)

	// 2. Retry idempotente: referenceId já processado devolve a entrada original
	if req.ReferenceID != "" {
		prior, found, err := s.findPrior(ctx, orgID, req.ReferenceID, true)
		if err != nil {
			return domain.AdjustmentOutcome{}, err
		}
		if found {
			s.logger.Info("referenceId já processado, devolvendo movimentação original.", fields)
			return domain.AdjustmentOutcome{Transaction: prior, Replayed: true}, nil
		}
	}

	// 3. Existência do produto
	if s.products != nil {
		exists, err := s.products.Exists(ctx, orgID, req.ProductID)
		if err != nil {
			return domain.AdjustmentOutcome{}, err
		}
		if !exists {
			return domain.AdjustmentOutcome{}, apperror.NewNotFoundError(
				fmt.Sprintf("Produto %d não encontrado na organização %d.", req.ProductID, orgID))
		}
	}

	// 4. Ajuste + ledger em uma transação, com retry limitado para conflitos transitórios
	var entry domain.InventoryTransaction
	attempt := 0
	backoff := retry.WithMaxRetries(s.cfg.MaxRetries,
		retry.WithCappedDuration(maxRetryDelay, retry.NewExponential(s.cfg.RetryBase)))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		committed, err := s.adjustOnce(ctx, orgID, req, change)
		if err != nil {
			if apperror.IsTransient(err) {
				s.logger.Warn("Conflito transitório no ajuste, tentando novamente.", map[string]interface{}{
					"organization_id": orgID,
					"product_id":      req.ProductID,
					"attempt":         attempt,
					"error":           err.Error(),
				})
				return retry.RetryableError(err)
			}
			return err
		}
		entry = committed
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateReference):
			// Outra requisição com o mesmo referenceId confirmou antes de nós: a entrada dela vence.
			prior, found, lookupErr := s.findPrior(ctx, orgID, req.ReferenceID, false)
			if lookupErr != nil {
				return domain.AdjustmentOutcome{}, lookupErr
			}
			if !found {
				return domain.AdjustmentOutcome{}, apperror.NewInternalError("reference_id duplicado sem entrada correspondente no ledger", err)
			}
			s.logger.Info("Corrida de referenceId resolvida em favor da movimentação já confirmada.", fields)
			return domain.AdjustmentOutcome{Transaction: prior, Replayed: true}, nil

		case apperror.IsTransient(err):
			s.logger.Warn("Tentativas de ajuste esgotadas.", map[string]interface{}{"organization_id": orgID, "product_id": req.ProductID, "attempts": attempt})
			return domain.AdjustmentOutcome{}, apperror.NewConflictErrorWithCause(
				fmt.Sprintf("Inventário do produto %d sob contenção: ajuste %s não aplicado após %d tentativas.", req.ProductID, change, attempt), err)

		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			var timeoutErr *apperror.TimeoutError
			if errors.As(err, &timeoutErr) {
				return domain.AdjustmentOutcome{}, err
			}
			return domain.AdjustmentOutcome{}, apperror.NewTimeoutError(
				fmt.Sprintf("ajuste do produto %d (org %d) interrompido", req.ProductID, orgID), err)
		}

		var stockErr *apperror.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.logger.Info("Ajuste rejeitado por estoque insuficiente.", map[string]interface{}{
				"organization_id": orgID,
				"product_id":      req.ProductID,
				"available":       stockErr.Available,
				"requested":       stockErr.Requested,
			})
		} else {
			s.logger.Error("Falha ao ajustar inventário.", err)
		}
		return domain.AdjustmentOutcome{}, err
	}

	// 5. Cache do referenceId (melhor esforço)
	s.remember(ctx, entry)

	s.logger.Info("Inventário ajustado com sucesso.", map[string]interface{}{
		"organization_id": orgID,
		"product_id":      req.ProductID,
		"transaction_id":  entry.ID,
		"quantity_before": entry.QuantityBefore.String(),
		"quantity_after":  entry.QuantityAfter.String(),
		"attempts":        attempt,
	})
	return domain.AdjustmentOutcome{Transaction: entry}, nil
}

// adjustOnce é uma tentativa completa: cada chamada relê o saldo sob lock.
func (s *Service) adjustOnce(ctx context.Context, orgID int64, req domain.AdjustmentRequest, change quantity.Quantity) (domain.InventoryTransaction, error) {
	var entry domain.InventoryTransaction

	err := s.store.RunInTx(ctx, func(ctx context.Context, uow domain.InventoryUnitOfWork) error {
		// Re-checagem dentro da transação: uma tentativa anterior pode ter confirmado.
		if req.ReferenceID != "" {
			prior, err := uow.Transactions().ListByReferenceID(ctx, req.ReferenceID)
			if err != nil {
				return err
			}
			if len(prior) > 0 {
				return domain.ErrDuplicateReference
			}
		}

		record, err := uow.Inventory().CreateIfAbsent(ctx, orgID, req.ProductID, quantity.Zero)
		if err != nil {
			return err
		}

		locked, err := uow.Inventory().LockByID(ctx, record.ID)
		if err != nil {
			return err
		}
		before := locked.Quantity

		updated, err := uow.Inventory().ApplyAdjustment(ctx, record.ID, change)
		if err != nil {
			var negErr *apperror.NegativeQuantityError
			if errors.As(err, &negErr) {
				return &apperror.InsufficientStockError{
					OrganizationID: orgID,
					ProductID:      req.ProductID,
					Available:      negErr.Current,
					Requested:      change.String(),
				}
			}
			return err
		}

		if expected := before.Add(change); !updated.Quantity.Equal(expected) {
			return apperror.NewInternalError(fmt.Sprintf(
				"invariante violada no inventário %d: %s + %s resultou em %s", record.ID, before, change, updated.Quantity), nil)
		}

		entry, err = uow.Transactions().Append(ctx, domain.InventoryTransaction{
			InventoryID:     record.ID,
			OrganizationID:  orgID,
			ProductID:       req.ProductID,
			TransactionType: req.TransactionType,
			QuantityChange:  change,
			QuantityBefore:  before,
			QuantityAfter:   updated.Quantity,
			ReferenceID:     req.ReferenceID,
			Notes:           strings.TrimSpace(req.Notes),
			CreatedBy:       req.ActorID,
		})
		return err
	})

	return entry, err
}

// validateRequest valida o formato do pedido e converte quantity_change para Quantity.
func (s *Service) validateRequest(orgID int64, req domain.AdjustmentRequest) (quantity.Quantity, error) {
	if orgID <= 0 {
		return quantity.Zero, apperror.NewValidationError("Contexto de organização ausente.")
	}

	if err := s.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s falhou na regra '%s'", fe.Field(), fe.Tag()))
			}
			return quantity.Zero, apperror.NewValidationError(strings.Join(msgs, "; "))
		}
		return quantity.Zero, apperror.NewValidationError(err.Error())
	}

	change, err := quantity.Parse(req.QuantityChange)
	if err != nil {
		return quantity.Zero, apperror.NewValidationError(fmt.Sprintf("quantity_change inválido: %v", err))
	}
	if change.IsZero() {
		return quantity.Zero, apperror.NewValidationError("quantity_change não pode ser zero.")
	}
	return change, nil
}

func referenceCacheKey(referenceID string) string {
	return "inventory:ref:" + referenceID
}

// findPrior procura uma movimentação com o referenceId: primeiro no cache, depois no ledger.
// Uma referência usada por outra organização é um conflito, e a entrada dela nunca é exposta.
func (s *Service) findPrior(ctx context.Context, orgID int64, referenceID string, useCache bool) (domain.InventoryTransaction, bool, error) {
	var prior domain.InventoryTransaction
	found := false

	if useCache && s.cache != nil {
		raw, err := s.cache.Get(ctx, referenceCacheKey(referenceID))
		switch {
		case err == nil:
			if json.Unmarshal([]byte(raw), &prior) == nil {
				found = true
			}
		case !errors.Is(err, cache.ErrCacheMiss):
			s.logger.Warn("Falha ao ler cache de idempotência.", map[string]interface{}{"reference_id": referenceID, "error": err.Error()})
		}
	}

	if !found {
		entries, err := s.store.Transactions().ListByReferenceID(ctx, referenceID)
		if err != nil {
			return domain.InventoryTransaction{}, false, err
		}
		if len(entries) == 0 {
			return domain.InventoryTransaction{}, false, nil
		}
		prior, found = entries[0], true
		s.remember(ctx, prior)
	}

	if prior.OrganizationID != orgID {
		return domain.InventoryTransaction{}, false, apperror.NewConflictError(
			fmt.Sprintf("reference_id %q já utilizado por outra organização.", referenceID))
	}
	return prior, true, nil
}

// remember grava a entrada no cache sob o referenceId. Falhas de cache não afetam o ajuste.
func (s *Service) remember(ctx context.Context, entry domain.InventoryTransaction) {
	if s.cache == nil || entry.ReferenceID == "" {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, referenceCacheKey(entry.ReferenceID), payload, s.cfg.IdempotencyTTL); err != nil {
		s.logger.Warn("Falha ao gravar cache de idempotência.", map[string]interface{}{"reference_id": entry.ReferenceID, "error": err.Error()})
	}
}

// GetInventory retorna o saldo de um produto.
func (s *Service) GetInventory(ctx context.Context, orgID, productID int64) (domain.Inventory, error) {
	return s.store.Inventory().FindByOrgAndProduct(ctx, orgID, productID)
}

// ListInventory retorna todos os saldos da organização.
func (s *Service) ListInventory(ctx context.Context, orgID int64) ([]domain.Inventory, error) {
	return s.store.Inventory().FindAllByOrg(ctx, orgID)
}

// ListTransactions retorna o ledger do produto, mais recente primeiro.
func (s *Service) ListTransactions(ctx context.Context, orgID, productID int64) ([]domain.InventoryTransaction, error) {
	record, err := s.store.Inventory().FindByOrgAndProduct(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}
	return s.store.Transactions().ListByInventory(ctx, record.ID)
}
