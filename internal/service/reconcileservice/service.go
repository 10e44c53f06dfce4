package reconcileservice

import (
	"context"

	"barstock/internal/domain"
	"barstock/internal/pkg/logger"
)

// DiscrepancyFinder é satisfeito por domain.InventoryStore.
type DiscrepancyFinder interface {
	FindDiscrepancies(ctx context.Context) ([]domain.LedgerDiscrepancy, error)
}

// Service audita a consistência entre saldos e ledger.
// Todo saldo nasce em zero e só muda por um ajuste registrado, então quantity
// deve ser igual à soma de quantity_change das suas movimentações.
type Service struct {
	store  DiscrepancyFinder
	logger logger.Logger
}

// NewService cria o serviço de reconciliação.
func NewService(store DiscrepancyFinder, log logger.Logger) *Service {
	return &Service{store: store, logger: log}
}

// Run verifica todos os saldos e registra cada divergência encontrada.
func (s *Service) Run(ctx context.Context) ([]domain.LedgerDiscrepancy, error) {
	discrepancies, err := s.store.FindDiscrepancies(ctx)
	if err != nil {
		s.logger.Error("Falha na reconciliação do ledger.", err)
		return nil, err
	}

	for _, d := range discrepancies {
		s.logger.Warn("Saldo divergente do ledger.", map[string]interface{}{
			"inventory_id":    d.InventoryID,
			"organization_id": d.OrganizationID,
			"product_id":      d.ProductID,
			"quantity":        d.Quantity.String(),
			"ledger_sum":      d.LedgerSum.String(),
		})
	}
	s.logger.Info("Reconciliação do ledger concluída.", map[string]interface{}{"discrepancies": len(discrepancies)})
	return discrepancies, nil
}

// ForOrganization devolve apenas as divergências da organização.
func (s *Service) ForOrganization(ctx context.Context, orgID int64) ([]domain.LedgerDiscrepancy, error) {
	all, err := s.store.FindDiscrepancies(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.LedgerDiscrepancy{}
	for _, d := range all {
		if d.OrganizationID == orgID {
			out = append(out, d)
		}
	}
	return out, nil
}
