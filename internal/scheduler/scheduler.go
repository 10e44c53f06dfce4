package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"barstock/internal/domain"
	"barstock/internal/pkg/logger"
)

const jobTimeout = 2 * time.Minute

// Reconciler executa uma rodada de reconciliação do ledger.
type Reconciler interface {
	Run(ctx context.Context) ([]domain.LedgerDiscrepancy, error)
}

// Scheduler dispara os jobs periódicos do serviço.
type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	logger     logger.Logger
}

// NewScheduler cria o scheduler. A expressão segue o cron padrão de 5 campos
// (ou descritores como "@hourly").
func NewScheduler(reconciler Reconciler, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		reconciler: reconciler,
		logger:     logger.Named(log, "scheduler"),
	}
}

// Start agenda a reconciliação e inicia o cron. Uma expressão vazia desliga o job.
func (s *Scheduler) Start(reconcileSpec string) error {
	if reconcileSpec == "" {
		s.logger.Info("Reconciliação agendada desativada.", nil)
		return nil
	}

	if _, err := s.cron.AddFunc(reconcileSpec, s.runReconciliation); err != nil {
		return fmt.Errorf("expressão cron inválida %q: %w", reconcileSpec, err)
	}

	s.logger.Info("Scheduler iniciado.", map[string]interface{}{"reconcile_cron": reconcileSpec})
	s.cron.Start()
	return nil
}

// Stop interrompe o cron e devolve um contexto que termina quando os jobs em execução acabam.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Parando scheduler.", nil)
	return s.cron.Stop()
}

func (s *Scheduler) runReconciliation() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	discrepancies, err := s.reconciler.Run(ctx)
	if err != nil {
		s.logger.Error("Job de reconciliação falhou.", err)
		return
	}
	if len(discrepancies) > 0 {
		s.logger.Warn("Job de reconciliação encontrou divergências.", map[string]interface{}{"total": len(discrepancies)})
	}
}
