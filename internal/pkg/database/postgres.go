package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// Usamos o driver pq para PostgreSQL
	_ "github.com/lib/pq"

	apperror "barstock/internal/errors"
)

// DBTX é o subconjunto de operações comum a *sqlx.DB e *sqlx.Tx.
// Os repositórios dependem apenas desta interface, então a mesma implementação
// roda tanto no pool quanto dentro de uma transação.
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

// NewPostgresDB inicializa e configura o pool de conexões com o PostgreSQL.
// Retorna a conexão *sqlx.DB pronta para uso (o *sql.DB subjacente fica em db.DB).
func NewPostgresDB(dataSourceName string) (*sqlx.DB, error) {

	// 1. Abrir a Conexão (Sem tentar ainda usar o pool)
	db, err := sqlx.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir a conexão com o DB: %w", err)
	}

	// 2. Testar a Conexão Imediatamente
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao realizar o ping inicial no DB: %w", err)
	}

	// 3. Configuração do Connection Pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return db, nil
}

// RunInTx executa fn dentro de uma transação.
// Com lockTimeout > 0, a transação recebe um lock_timeout local: uma espera de lock
// de linha acima do limite falha com SQLSTATE 55P03 em vez de travar o chamador.
// Qualquer erro retornado por fn provoca rollback e é devolvido sem alteração.
func RunInTx(ctx context.Context, db *sqlx.DB, lockTimeout time.Duration, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Rollback após commit bem-sucedido seria no-op; aqui cobre erro e pânico.
			_ = tx.Rollback()
		}
	}()

	if lockTimeout > 0 {
		// SET LOCAL não aceita parâmetros; set_config(..., true) tem o mesmo escopo de transação.
		if _, err = tx.ExecContext(ctx, "SELECT set_config('lock_timeout', $1, true)",
			fmt.Sprintf("%dms", lockTimeout.Milliseconds())); err != nil {
			return apperror.NewDBError("Falha ao configurar lock_timeout", err)
		}
	}

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return apperror.NewDBError("Falha ao commitar transação", err)
	}
	committed = true
	return nil
}
