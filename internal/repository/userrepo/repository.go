package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
)

// UserRepository implementa a interface domain.UserRepository
type UserRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sqlx.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere um novo usuário no banco de dados.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	// 1. Configura Contexto com Timeout
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 2. Prepara dados e ID
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	// 3. Executa o INSERT
	query := `
        INSERT INTO users (id, organization_id, email, password_hash, role, created_at, updated_at)
        VALUES (:id, :organization_id, :email, :password_hash, :role, :created_at, :updated_at)`
	_, err := r.DB.NamedExecContext(ctxTimeout, query, user)

	switch {
	case apperror.IsUniqueViolation(err):
		return domain.User{}, apperror.NewConflictErrorWithCause(fmt.Sprintf("O email '%s' já está em uso.", user.Email), err)
	case apperror.IsForeignKeyViolation(err):
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Organização %d não existe.", user.OrganizationID))
	case err != nil:
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to insert user (DB)", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return user, nil
}

// FindByEmail busca um usuário pelo endereço de e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, organization_id, email, password_hash, role, created_at, updated_at
        FROM users WHERE lower(email) = lower($1)`

	var user domain.User
	err := r.DB.GetContext(ctxTimeout, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Usuário não encontrado no DB por email.", map[string]interface{}{"email": email})
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com email '%s' não encontrado", email))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário por email no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by email (DB)", err)
	}

	return user, nil
}
