package userservice

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
)

// TokenService é o contrato da camada de token (internal/pkg/token) usado no login.
type TokenService interface {
	GenerateToken(userID string, userRole string, organizationID int64) (string, error)
}

// UserService define o serviço de lógica de negócio para a entidade User.
type UserService struct {
	UserRepo domain.UserRepository
	TokenSvc TokenService
	validate *validator.Validate
	logger   logger.Logger
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo domain.UserRepository, tokenSvc TokenService, log logger.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		TokenSvc: tokenSvc,
		validate: validator.New(),
		logger:   log,
	}
}

// Register registra um novo usuário na organização informada.
// Ele faz o hashing da senha e lida com validações básicas.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	// 1. Validação
	registration.Email = strings.ToLower(strings.TrimSpace(registration.Email))
	if err := s.validate.Struct(registration); err != nil {
		return domain.User{}, apperror.NewValidationError("Email válido, senha com ao menos 8 caracteres e organization_id são obrigatórios.")
	}

	// 2. Hashing da Senha
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 3. Persistência (e-mail duplicado vira ConflictError no repositório)
	user, err := s.UserRepo.Save(ctx, domain.User{
		OrganizationID: registration.OrganizationID,
		Email:          registration.Email,
		PasswordHash:   string(hashedPassword),
		Role:           domain.RoleUser,
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Usuário registrado.", map[string]interface{}{"user_id": user.ID, "organization_id": user.OrganizationID})
	return user, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT com o contexto de organização.
func (s *UserService) Login(ctx context.Context, email string, password string) (string, error) {
	// 1. Validação Básica
	if email == "" || password == "" {
		return "", apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	// 2. Buscar Usuário pelo Email
	user, err := s.UserRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		// NotFound vira Unauthorized para não dar dicas a invasores.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return "", err
	}

	// 3. Comparar Senhas (Hashing)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Tentativa de login com senha incorreta.", map[string]interface{}{"user_id": user.ID})
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	// 4. Gerar JWT
	tokenString, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role), user.OrganizationID)
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	return tokenString, nil
}
