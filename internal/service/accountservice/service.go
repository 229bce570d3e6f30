package accountservice

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/domain"
	apperror "marketplace/internal/errors"
	"marketplace/internal/pkg/logger"
)

// TokenGenerator é a parte da camada de token (internal/pkg/token) que o serviço usa.
type TokenGenerator interface {
	GenerateToken(accountID string) (string, error)
}

// AccountService define o serviço de lógica de negócio para a entidade Account.
type AccountService struct {
	AccountRepo    domain.AccountRepository
	TokenSvc       TokenGenerator
	InitialBalance int64
	logger         logger.Logger
	hashCost       int
}

// NewService cria uma nova instância do AccountService.
// initialBalance é o saldo com que toda conta nova nasce.
func NewService(repo domain.AccountRepository, tokenSvc TokenGenerator, initialBalance int64, log logger.Logger) *AccountService {
	return &AccountService{
		AccountRepo:    repo,
		TokenSvc:       tokenSvc,
		InitialBalance: initialBalance,
		logger:         log,
		hashCost:       bcrypt.DefaultCost,
	}
}

// WithHashCost ajusta o custo do bcrypt (testes usam bcrypt.MinCost).
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.hashCost = cost
	return s
}

// Register cria uma nova conta, com a senha em hash e o saldo inicial.
func (s *AccountService) Register(ctx context.Context, registration domain.AccountRegistration) (domain.Account, error) {
	email := strings.TrimSpace(registration.Email)
	if email == "" || registration.Password == "" {
		return domain.Account{}, apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), s.hashCost)
	if err != nil {
		return domain.Account{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	account, err := s.AccountRepo.Save(ctx, domain.Account{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Balance:      s.InitialBalance,
	})
	if err != nil {
		// ConflictError (email duplicado) e erros internos seguem como vieram do repositório.
		return domain.Account{}, err
	}

	s.logger.Info("Conta registrada.", map[string]interface{}{"account_id": account.ID, "balance": account.Balance})
	return account, nil
}

// Login autentica uma conta, verifica a senha e gera um JWT.
func (s *AccountService) Login(ctx context.Context, email string, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	account, err := s.AccountRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		// NotFound vira Unauthorized para não revelar quais emails existem.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Senha incorreta no login.", map[string]interface{}{"account_id": account.ID})
		return "", apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(account.ID)
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}
	return tokenString, nil
}

// GetAccount devolve a conta id com o saldo atual.
func (s *AccountService) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	if id == "" {
		return domain.Account{}, apperror.NewUnauthorizedError("Conta do chamador ausente.")
	}
	return s.AccountRepo.FindByID(ctx, id)
}
