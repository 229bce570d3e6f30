package accountrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"marketplace/internal/domain"
	apperror "marketplace/internal/errors"
	"marketplace/internal/pkg/logger"
)

// uniqueViolation é o código SQLSTATE do PostgreSQL para chave única violada.
const uniqueViolation = "23505"

const (
	insertAccountSQL = `
		INSERT INTO accounts (id, email, password_hash, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	selectAccountSQL = `
		SELECT id, email, password_hash, balance, created_at, updated_at
		FROM accounts`
)

// AccountRepository implementa a interface domain.AccountRepository
type AccountRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewAccountRepository cria uma nova instância do AccountRepository, injetando o DB.
func NewAccountRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *AccountRepository {
	return &AccountRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// Save insere uma nova conta no banco de dados.
func (r *AccountRepository) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	r.logger.Debug("Iniciando Save de conta no repositório.", map[string]interface{}{"email": account.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	account.ID = uuid.NewString()
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt

	_, err := r.DB.ExecContext(ctxTimeout, insertAccountSQL,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			r.logger.Warn("Email já cadastrado.", map[string]interface{}{"email": account.Email})
			return domain.Account{}, apperror.NewConflictError(fmt.Sprintf("O email '%s' já está em uso.", account.Email))
		}
		r.logger.Error("Falha ao inserir conta no DB.", err)
		return domain.Account{}, apperror.NewDBError("Falha ao inserir conta", err)
	}

	r.logger.Info("Conta salva com sucesso no repositório.", map[string]interface{}{"account_id": account.ID})
	return account, nil
}

// FindByEmail busca uma conta pelo endereço de e-mail.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, selectAccountSQL+" WHERE email = $1", email, fmt.Sprintf("Conta com email '%s' não encontrada", email))
}

// FindByID busca uma conta pelo ID (inclui o saldo atual).
func (r *AccountRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Account{}, apperror.NewNotFoundError(fmt.Sprintf("Conta '%s' não encontrada", id))
	}
	return r.findOne(ctx, selectAccountSQL+" WHERE id = $1", id, fmt.Sprintf("Conta '%s' não encontrada", id))
}

func (r *AccountRepository) findOne(ctx context.Context, query, arg, notFoundMsg string) (domain.Account, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var account domain.Account
	err := r.DB.QueryRowContext(ctxTimeout, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Conta não encontrada no DB.", map[string]interface{}{"lookup": arg})
		return domain.Account{}, apperror.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		r.logger.Error("Falha ao buscar conta no DB.", err)
		return domain.Account{}, apperror.NewDBError("Falha ao buscar conta", err)
	}
	return account, nil
}
