package accountservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/domain"
	apperror "marketplace/internal/errors"
	"marketplace/internal/pkg/logger"
	"marketplace/internal/service/accountservice"
)

// MockAccountRepository é uma implementação mock da interface domain.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Account), args.Error(1)
}

// MockTokenGenerator é uma implementação mock do gerador de tokens
type MockTokenGenerator struct {
	mock.Mock
}

func (m *MockTokenGenerator) GenerateToken(accountID string) (string, error) {
	args := m.Called(accountID)
	return args.String(0), args.Error(1)
}

func newService(repo *MockAccountRepository, tokens *MockTokenGenerator) *accountservice.AccountService {
	return accountservice.NewService(repo, tokens, 100, logger.NewNop()).WithHashCost(bcrypt.MinCost)
}

func TestRegister_Success(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := newService(repo, new(MockTokenGenerator))

	repo.On("Save", mock.Anything, mock.MatchedBy(func(a domain.Account) bool {
		return a.Email == "seller@example.com" &&
			a.Balance == 100 &&
			bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("secret")) == nil
	})).Return(domain.Account{ID: "acc-1", Email: "seller@example.com", Balance: 100}, nil).Once()

	account, err := svc.Register(context.Background(), domain.AccountRegistration{Email: " seller@example.com ", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.ID)
	assert.Equal(t, int64(100), account.Balance)
	repo.AssertExpectations(t)
}

func TestRegister_Validation(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := newService(repo, new(MockTokenGenerator))

	_, err := svc.Register(context.Background(), domain.AccountRegistration{Email: "", Password: "secret"})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.Register(context.Background(), domain.AccountRegistration{Email: "a@b.c"})
	assert.IsType(t, &apperror.ValidationError{}, err)

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := newService(repo, new(MockTokenGenerator))

	repo.On("Save", mock.Anything, mock.Anything).Return(domain.Account{}, apperror.NewConflictError("dup")).Once()

	_, err := svc.Register(context.Background(), domain.AccountRegistration{Email: "dup@example.com", Password: "secret"})
	assert.IsType(t, &apperror.ConflictError{}, err)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := domain.Account{ID: "acc-1", Email: "buyer@example.com", PasswordHash: string(hash)}

	t.Run("sucesso", func(t *testing.T) {
		repo, tokens := new(MockAccountRepository), new(MockTokenGenerator)
		svc := newService(repo, tokens)
		repo.On("FindByEmail", mock.Anything, "buyer@example.com").Return(stored, nil).Once()
		tokens.On("GenerateToken", "acc-1").Return("jwt-token", nil).Once()

		tok, err := svc.Login(context.Background(), "buyer@example.com", "secret")

		require.NoError(t, err)
		assert.Equal(t, "jwt-token", tok)
		tokens.AssertExpectations(t)
	})

	t.Run("senha incorreta", func(t *testing.T) {
		repo, tokens := new(MockAccountRepository), new(MockTokenGenerator)
		svc := newService(repo, tokens)
		repo.On("FindByEmail", mock.Anything, "buyer@example.com").Return(stored, nil).Once()

		_, err := svc.Login(context.Background(), "buyer@example.com", "wrong")

		assert.IsType(t, &apperror.UnauthorizedError{}, err)
		tokens.AssertNotCalled(t, "GenerateToken", mock.Anything)
	})

	t.Run("conta inexistente", func(t *testing.T) {
		repo := new(MockAccountRepository)
		svc := newService(repo, new(MockTokenGenerator))
		repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(domain.Account{}, apperror.NewNotFoundError("x")).Once()

		_, err := svc.Login(context.Background(), "ghost@example.com", "secret")

		assert.IsType(t, &apperror.UnauthorizedError{}, err)
	})

	t.Run("falha no token", func(t *testing.T) {
		repo, tokens := new(MockAccountRepository), new(MockTokenGenerator)
		svc := newService(repo, tokens)
		repo.On("FindByEmail", mock.Anything, "buyer@example.com").Return(stored, nil).Once()
		tokens.On("GenerateToken", "acc-1").Return("", errors.New("boom")).Once()

		_, err := svc.Login(context.Background(), "buyer@example.com", "secret")

		assert.IsType(t, &apperror.InternalError{}, err)
	})
}

func TestGetAccount(t *testing.T) {
	repo := new(MockAccountRepository)
	svc := newService(repo, new(MockTokenGenerator))

	repo.On("FindByID", mock.Anything, "acc-1").Return(domain.Account{ID: "acc-1", Balance: 42}, nil).Once()

	account, err := svc.GetAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), account.Balance)

	_, err = svc.GetAccount(context.Background(), "")
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}
