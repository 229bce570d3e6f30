// Package memrepo implementa o registro e as contas em memória, sob um único mutex.
// Usado com STORAGE_DRIVER=memory e nos testes de concorrência.
package memrepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"marketplace/internal/domain"
	apperror "marketplace/internal/errors"
)

// Store guarda produtos, contas e o log de eventos.
// Toda escrita passa pelo mutex, o que dá uma ordem global de serialização.
type Store struct {
	mu       sync.RWMutex
	products []domain.Product // products[i].ID == i+1
	accounts map[string]domain.Account
	emails   map[string]string // email -> account id
	events   []domain.ProductEvent
	now      func() time.Time
}

// New cria um Store vazio.
func New() *Store {
	return &Store{
		accounts: make(map[string]domain.Account),
		emails:   make(map[string]string),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Products devolve a visão do Store que implementa domain.ProductRepository.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s} }

// Accounts devolve a visão do Store que implementa domain.AccountRepository.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s} }

// ProductRepository implementa domain.ProductRepository sobre um Store.
type ProductRepository struct{ *Store }

// AccountRepository implementa domain.AccountRepository sobre o mesmo Store.
type AccountRepository struct{ *Store }

var (
	_ domain.ProductRepository = (*ProductRepository)(nil)
	_ domain.AccountRepository = (*AccountRepository)(nil)
)

// Create registra o produto com o próximo ID denso e grava o evento ProductCreated.
func (s *ProductRepository) Create(ctx context.Context, name string, price int64, owner string) (domain.ProductEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := domain.Product{
		ID:        int64(len(s.products)) + 1,
		Name:      name,
		Price:     price,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.products = append(s.products, p)
	return s.appendEvent(domain.NewProductEvent(uuid.NewString(), domain.EventProductCreated, p, now)), nil
}

// Purchase valida a compra e a transferência por inteiro antes de mutar o Store,
// então uma falha não deixa saldo nem produto alterados.
func (s *ProductRepository) Purchase(ctx context.Context, req domain.PurchaseRequest) (domain.ProductEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.product(req.ProductID)
	if !ok {
		return domain.ProductEvent{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe.", req.ProductID))
	}
	if err := p.CheckPurchase(req.Buyer, req.Payment); err != nil {
		return domain.ProductEvent{}, err
	}

	// Validamos a transferência inteira antes de mutar qualquer coisa.
	buyerAcc, ok := s.accounts[req.Buyer]
	if !ok || buyerAcc.Balance < req.Payment {
		return domain.ProductEvent{}, apperror.NewTransferError("saldo insuficiente ou conta do comprador inexistente", nil)
	}
	sellerAcc, ok := s.accounts[p.Owner]
	if !ok {
		return domain.ProductEvent{}, apperror.NewTransferError("conta do vendedor inexistente", nil)
	}

	now := s.now()
	buyerAcc.Balance -= req.Payment
	buyerAcc.UpdatedAt = now
	s.accounts[buyerAcc.ID] = buyerAcc
	sellerAcc.Balance += req.Payment
	sellerAcc.UpdatedAt = now
	s.accounts[sellerAcc.ID] = sellerAcc

	sold := p.Sell(req.Buyer, now)
	s.products[sold.ID-1] = sold

	ev := domain.NewProductEvent(uuid.NewString(), domain.EventProductPurchased, sold, now)
	ev.Payment = req.Payment
	ev.Seller = p.Owner
	return s.appendEvent(ev), nil
}

func (s *Store) product(id int64) (domain.Product, bool) {
	if id < 1 || id > int64(len(s.products)) {
		return domain.Product{}, false
	}
	return s.products[id-1], true
}

func (s *Store) appendEvent(ev domain.ProductEvent) domain.ProductEvent {
	ev.Sequence = int64(len(s.events)) + 1
	s.events = append(s.events, ev)
	return ev
}

// FindByID busca um produto pelo ID.
func (s *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.product(id)
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe.", id))
	}
	return p, nil
}

// FindAll lista os produtos em ordem de ID, paginados pelo filtro.
func (s *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := filter.Offset()
	if start >= len(s.products) {
		return []domain.Product{}, nil
	}
	end := min(start+filter.Limit, len(s.products))
	out := make([]domain.Product, end-start)
	copy(out, s.products[start:end])
	return out, nil
}

// Count devolve a quantidade de produtos criados.
func (s *ProductRepository) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}

// ListEvents devolve até filter.Limit eventos com sequence maior que filter.After.
func (s *ProductRepository) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.ProductEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := max(filter.After, 0)
	if start >= int64(len(s.events)) {
		return []domain.ProductEvent{}, nil
	}
	end := min(start+int64(filter.Limit), int64(len(s.events)))
	out := make([]domain.ProductEvent, end-start)
	copy(out, s.events[start:end])
	return out, nil
}

// Save cria a conta com um novo UUID. Email repetido vira ConflictError.
func (s *AccountRepository) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[account.Email]; exists {
		return domain.Account{}, apperror.NewConflictError(fmt.Sprintf("O email '%s' já está em uso.", account.Email))
	}
	account.ID = uuid.NewString()
	account.CreatedAt = s.now()
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.ID] = account
	s.emails[account.Email] = account.ID
	return account, nil
}

// FindByEmail busca uma conta pelo email.
func (s *AccountRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return domain.Account{}, apperror.NewNotFoundError(fmt.Sprintf("Conta com email '%s' não encontrada", email))
	}
	return s.accounts[id], nil
}

// FindByID busca uma conta pelo ID.
func (s *AccountRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, apperror.NewNotFoundError(fmt.Sprintf("Conta '%s' não encontrada", id))
	}
	return acc, nil
}
