package memrepo_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain"
	apperror "marketplace/internal/errors"
	"marketplace/internal/repository/memrepo"
)

func newAccount(t *testing.T, accounts *memrepo.AccountRepository, email string, balance int64) domain.Account {
	t.Helper()
	acc, err := accounts.Save(context.Background(), domain.Account{Email: email, PasswordHash: "hash", Balance: balance})
	require.NoError(t, err)
	return acc
}

func TestCreate_AssignsDenseIDs(t *testing.T) {
	store := memrepo.New()
	products := store.Products()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		ev, err := products.Create(ctx, "item", 10, "seller")
		require.NoError(t, err)
		assert.Equal(t, i, ev.ProductID)
		assert.Equal(t, i, ev.Sequence)
		assert.Equal(t, domain.EventProductCreated, ev.Type)
		assert.False(t, ev.Purchased)
	}

	count, err := products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestPurchase_IPhoneScenario(t *testing.T) {
	store := memrepo.New()
	products, accounts := store.Products(), store.Accounts()
	ctx := context.Background()

	seller := newAccount(t, accounts, "seller@example.com", 0)
	buyer := newAccount(t, accounts, "buyer@example.com", 5)

	created, err := products.Create(ctx, "iPhone X", 1, seller.ID)
	require.NoError(t, err)

	ev, err := products.Purchase(ctx, domain.PurchaseRequest{ProductID: created.ProductID, Buyer: buyer.ID, Payment: 1})
	require.NoError(t, err)

	assert.Equal(t, domain.EventProductPurchased, ev.Type)
	assert.Equal(t, int64(1), ev.ProductID)
	assert.Equal(t, "iPhone X", ev.Name)
	assert.Equal(t, int64(1), ev.Price)
	assert.Equal(t, buyer.ID, ev.Owner)
	assert.True(t, ev.Purchased)
	assert.Equal(t, seller.ID, ev.Seller)
	assert.Equal(t, int64(1), ev.Payment)

	p, err := products.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, buyer.ID, p.Owner)
	assert.Equal(t, domain.StateSold, p.State())

	sellerAfter, err := accounts.FindByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sellerAfter.Balance)

	buyerAfter, err := accounts.FindByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), buyerAfter.Balance)
}

func TestPurchase_Failures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		productID int64
		buyer     string // "buyer", "seller" ou "poor"
		payment   int64
		sold      bool
		wantType  interface{}
	}{
		{name: "produto inexistente", productID: 99, buyer: "buyer", payment: 10, wantType: &apperror.NotFoundError{}},
		{name: "id zero", productID: 0, buyer: "buyer", payment: 10, wantType: &apperror.NotFoundError{}},
		{name: "pagamento insuficiente", productID: 1, buyer: "buyer", payment: 9, wantType: &apperror.InsufficientPaymentError{}},
		{name: "já vendido", productID: 1, buyer: "buyer", payment: 10, sold: true, wantType: &apperror.AlreadySoldError{}},
		{name: "auto-compra", productID: 1, buyer: "seller", payment: 10, wantType: &apperror.SelfPurchaseError{}},
		{name: "saldo do comprador insuficiente", productID: 1, buyer: "poor", payment: 10, wantType: &apperror.TransferError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memrepo.New()
			products, accounts := store.Products(), store.Accounts()

			seller := newAccount(t, accounts, "seller@example.com", 0)
			buyer := newAccount(t, accounts, "buyer@example.com", 100)
			other := newAccount(t, accounts, "other@example.com", 100)
			poor := newAccount(t, accounts, "poor@example.com", 1)
			ids := map[string]string{"buyer": buyer.ID, "seller": seller.ID, "poor": poor.ID}

			_, err := products.Create(ctx, "item", 10, seller.ID)
			require.NoError(t, err)
			if tt.sold {
				_, err = products.Purchase(ctx, domain.PurchaseRequest{ProductID: 1, Buyer: other.ID, Payment: 10})
				require.NoError(t, err)
			}
			eventsBefore, err := products.ListEvents(ctx, domain.EventFilter{Limit: 100})
			require.NoError(t, err)

			_, err = products.Purchase(ctx, domain.PurchaseRequest{ProductID: tt.productID, Buyer: ids[tt.buyer], Payment: tt.payment})

			assert.IsType(t, tt.wantType, err)

			// Falhas não deixam efeitos: nenhum evento, saldos intactos.
			eventsAfter, err := products.ListEvents(ctx, domain.EventFilter{Limit: 100})
			require.NoError(t, err)
			assert.Len(t, eventsAfter, len(eventsBefore))

			sellerAfter, err := accounts.FindByID(ctx, seller.ID)
			require.NoError(t, err)
			if tt.sold {
				assert.Equal(t, int64(10), sellerAfter.Balance)
			} else {
				assert.Equal(t, int64(0), sellerAfter.Balance)
			}
		})
	}
}

func TestPurchase_MissingSellerAccount(t *testing.T) {
	store := memrepo.New()
	products, accounts := store.Products(), store.Accounts()
	ctx := context.Background()

	buyer := newAccount(t, accounts, "buyer@example.com", 100)
	_, err := products.Create(ctx, "item", 10, "ghost")
	require.NoError(t, err)

	_, err = products.Purchase(ctx, domain.PurchaseRequest{ProductID: 1, Buyer: buyer.ID, Payment: 10})
	assert.IsType(t, &apperror.TransferError{}, err)

	buyerAfter, err := accounts.FindByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), buyerAfter.Balance)

	p, err := products.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, p.Purchased)
}

func TestPurchase_ConcurrentBuyersOnlyOneWins(t *testing.T) {
	store := memrepo.New()
	products, accounts := store.Products(), store.Accounts()
	ctx := context.Background()

	seller := newAccount(t, accounts, "seller@example.com", 0)
	_, err := products.Create(ctx, "item", 10, seller.ID)
	require.NoError(t, err)

	const buyers = 20
	ids := make([]string, buyers)
	for i := range ids {
		ids[i] = newAccount(t, accounts, "buyer"+string(rune('a'+i))+"@example.com", 10).ID
	}

	var wins, alreadySold atomic.Int32
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			_, err := products.Purchase(ctx, domain.PurchaseRequest{ProductID: 1, Buyer: buyer, Payment: 10})
			switch {
			case err == nil:
				wins.Add(1)
			case apperror.IsCategory(err, "ALREADY_SOLD"):
				alreadySold.Add(1)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(buyers-1), alreadySold.Load())

	sellerAfter, err := accounts.FindByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), sellerAfter.Balance)
}

func TestFindAll_Pagination(t *testing.T) {
	store := memrepo.New()
	products := store.Products()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := products.Create(ctx, "item", 1, "seller")
		require.NoError(t, err)
	}

	page, err := products.FindAll(ctx, domain.ProductFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].ID)

	empty, err := products.FindAll(ctx, domain.ProductFilter{Page: 4, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListEvents_AfterSequence(t *testing.T) {
	store := memrepo.New()
	products := store.Products()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := products.Create(ctx, "item", 1, "seller")
		require.NoError(t, err)
	}

	events, err := products.ListEvents(ctx, domain.EventFilter{After: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].Sequence)
	assert.Equal(t, int64(3), events[1].Sequence)
}

func TestListEvents_LimitAndBounds(t *testing.T) {
	store := memrepo.New()
	products := store.Products()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := products.Create(ctx, "item", 1, "seller")
		require.NoError(t, err)
	}

	// After negativo equivale a ler desde o início.
	first, err := products.ListEvents(ctx, domain.EventFilter{After: -1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(1), first[0].Sequence)
	assert.Equal(t, int64(2), first[1].Sequence)

	rest, err := products.ListEvents(ctx, domain.EventFilter{After: first[1].Sequence, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, int64(3), rest[0].Sequence)

	past, err := products.ListEvents(ctx, domain.EventFilter{After: 4, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestAccounts_DuplicateEmail(t *testing.T) {
	accounts := memrepo.New().Accounts()
	newAccount(t, accounts, "dup@example.com", 0)

	_, err := accounts.Save(context.Background(), domain.Account{Email: "dup@example.com"})
	assert.IsType(t, &apperror.ConflictError{}, err)

	_, err = accounts.FindByEmail(context.Background(), "missing@example.com")
	assert.IsType(t, &apperror.NotFoundError{}, err)

	_, err = accounts.FindByID(context.Background(), "missing")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}
