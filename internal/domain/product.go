package domain

import (
	"context"
	"time"

	apperror "marketplace/internal/errors"
)

// Product representa uma listagem do registro (a Entidade).
// ID, Name e Price são imutáveis; Owner e Purchased mudam uma única vez, na compra.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"` // Menor unidade monetária
	Owner     string    `json:"owner"` // ID da conta dona atual
	Purchased bool      `json:"purchased"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductState é o estado do ciclo de vida de um produto.
type ProductState string

const (
	StateListed ProductState = "Listed"
	StateSold   ProductState = "Sold"
)

// State deriva o estado do ciclo de vida a partir da flag Purchased.
func (p Product) State() ProductState {
	if p.Purchased {
		return StateSold
	}
	return StateListed
}

// ValidateListing valida os dados de criação de um produto.
func ValidateListing(name string, price int64) error {
	if name == "" {
		return apperror.NewValidationError("O produto deve ter um nome.")
	}
	if price <= 0 {
		return apperror.NewValidationError("O preço do produto deve ser positivo.")
	}
	return nil
}

// CheckPurchase aplica as regras de compra na ordem: pagamento, já vendido, auto-compra.
// A existência do produto é verificada antes, por quem o carregou.
func (p Product) CheckPurchase(buyer string, payment int64) error {
	if payment < p.Price {
		return apperror.NewInsufficientPaymentError(p.Price, payment)
	}
	if p.Purchased {
		return apperror.NewAlreadySoldError(p.ID)
	}
	if buyer == p.Owner {
		return apperror.NewSelfPurchaseError(p.ID)
	}
	return nil
}

// Sell devolve a cópia do produto após a transição Listed -> Sold.
func (p Product) Sell(buyer string, at time.Time) Product {
	p.Owner = buyer
	p.Purchased = true
	p.UpdatedAt = at
	return p
}

// --- Eventos (trilha de auditoria) ---

// EventType identifica o tipo de evento emitido pelo registro.
type EventType string

const (
	EventProductCreated   EventType = "ProductCreated"
	EventProductPurchased EventType = "ProductPurchased"
)

// ProductEvent é o registro imutável emitido a cada transição de estado bem-sucedida.
// Carrega (id, name, price, owner, purchased) do produto após a transição.
type ProductEvent struct {
	EventID    string    `json:"event_id"`
	Sequence   int64     `json:"sequence"`
	Type       EventType `json:"type"`
	ProductID  int64     `json:"id"`
	Name       string    `json:"name"`
	Price      int64     `json:"price"`
	Owner      string    `json:"owner"`
	Purchased  bool      `json:"purchased"`
	Payment    int64     `json:"payment,omitempty"`   // Valor repassado ao vendedor (apenas compras)
	Seller     string    `json:"seller,omitempty"`    // Dono anterior (apenas compras)
	OccurredAt time.Time `json:"occurred_at"`
}

// NewProductEvent monta um evento a partir do estado do produto após a transição.
func NewProductEvent(eventID string, eventType EventType, p Product, at time.Time) ProductEvent {
	return ProductEvent{
		EventID:    eventID,
		Type:       eventType,
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price,
		Owner:      p.Owner,
		Purchased:  p.Purchased,
		OccurredAt: at,
	}
}

// --- Estruturas Auxiliares ---

// ProductFilter define os parâmetros de paginação da listagem de produtos.
type ProductFilter struct {
	Page  int
	Limit int
}

// Offset calcula o deslocamento SQL da página.
func (f ProductFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// EventFilter define a leitura do log de eventos a partir de uma sequência.
type EventFilter struct {
	After int64
	Limit int
}

// PurchaseRequest agrupa os dados de uma compra vindos do Caller Context.
type PurchaseRequest struct {
	ProductID int64
	Buyer     string
	Payment   int64
}

// --- Interfaces de Contrato ---

// ProductRepository é o contrato de persistência do registro.
// Create e Purchase são transações tudo-ou-nada: estado, transferência e evento
// são confirmados juntos ou nada é confirmado.
type ProductRepository interface {
	Create(ctx context.Context, name string, price int64, owner string) (ProductEvent, error)
	Purchase(ctx context.Context, req PurchaseRequest) (ProductEvent, error)
	FindByID(ctx context.Context, id int64) (Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, error)
	Count(ctx context.Context) (int64, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]ProductEvent, error)
}
