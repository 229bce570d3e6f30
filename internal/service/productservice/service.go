package productservice

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"marketplace/internal/domain"
	apperror "marketplace/internal/errors"
	"marketplace/internal/pkg/logger"
)

const (
	DefaultPageLimit  = 10
	MaxPageLimit      = 100
	DefaultEventLimit = 50
	MaxEventLimit     = 500
)

// EventBus é o contrato do broker em processo (internal/pkg/eventbus).
type EventBus interface {
	Publish(event domain.ProductEvent) (dropped int)
	Subscribe(ctx context.Context) <-chan domain.ProductEvent
}

// RegistryInfo é o resumo público do registro.
type RegistryInfo struct {
	Name         string `json:"name"`
	ProductCount int64  `json:"productCount"`
}

// Service implementa as operações do registro de produtos.
type Service struct {
	repo   domain.ProductRepository
	bus    EventBus
	tracer trace.Tracer
	logger logger.Logger
	name   string
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
// tracer pode ser nil (spans desligados).
func NewService(repo domain.ProductRepository, bus EventBus, tracer trace.Tracer, log logger.Logger, registryName string) *Service {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("productservice")
	}
	return &Service{repo: repo, bus: bus, tracer: tracer, logger: log, name: registryName}
}

// RegistryName devolve o nome fixo do registro.
func (s *Service) RegistryName() string {
	return s.name
}

// CreateProduct lista um novo produto em nome de caller.
func (s *Service) CreateProduct(ctx context.Context, name string, price int64, caller string) (domain.ProductEvent, error) {
	ctx, span := s.tracer.Start(ctx, "registry.CreateProduct",
		trace.WithAttributes(attribute.Int64("product.price", price)))
	defer span.End()

	s.logger.Debug("Iniciando criação de produto no serviço.", map[string]interface{}{
		"name":   name,
		"price":  price,
		"caller": caller,
	})

	if err := domain.ValidateListing(name, price); err != nil {
		return domain.ProductEvent{}, s.fail(span, "Produto rejeitado na validação.", err)
	}
	if caller == "" {
		return domain.ProductEvent{}, s.fail(span, "Criação sem conta de origem.", apperror.NewUnauthorizedError("Conta do chamador ausente."))
	}

	ev, err := s.repo.Create(ctx, name, price, caller)
	if err != nil {
		return domain.ProductEvent{}, s.fail(span, "Falha ao criar produto no repositório.", err)
	}
	span.SetAttributes(attribute.Int64("product.id", ev.ProductID))

	s.publish(ev)
	s.logger.Info("Produto criado com sucesso.", map[string]interface{}{
		"product_id": ev.ProductID,
		"owner":      ev.Owner,
	})
	return ev, nil
}

// PurchaseProduct compra o produto id em nome de caller, repassando payment ao vendedor.
func (s *Service) PurchaseProduct(ctx context.Context, id int64, caller string, payment int64) (domain.ProductEvent, error) {
	ctx, span := s.tracer.Start(ctx, "registry.PurchaseProduct",
		trace.WithAttributes(
			attribute.Int64("product.id", id),
			attribute.Int64("purchase.payment", payment),
		))
	defer span.End()

	s.logger.Debug("Iniciando compra de produto no serviço.", map[string]interface{}{
		"product_id": id,
		"caller":     caller,
		"payment":    payment,
	})

	if id <= 0 {
		return domain.ProductEvent{}, s.fail(span, "Compra de produto inexistente.", apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe.", id)))
	}
	if payment < 0 {
		return domain.ProductEvent{}, s.fail(span, "Pagamento negativo.", apperror.NewValidationError("O pagamento não pode ser negativo."))
	}
	if caller == "" {
		return domain.ProductEvent{}, s.fail(span, "Compra sem conta de origem.", apperror.NewUnauthorizedError("Conta do chamador ausente."))
	}

	ev, err := s.repo.Purchase(ctx, domain.PurchaseRequest{ProductID: id, Buyer: caller, Payment: payment})
	if err != nil {
		return domain.ProductEvent{}, s.fail(span, "Compra rejeitada.", err)
	}

	s.publish(ev)
	s.logger.Info("Produto comprado com sucesso.", map[string]interface{}{
		"product_id": ev.ProductID,
		"buyer":      ev.Owner,
		"seller":     ev.Seller,
		"payment":    ev.Payment,
	})
	return ev, nil
}

// GetProduct devolve o registro do produto id.
func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe.", id))
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, s.translate(err)
	}
	return p, nil
}

// ProductCount devolve quantos produtos já foram criados.
func (s *Service) ProductCount(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("Falha ao contar produtos.", err)
		return 0, s.translate(err)
	}
	return count, nil
}

// Info devolve nome e contagem do registro.
func (s *Service) Info(ctx context.Context) (RegistryInfo, error) {
	count, err := s.ProductCount(ctx)
	if err != nil {
		return RegistryInfo{}, err
	}
	return RegistryInfo{Name: s.name, ProductCount: count}, nil
}

// ListProducts lista produtos por ordem de ID, paginados.
func (s *Service) ListProducts(ctx context.Context, page, limit int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	products, err := s.repo.FindAll(ctx, domain.ProductFilter{Page: page, Limit: limit})
	if err != nil {
		s.logger.Error("Falha ao listar produtos.", err)
		return nil, s.translate(err)
	}
	return products, nil
}

// ListEvents lê o log de eventos a partir da sequência after (exclusiva).
func (s *Service) ListEvents(ctx context.Context, after int64, limit int) ([]domain.ProductEvent, error) {
	if after < 0 {
		return nil, apperror.NewValidationError("O parâmetro 'after' não pode ser negativo.")
	}
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}

	events, err := s.repo.ListEvents(ctx, domain.EventFilter{After: after, Limit: limit})
	if err != nil {
		s.logger.Error("Falha ao ler log de eventos.", err)
		return nil, s.translate(err)
	}
	return events, nil
}

// Subscribe recebe os eventos confirmados a partir de agora, até ctx ser cancelado.
func (s *Service) Subscribe(ctx context.Context) <-chan domain.ProductEvent {
	if s.bus == nil {
		ch := make(chan domain.ProductEvent)
		close(ch)
		return ch
	}
	return s.bus.Subscribe(ctx)
}

func (s *Service) publish(ev domain.ProductEvent) {
	if s.bus == nil {
		return
	}
	if dropped := s.bus.Publish(ev); dropped > 0 {
		s.logger.Warn("Assinantes lentos perderam o evento; o fluxo SSE recupera pelo log.", map[string]interface{}{
			"sequence": ev.Sequence,
			"dropped":  dropped,
		})
	}
}

// fail registra a falha no span e no log e devolve o erro traduzido.
func (s *Service) fail(span trace.Span, msg string, err error) error {
	err = s.translate(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	var appErr apperror.AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus() < 500 {
		s.logger.Warn(msg, map[string]interface{}{"category": appErr.Category(), "error": err.Error()})
	} else {
		s.logger.Error(msg, err)
	}
	return err
}

// translate preserva erros de negócio e embrulha o resto como InternalError.
func (s *Service) translate(err error) error {
	var appErr apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternalError("Falha interna no registro.", err)
}
