package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"marketplace/internal/domain"
	apperror "marketplace/internal/errors"
	"marketplace/internal/pkg/logger"
	"marketplace/internal/pkg/middleware"
	"marketplace/internal/service/productservice"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, name string, price int64, caller string) (domain.ProductEvent, error)
	PurchaseProduct(ctx context.Context, id int64, caller string, payment int64) (domain.ProductEvent, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	ProductCount(ctx context.Context) (int64, error)
	Info(ctx context.Context) (productservice.RegistryInfo, error)
	ListProducts(ctx context.Context, page, limit int) ([]domain.Product, error)
	ListEvents(ctx context.Context, after int64, limit int) ([]domain.ProductEvent, error)
	Subscribe(ctx context.Context) <-chan domain.ProductEvent
}

// Handler agrupa todos os métodos de Handler do registro.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateProductRequest é o payload de POST /v1/products.
type CreateProductRequest struct {
	Name  string `json:"name" example:"iPhone X"`
	Price int64  `json:"price" example:"1"`
}

// PurchaseRequest é o payload de POST /v1/products/{id}/purchase.
type PurchaseRequest struct {
	Payment int64 `json:"payment" example:"1"`
}

// CountResponse é a resposta de GET /v1/products/count.
type CountResponse struct {
	ProductCount int64 `json:"productCount"`
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)

		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// callerFrom lê a conta autenticada colocada no contexto pelo middleware de auth.
func callerFrom(r *http.Request) (string, error) {
	caller, ok := middleware.GetCallerFromContext(r.Context())
	if !ok || caller.AccountID == "" {
		return "", apperror.NewUnauthorizedError("Conta do chamador ausente.")
	}
	return caller.AccountID, nil
}

// pathID converte o segmento {id} da rota.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NewValidationError(fmt.Sprintf("ID de produto inválido: '%s'.", raw))
	}
	return id, nil
}

// queryInt lê um parâmetro inteiro opcional da query string.
func queryInt(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NewValidationError(fmt.Sprintf("Parâmetro '%s' inválido.", name))
	}
	return v, nil
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Lista um novo produto
// @Description Cria um produto à venda; o dono é a conta autenticada.
// @Tags products
// @Accept json
// @Produce json
// @Param product body CreateProductRequest true "Nome e preço"
// @Success 201 {object} domain.ProductEvent "Evento ProductCreated"
// @Failure 400 {object} domain.ErrorResponse "Nome vazio ou preço inválido"
// @Failure 401 {object} domain.ErrorResponse "Token ausente ou inválido"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusBadRequest)
		return
	}

	ev, err := h.Service.CreateProduct(r.Context(), req.Name, req.Price, caller)
	h.handleServiceResponse(w, r, ev, err, http.StatusCreated)
}

// PurchaseProductHandler lida com a requisição POST /v1/products/{id}/purchase.
// @Summary Compra um produto
// @Description Transfere a propriedade para a conta autenticada e repassa o pagamento integral ao vendedor.
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "ID do produto"
// @Param purchase body PurchaseRequest true "Valor pago"
// @Success 200 {object} domain.ProductEvent "Evento ProductPurchased"
// @Failure 402 {object} domain.ErrorResponse "Pagamento abaixo do preço"
// @Failure 403 {object} domain.ErrorResponse "Comprador é o dono"
// @Failure 404 {object} domain.ErrorResponse "Produto inexistente"
// @Failure 409 {object} domain.ErrorResponse "Produto já vendido"
// @Failure 422 {object} domain.ErrorResponse "Falha na transferência"
// @Security ApiKeyAuth
// @Router /products/{id}/purchase [post]
func (h *Handler) PurchaseProductHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusBadRequest)
		return
	}

	ev, err := h.Service.PurchaseProduct(r.Context(), id, caller, req.Payment)
	h.handleServiceResponse(w, r, ev, err, http.StatusOK)
}

// GetProductHandler lida com a requisição GET /v1/products/{id}.
// @Summary Obtém um produto por ID
// @Tags products
// @Produce json
// @Param id path int true "ID do produto"
// @Success 200 {object} domain.Product "Produto encontrado"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	p, err := h.Service.GetProduct(r.Context(), id)
	h.handleServiceResponse(w, r, p, err, http.StatusOK)
}

// ListProductsHandler lida com a requisição GET /v1/products.
// @Summary Lista produtos
// @Tags products
// @Produce json
// @Param page query int false "Página (default 1)"
// @Param limit query int false "Itens por página (default 10, máx. 100)"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	limit, err := queryInt(r, "limit", productservice.DefaultPageLimit)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	products, err := h.Service.ListProducts(r.Context(), int(page), int(limit))
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

// CountHandler lida com a requisição GET /v1/products/count.
// @Summary Quantidade de produtos criados
// @Tags products
// @Produce json
// @Success 200 {object} CountResponse
// @Router /products/count [get]
func (h *Handler) CountHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.ProductCount(r.Context())
	h.handleServiceResponse(w, r, CountResponse{ProductCount: count}, err, http.StatusOK)
}

// RegistryHandler lida com a requisição GET /v1/registry.
// @Summary Nome e contagem do registro
// @Tags registry
// @Produce json
// @Success 200 {object} productservice.RegistryInfo
// @Router /registry [get]
func (h *Handler) RegistryHandler(w http.ResponseWriter, r *http.Request) {
	info, err := h.Service.Info(r.Context())
	h.handleServiceResponse(w, r, info, err, http.StatusOK)
}

// ListEventsHandler lida com a requisição GET /v1/events.
// @Summary Lê o log de eventos
// @Tags events
// @Produce json
// @Param after query int false "Sequência a partir da qual ler (exclusiva)"
// @Param limit query int false "Máximo de eventos (default 50, máx. 500)"
// @Success 200 {array} domain.ProductEvent
// @Failure 400 {object} domain.ErrorResponse "Parâmetros inválidos"
// @Router /events [get]
func (h *Handler) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	after, err := queryInt(r, "after", 0)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	limit, err := queryInt(r, "limit", productservice.DefaultEventLimit)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	events, err := h.Service.ListEvents(r.Context(), after, int(limit))
	h.handleServiceResponse(w, r, events, err, http.StatusOK)
}
