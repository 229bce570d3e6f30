package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do Marketplace.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "ALREADY_SOLD")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada (nome vazio, preço não positivo).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado (e.g., ID de produto inexistente).
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// InsufficientPaymentError indica que o pagamento anexado é menor que o preço do produto.
type InsufficientPaymentError struct {
	Price   int64
	Payment int64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("Pagamento insuficiente: pago %d, preço %d", e.Payment, e.Price)
}
func (e *InsufficientPaymentError) Category() string { return "INSUFFICIENT_PAYMENT" }
func (e *InsufficientPaymentError) HTTPStatus() int  { return http.StatusPaymentRequired } // 402
func (e *InsufficientPaymentError) Unwrap() error    { return nil }

// NewInsufficientPaymentError cria o erro de pagamento abaixo do preço.
func NewInsufficientPaymentError(price, payment int64) AppError {
	return &InsufficientPaymentError{Price: price, Payment: payment}
}

// AlreadySoldError indica uma tentativa de compra de um produto já vendido.
type AlreadySoldError struct {
	ProductID int64
}

func (e *AlreadySoldError) Error() string {
	return fmt.Sprintf("Produto já vendido: o produto %d não pode ser comprado novamente", e.ProductID)
}
func (e *AlreadySoldError) Category() string { return "ALREADY_SOLD" }
func (e *AlreadySoldError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *AlreadySoldError) Unwrap() error    { return nil }

// NewAlreadySoldError cria o erro de produto já vendido.
func NewAlreadySoldError(productID int64) AppError {
	return &AlreadySoldError{ProductID: productID}
}

// SelfPurchaseError indica que o comprador é o dono atual do produto.
type SelfPurchaseError struct {
	ProductID int64
}

func (e *SelfPurchaseError) Error() string {
	return fmt.Sprintf("Compra proibida: o comprador já é o dono do produto %d", e.ProductID)
}
func (e *SelfPurchaseError) Category() string { return "SELF_PURCHASE" }
func (e *SelfPurchaseError) HTTPStatus() int  { return http.StatusForbidden } // 403
func (e *SelfPurchaseError) Unwrap() error    { return nil }

// NewSelfPurchaseError cria o erro de auto-compra.
func NewSelfPurchaseError(productID int64) AppError {
	return &SelfPurchaseError{ProductID: productID}
}

// TransferError representa a falha ao repassar o pagamento ao vendedor.
// A compra inteira é abortada quando este erro ocorre.
type TransferError struct {
	Msg string
	Err error
}

func (e *TransferError) Error() string    { return fmt.Sprintf("Falha na transferência: %s", e.Msg) }
func (e *TransferError) Category() string { return "TRANSFER_FAILURE" }
func (e *TransferError) HTTPStatus() int  { return http.StatusUnprocessableEntity } // 422
func (e *TransferError) Unwrap() error    { return e.Err }

// NewTransferError cria um erro de transferência de fundos.
func NewTransferError(msg string, err error) AppError {
	return &TransferError{Msg: msg, Err: err}
}

// ConflictError representa um conflito na regra de negócio (e.g., e-mail duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// UnauthorizedError representa credenciais ausentes ou inválidas.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Erro Interno: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("Erro Interno: %s", e.Msg)
}
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB)", msg), err)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
// Erros encapsulados com %w mantêm a categoria original.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		if appErr.HTTPStatus() >= http.StatusInternalServerError {
			// Não expomos a causa raiz (driver SQL, rede) ao cliente.
			return appErr.HTTPStatus(), appErr.Category(), "Ocorreu um erro interno. Tente novamente mais tarde."
		}
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}

// IsCategory informa se algum erro na cadeia pertence à categoria informada.
func IsCategory(err error, category string) bool {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Category() == category
	}
	return false
}
