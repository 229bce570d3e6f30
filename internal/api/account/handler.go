package account

import (
	"context"
	"encoding/json"
	"net/http"

	"marketplace/internal/domain"
	apperror "marketplace/internal/errors"
	"marketplace/internal/pkg/logger"
	"marketplace/internal/pkg/middleware"
)

// AccountService define o contrato para registro, login e consulta de saldo.
type AccountService interface {
	Register(ctx context.Context, registration domain.AccountRegistration) (domain.Account, error)
	Login(ctx context.Context, email string, password string) (string, error)
	GetAccount(ctx context.Context, id string) (domain.Account, error)
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse é a resposta de um login bem-sucedido.
type TokenResponse struct {
	Token string `json:"token"`
}

// Handler agrupa todos os métodos de Handler da conta.
type Handler struct {
	Service AccountService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc AccountService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			json.NewEncoder(w).Encode(data)
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	// Log apenas de erros graves
	if status >= 500 {
		h.Logger.Error("Erro interno no serviço de contas:", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// RegisterHandler lida com a requisição POST /v1/register.
// @Summary Registra uma nova conta
// @Description Cria uma conta com a senha em hash e o saldo inicial configurado.
// @Tags accounts
// @Accept json
// @Produce json
// @Param registration body domain.AccountRegistration true "Credenciais de registro (email e senha)"
// @Success 201 {object} domain.Account "Conta criada com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.AccountRegistration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
		return
	}

	account, err := h.Service.Register(r.Context(), reg)
	h.handleServiceResponse(w, r, account, err, http.StatusCreated)
}

// LoginHandler lida com a requisição POST /v1/login.
// @Summary Autentica uma conta e retorna um JWT
// @Tags accounts
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais (email e senha)"
// @Success 200 {object} TokenResponse "Token JWT emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Router /login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	token, err := h.Service.Login(r.Context(), loginReq.Email, loginReq.Password)
	h.handleServiceResponse(w, r, TokenResponse{Token: token}, err, http.StatusOK)
}

// MeHandler lida com a requisição GET /v1/accounts/me.
// @Summary Conta autenticada e saldo atual
// @Tags accounts
// @Produce json
// @Success 200 {object} domain.Account
// @Failure 401 {object} domain.ErrorResponse "Token ausente ou inválido"
// @Security ApiKeyAuth
// @Router /accounts/me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetCallerFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Conta do chamador ausente."), http.StatusOK)
		return
	}

	account, err := h.Service.GetAccount(r.Context(), caller.AccountID)
	h.handleServiceResponse(w, r, account, err, http.StatusOK)
}
