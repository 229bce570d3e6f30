package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "marketplace/docs" // Registra o documento swagger
	"marketplace/internal/api/account"
	"marketplace/internal/api/product"
	"marketplace/internal/pkg/cache"
	"marketplace/internal/pkg/logger"
	"marketplace/internal/pkg/middleware"
)

// RateLimit configura o limitador global. Limit <= 0 desliga o limitador.
type RateLimit struct {
	Limit  int
	Period time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
// cacheClient pode ser nil (sem rate limiting).
func NewRouter(
	productHandler *product.Handler,
	accountHandler *account.Handler,
	tokenSvc middleware.TokenService,
	cacheClient cache.Client,
	rl RateLimit,
	log logger.Logger,
) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.NewAuthMiddleware(tokenSvc)

	// --- 1. Health Check e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Registro de produtos ---
	mux.HandleFunc("GET /v1/registry", productHandler.RegistryHandler)
	mux.HandleFunc("GET /v1/products", productHandler.ListProductsHandler)
	mux.HandleFunc("GET /v1/products/count", productHandler.CountHandler)
	mux.HandleFunc("GET /v1/products/{id}", productHandler.GetProductHandler)
	mux.HandleFunc("POST /v1/products", auth(productHandler.CreateProductHandler))
	mux.HandleFunc("POST /v1/products/{id}/purchase", auth(productHandler.PurchaseProductHandler))

	// --- 3. Eventos ---
	mux.HandleFunc("GET /v1/events", productHandler.ListEventsHandler)
	mux.HandleFunc("GET /v1/events/stream", productHandler.StreamEventsHandler)

	// --- 4. Contas ---
	mux.HandleFunc("POST /v1/register", accountHandler.RegisterHandler)
	mux.HandleFunc("POST /v1/login", accountHandler.LoginHandler)
	mux.HandleFunc("GET /v1/accounts/me", auth(accountHandler.MeHandler))

	// --- 5. Middlewares Globais ---
	var handler http.Handler = mux
	if cacheClient != nil && rl.Limit > 0 {
		handler = middleware.RateLimiter(cacheClient, rl.Limit, rl.Period, log)(handler)
	}
	return middleware.RequestLogger(log)(handler)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
