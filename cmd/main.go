package main

import (
	"context"
	"database/sql"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketplace/config"
	"marketplace/internal/domain"
	"marketplace/internal/pkg/cache"
	"marketplace/internal/pkg/database"
	"marketplace/internal/pkg/eventbus"
	"marketplace/internal/pkg/logger"
	"marketplace/internal/pkg/token"
	"marketplace/internal/pkg/tracing"

	"marketplace/internal/api/account"
	"marketplace/internal/api/product"
	"marketplace/internal/api/router"
	"marketplace/internal/repository/accountrepo"
	"marketplace/internal/repository/memrepo"
	"marketplace/internal/repository/productrepo"
	"marketplace/internal/service/accountservice"
	"marketplace/internal/service/productservice"
)

// @title Marketplace API
// @version 1.0
// @description Registro de produtos com compra atômica e repasse integral ao vendedor.
// @BasePath /v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	stdlog.Println("⚡ Inicializando serviço Marketplace...")
	// .env é opcional: em Docker as variáveis vêm do ambiente.
	if err := godotenv.Load(); err != nil {
		stdlog.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Configuração inválida: %v", err)
	}
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{
		"env":            cfg.Environment,
		"storage_driver": cfg.StorageDriver,
		"cache_enabled":  cfg.CacheEnabled,
	})

	rootCtx := context.Background()

	// 1. Tracing (OpenTelemetry)
	tp, err := tracing.NewProvider(rootCtx, tracing.Config{
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.TracingSampleRate,
		ServiceName:  "marketplace",
	})
	if err != nil {
		log.Fatal("Falha ao inicializar tracing.", err)
	}

	// 2. Cache (Redis)
	var cacheClient cache.Client
	if cfg.CacheEnabled {
		redisClient := cache.NewRedisClient(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(rootCtx, cfg.CacheTimeout)
		err := redisClient.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Fatal("Falha ao conectar ao Redis.", err)
		}
		cacheClient = redisClient
		log.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
	}

	// 3. Armazenamento: Repository
	var (
		productRepo domain.ProductRepository
		accountRepo domain.AccountRepository
		db          *sql.DB
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store := memrepo.New()
		productRepo, accountRepo = store.Products(), store.Accounts()
		log.Warn("Armazenamento em memória: o estado se perde ao reiniciar.", nil)
	default:
		pool := database.DefaultPoolConfig()
		pool.MaxOpenConns = cfg.DBMaxOpenConns
		pool.MaxIdleConns = cfg.DBMaxIdleConns

		connectCtx, cancel := context.WithTimeout(rootCtx, cfg.DBTimeout)
		db, err = database.NewPostgresDB(connectCtx, cfg.DatabaseURL, pool)
		cancel()
		if err != nil {
			log.Fatal("Falha ao conectar ao banco de dados.", err)
		}
		log.Info("Conexão PostgreSQL estabelecida.", nil)

		productRepo = productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log)
		accountRepo = accountrepo.NewAccountRepository(db, cfg.DBTimeout, log)
	}

	// 4. Serviços
	bus := eventbus.NewBroker[domain.ProductEvent]()
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	productSvc := productservice.NewService(productRepo, bus, tp.Tracer(), log, cfg.RegistryName)
	accountSvc := accountservice.NewService(accountRepo, tokenSvc, cfg.AccountInitialBalance, log)
	log.Debug("Serviços inicializados.", nil)

	// 5. Handlers e Roteador
	r := router.NewRouter(
		product.NewHandler(productSvc, log),
		account.NewHandler(accountSvc, log),
		tokenSvc,
		cacheClient,
		router.RateLimit{Limit: cfg.RateLimitMaxRequests, Period: cfg.RateLimitPeriod},
		log,
	)

	// WriteTimeout fica em zero: o fluxo SSE é de longa duração.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// 6. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor Marketplace ouvindo na porta", map[string]interface{}{"port": cfg.Port, "registry": cfg.RegistryName})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(rootCtx, 15*time.Second)
	defer cancel()

	// Fecha os assinantes SSE antes do Shutdown, que espera as conexões ativas.
	bus.Close()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Error("Falha ao encerrar o tracing.", err)
	}
	if cacheClient != nil {
		cacheClient.Close()
	}
	if db != nil {
		db.Close()
	}

	log.Info("Servidor encerrado com sucesso.", nil)
	if zl, ok := log.(*logger.ZapLogger); ok {
		_ = zl.Sync()
	}
}
