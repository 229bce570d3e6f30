package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config armazena todas as configurações do Marketplace.
type Config struct {
	// Geral
	Port         string
	Environment  string
	LogLevel     string
	RegistryName string // Nome legível da instância do registro

	// Armazenamento
	StorageDriver  string
	DatabaseURL    string
	DBTimeout      time.Duration
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Cache (Redis)
	RedisAddr    string
	CacheEnabled bool
	CacheTimeout time.Duration
	CacheTTL     time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Contas
	AccountInitialBalance int64

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Tracing (OpenTelemetry)
	TracingEnabled    bool
	TracingExporter   string
	OTLPEndpoint      string
	TracingSampleRate float64
}

// setDefaults registra os valores padrão de cada variável de ambiente.
func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REGISTRY_NAME", "Marketplace Dapp")

	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_TIMEOUT_SEC", 5)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TIMEOUT_SEC", 10)
	v.SetDefault("CACHE_TTL_SEC", 300)

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_EXPIRY_MIN", 60)

	v.SetDefault("ACCOUNT_INITIAL_BALANCE", 100)

	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_PERIOD_MIN", 1)

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("TRACING_SAMPLE_RATE", 1.0)
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() (*Config, error) {
	return loadFrom(viper.New())
}

func loadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:         v.GetString("PORT"),
		Environment:  v.GetString("ENV"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		RegistryName: v.GetString("REGISTRY_NAME"),

		StorageDriver:  v.GetString("STORAGE_DRIVER"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DBTimeout:      time.Duration(v.GetInt("DB_TIMEOUT_SEC")) * time.Second,
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		RedisAddr:    v.GetString("REDIS_ADDR"),
		CacheEnabled: v.GetBool("CACHE_ENABLED"),
		CacheTimeout: time.Duration(v.GetInt("CACHE_TIMEOUT_SEC")) * time.Second,
		CacheTTL:     time.Duration(v.GetInt("CACHE_TTL_SEC")) * time.Second,

		JWTSecretKey: v.GetString("JWT_SECRET_KEY"),
		TokenExpiry:  time.Duration(v.GetInt("JWT_EXPIRY_MIN")) * time.Minute,

		AccountInitialBalance: v.GetInt64("ACCOUNT_INITIAL_BALANCE"),

		RateLimitMaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		RateLimitPeriod:      time.Duration(v.GetInt("RATE_LIMIT_PERIOD_MIN")) * time.Minute,

		TracingEnabled:    v.GetBool("TRACING_ENABLED"),
		TracingExporter:   v.GetString("TRACING_EXPORTER"),
		OTLPEndpoint:      v.GetString("OTLP_ENDPOINT"),
		TracingSampleRate: v.GetFloat64("TRACING_SAMPLE_RATE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate garante que a aplicação não inicie sem as configurações obrigatórias.
func (c *Config) Validate() error {
	if c.JWTSecretKey == "" {
		return fmt.Errorf("erro de configuração: a variável de ambiente JWT_SECRET_KEY deve ser definida")
	}
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("erro de configuração: a variável de ambiente DATABASE_URL deve ser definida")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("erro de configuração: STORAGE_DRIVER desconhecido %q", c.StorageDriver)
	}
	if c.DBTimeout <= 0 {
		return fmt.Errorf("erro de configuração: DB_TIMEOUT_SEC deve ser positivo")
	}
	if c.AccountInitialBalance < 0 {
		return fmt.Errorf("erro de configuração: ACCOUNT_INITIAL_BALANCE não pode ser negativo")
	}
	return nil
}
