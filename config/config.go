package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config armazena todas as configurações do serviço BarStock.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL   string
	DBTimeout     time.Duration // timeout de cada chamada ao repositório
	DBLockTimeout time.Duration // lock_timeout local das transações de ajuste

	// Cache (Redis)
	RedisAddr       string
	CacheTimeout    time.Duration
	ProductCacheTTL time.Duration
	IdempotencyTTL  time.Duration // por quanto tempo um referenceId fica no cache

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Ajustes de inventário
	AdjustMaxRetries int
	AdjustRetryBase  time.Duration

	// Jobs
	ReconcileCron string // vazio desliga a reconciliação agendada

	// Observabilidade
	OtelEndpoint string // vazio desliga a exportação de traces
	OtelInsecure bool
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie se não houver credenciais de DB
		DatabaseURL:   mustGetEnv("DATABASE_URL"),
		DBTimeout:     getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,
		DBLockTimeout: getDurationEnv("DB_LOCK_TIMEOUT_MS", 2000) * time.Millisecond,

		// 3. Cache (Redis)
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout:    getDurationEnv("CACHE_TIMEOUT_SEC", 2) * time.Second,
		ProductCacheTTL: getDurationEnv("PRODUCT_CACHE_TTL_MIN", 5) * time.Minute,
		IdempotencyTTL:  getDurationEnv("IDEMPOTENCY_TTL_MIN", 1440) * time.Minute, // 24h

		// 4. Segurança (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Ajustes de inventário
		AdjustMaxRetries: getIntEnv("ADJUST_MAX_RETRIES", 3),
		AdjustRetryBase:  getDurationEnv("ADJUST_RETRY_BASE_MS", 20) * time.Millisecond,

		// 7. Jobs
		ReconcileCron: getEnv("RECONCILE_CRON", "0 3 * * *"),

		// 8. Observabilidade
		OtelEndpoint: getEnv("OTEL_ENDPOINT", ""),
		OtelInsecure: getBoolEnv("OTEL_INSECURE", true),
	}

	if cfg.AdjustMaxRetries < 0 {
		log.Printf("⚠️ Aviso: ADJUST_MAX_RETRIES negativo (%d). Usando 0.", cfg.AdjustMaxRetries)
		cfg.AdjustMaxRetries = 0
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration
// (sem unidade: quem chama multiplica pela unidade da chave).
func getDurationEnv(key string, defaultValue int) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return time.Duration(defaultValue)
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return time.Duration(defaultValue)
	}
	return time.Duration(value)
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getBoolEnv lê uma variável de ambiente booleana ("true", "1", "false"...).
func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um booleano válido. Usando padrão (%t).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
