package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"barstock/config"
	_ "barstock/docs" // Registra a documentação servida em /swagger/
	"barstock/internal/pkg/cache"
	"barstock/internal/pkg/database"
	"barstock/internal/pkg/logger"
	"barstock/internal/pkg/observability"
	"barstock/internal/pkg/token"
	"barstock/internal/scheduler"

	// Camadas para Injeção de Dependências
	"barstock/internal/api/category"
	"barstock/internal/api/inventory"
	"barstock/internal/api/product"
	"barstock/internal/api/router"
	"barstock/internal/api/user"
	"barstock/internal/repository/categoryrepo"
	"barstock/internal/repository/inventoryrepo"
	"barstock/internal/repository/productrepo"
	"barstock/internal/repository/userrepo"
	"barstock/internal/service/categoryservice"
	"barstock/internal/service/inventoryservice"
	"barstock/internal/service/productservice"
	"barstock/internal/service/reconcileservice"
	"barstock/internal/service/userservice"
)

// @title BarStock API
// @version 1.0
// @description Controle de inventário com ledger imutável para bares e restaurantes.
// @BasePath /v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço BarStock...")
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// Sem .env seguimos com o ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	defer logger.Sync(appLog)
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment})

	// Observabilidade (OpenTelemetry). Sem OTEL_ENDPOINT os spans não são exportados.
	shutdownTracing, err := observability.SetupTracing(context.Background(), observability.TracingConfig{
		Endpoint: cfg.OtelEndpoint,
		Insecure: cfg.OtelInsecure,
	})
	if err != nil {
		appLog.Fatal("Falha ao configurar tracing.", err)
	}

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis). Opcional: sem ele o serviço funciona sem cache e sem rate limiting.
	var cacheClient cache.Client
	if c, err := cache.NewRedisClient(cfg.RedisAddr, cfg.CacheTimeout); err != nil {
		appLog.Warn("Redis indisponível, seguindo sem cache.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
	} else {
		cacheClient = c
		appLog.Info("Conexão Redis estabelecida.", nil)
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios
	categoryRepo := categoryrepo.NewCategoryRepository(db, cfg.DBTimeout, appLog)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.ProductCacheTTL, appLog)
	inventoryStore := inventoryrepo.NewStore(db, cfg.DBTimeout, cfg.DBLockTimeout, appLog)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	appLog.Debug("Repositórios inicializados.", nil)

	// B. Serviços
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	categorySvc := categoryservice.NewService(categoryRepo, appLog)
	productSvc := productservice.NewService(productRepo, categoryRepo, inventoryStore.Inventory(), appLog)
	inventorySvc := inventoryservice.NewService(inventoryStore, productSvc, cacheClient, inventoryservice.Config{
		MaxRetries:     uint64(cfg.AdjustMaxRetries),
		RetryBase:      cfg.AdjustRetryBase,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}, appLog)
	reconcileSvc := reconcileservice.NewService(inventoryStore, appLog)
	userSvc := userservice.NewService(userRepo, tokenSvc, appLog)
	appLog.Debug("Serviços inicializados.", nil)

	// C. Handlers e Roteador
	handlers := router.Handlers{
		Inventory: inventory.NewHandler(inventorySvc, reconcileSvc, appLog),
		Category:  category.NewHandler(categorySvc, appLog),
		Product:   product.NewHandler(productSvc, appLog),
		User:      user.NewHandler(userSvc, appLog),
	}
	r := router.NewRouter(handlers, tokenSvc, router.RateLimit{
		Client:      cacheClient,
		MaxRequests: cfg.RateLimitMaxRequests,
		Period:      cfg.RateLimitPeriod,
	}, appLog)

	// D. Jobs periódicos
	jobs := scheduler.NewScheduler(reconcileSvc, appLog)
	if err := jobs.Start(cfg.ReconcileCron); err != nil {
		appLog.Fatal("Falha ao agendar reconciliação.", err)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor BarStock ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	// Aguarda a reconciliação em andamento, se houver.
	select {
	case <-jobs.Stop().Done():
	case <-ctx.Done():
		appLog.Warn("Reconciliação em andamento interrompida pelo timeout de desligamento.", nil)
	}

	if err := shutdownTracing(ctx); err != nil {
		appLog.Error("Falha ao encerrar o tracing.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
