package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"barstock/internal/api/category"
	"barstock/internal/api/inventory"
	"barstock/internal/api/product"
	"barstock/internal/api/user"
	"barstock/internal/domain"
	"barstock/internal/pkg/cache"
	"barstock/internal/pkg/logger"
	"barstock/internal/pkg/middleware"
)

// Handlers reúne os handlers já inicializados por injeção de dependências.
type Handlers struct {
	Inventory *inventory.Handler
	Category  *category.Handler
	Product   *product.Handler
	User      *user.Handler
}

// RateLimit configura o limitador global. Sem cliente de cache o limitador fica desligado.
type RateLimit struct {
	Client      cache.Client
	MaxRequests int
	Period      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, tokenSvc middleware.TokenService, rl RateLimit, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.NewAuthMiddleware(tokenSvc)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	// --- 1. Health Check e Documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Autenticação (públicas) ---
	mux.HandleFunc("POST /v1/register", h.User.RegisterUserHandler)
	mux.HandleFunc("POST /v1/login", h.User.LoginUserHandler)

	// --- 3. Inventário ---
	mux.HandleFunc("POST /v1/inventory/adjustments", auth(h.Inventory.AdjustInventoryHandler))
	mux.HandleFunc("GET /v1/inventory", auth(h.Inventory.ListInventoryHandler))
	mux.HandleFunc("GET /v1/inventory/reconciliation", auth(adminOnly(h.Inventory.ReconciliationHandler)))
	mux.HandleFunc("GET /v1/inventory/{productId}", auth(h.Inventory.GetInventoryHandler))
	mux.HandleFunc("GET /v1/inventory/{productId}/transactions", auth(h.Inventory.ListTransactionsHandler))

	// --- 4. Categorias ---
	mux.HandleFunc("POST /v1/categories", auth(h.Category.CreateCategoryHandler))
	mux.HandleFunc("GET /v1/categories", auth(h.Category.ListCategoriesHandler))
	mux.HandleFunc("GET /v1/categories/{id}", auth(h.Category.GetCategoryHandler))
	mux.HandleFunc("DELETE /v1/categories/{id}", auth(h.Category.DeleteCategoryHandler))

	// --- 5. Produtos ---
	mux.HandleFunc("POST /v1/products", auth(h.Product.CreateProductHandler))
	mux.HandleFunc("GET /v1/products", auth(h.Product.ListProductsHandler))
	mux.HandleFunc("GET /v1/products/{id}", auth(h.Product.GetProductByIDHandler))
	mux.HandleFunc("DELETE /v1/products/{id}", auth(h.Product.DeleteProductHandler))

	// --- 6. Middlewares Globais ---
	if rl.Client == nil {
		log.Warn("Rate limiting desativado: cache indisponível.", nil)
		return mux
	}
	return middleware.RateLimiter(rl.Client, rl.MaxRequests, rl.Period, log)(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
