// Package router assembles the gin engine of the back office API.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/Alex240101/oxapampa/internal/domain/session"
	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/handler"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithAPIMiddleware adds middleware that runs for every versioned API route.
func WithAPIMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	if len(r.middleware) > 0 {
		api.Use(r.middleware...)
	}
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: "GET", path: path, handlers: handlers})
	return dg
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: "POST", path: path, handlers: handlers})
	return dg
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers are the HTTP handlers mounted by New.
type Handlers struct {
	System   *handler.SystemHandler
	Product  *handler.ProductHandler
	Sale     *handler.SaleHandler
	Document *handler.DocumentHandler
	Import   *handler.ImportHandler
}

// Config configures the engine built by New.
type Config struct {
	ServiceName      string
	TracingEnabled   bool
	ProfilingEnabled bool
	// SwaggerEnabled serves the API documentation under /swagger.
	SwaggerEnabled bool
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
	Session        middleware.SessionConfig
	Logger         *zap.Logger
}

// New builds the engine: global middleware, the unauthenticated health
// check and the session protected /api/v1 routes. Import, export and import
// history are restricted to administrators.
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)
	if cfg.SwaggerEnabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if cfg.Session.Logger == nil {
		cfg.Session.Logger = log
	}
	r := NewRouter(engine, WithAPIMiddleware(
		middleware.SessionAuth(cfg.Session),
		middleware.SpanAttributes(),
		middleware.Profiling(cfg.ProfilingEnabled),
	))

	adminOnly := middleware.RequireRole(session.RoleAdmin)

	r.Register(NewDomainGroup("catalog", "/products").
		GET("", h.Product.List).
		GET("/low-stock", h.Product.LowStock))

	r.Register(NewDomainGroup("sales", "/sales").
		POST("", h.Sale.Register).
		GET("/:id", h.Sale.Get).
		POST("/:id/documents", h.Document.GenerateForSale).
		GET("/:id/documents", h.Document.ListForSale))

	r.Register(NewDomainGroup("documents", "/documents").
		POST("/credit-notes", h.Document.GenerateCreditNote))

	r.Register(NewDomainGroup("import", "/import").
		Use(adminOnly).
		POST("/products", h.Import.ImportProducts).
		GET("/runs", h.Import.ListRuns).
		GET("/runs/:id", h.Import.GetRun).
		GET("/runs/:id/file", h.Import.GetRunFile))

	r.Register(NewDomainGroup("export", "/export").
		Use(adminOnly).
		GET("/products", h.Import.ExportProducts))

	r.Setup()
	return engine, nil
}
