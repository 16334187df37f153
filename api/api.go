package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/auth/jwt"
	"github.com/kbukum/todoapi/auth/password"
	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/observability"
	"github.com/kbukum/todoapi/server"
	"github.com/kbukum/todoapi/server/endpoint"
	"github.com/kbukum/todoapi/server/middleware"
	"github.com/kbukum/todoapi/store"
)

// Invalidator drops cached principals after a user changes.
type Invalidator interface {
	Invalidate(ctx context.Context, id uint)
}

// Deps are the collaborators the handlers need. Cache, Metrics, DBProbe and
// Health may be nil.
type Deps struct {
	Users     *store.UserStore
	Todos     *store.TodoStore
	Passwords *password.Pool
	Tokens    *jwt.Provider
	Gate      middleware.Authenticator[*store.User]
	Cache     Invalidator
	Metrics   *observability.Metrics
	LoginTTL  time.Duration

	Info    endpoint.ServiceInfo
	DBProbe endpoint.DatabaseProbe
	Health  endpoint.HealthChecker
}

// Prefix is the path every route is mounted under.
const Prefix = "/v1"

// Handler serves the versioned API.
type Handler struct {
	Deps
	log *logger.Logger
}

// New creates a Handler. A zero LoginTTL falls back to jwt.DefaultLoginTokenTTL.
func New(d Deps) *Handler {
	if d.LoginTTL <= 0 {
		d.LoginTTL = jwt.DefaultLoginTokenTTL
	}
	registerValidators()
	return &Handler{Deps: d, log: logger.WithComponent("api")}
}

// Mount registers every route on engine. It matches server.RouteFunc.
func (h *Handler) Mount(engine *gin.Engine) error {
	engine.NoRoute(func(c *gin.Context) {
		server.RespondWithError(c, apperrors.New(apperrors.ErrCodeNotFound, "Not Found", http.StatusNotFound))
	})
	engine.NoMethod(func(c *gin.Context) {
		server.RespondWithError(c, apperrors.New(apperrors.ErrCodeBadRequest, "Method Not Allowed", http.StatusMethodNotAllowed))
	})

	v1 := engine.Group(Prefix, middleware.Metrics(h.Metrics))
	v1.GET("/health", endpoint.Health(h.Info, h.DBProbe, h.Health))
	v1.GET("/health/live", endpoint.Liveness(h.Info))

	protected := middleware.Auth[*store.User](h.Gate)

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.GET("/me", protected, h.me)

	users := v1.Group("/users")
	users.POST("", h.createUser)
	users.GET("", h.listUsers)
	users.GET("/:user_id", h.getUser)
	users.PATCH("/:user_id", protected, h.updateUser)
	users.DELETE("/:user_id", protected, h.deleteUser)

	todos := v1.Group("/todos", protected)
	todos.POST("", h.createTodo)
	todos.GET("", h.listTodos)
	todos.GET("/:todo_id", h.getTodo)
	todos.PATCH("/:todo_id", h.updateTodo)
	todos.DELETE("/:todo_id", h.deleteTodo)
	return nil
}

// invalidate drops the cached principal for id, if a cache is configured.
func (h *Handler) invalidate(ctx context.Context, id uint) {
	if h.Cache != nil {
		h.Cache.Invalidate(ctx, id)
	}
}
