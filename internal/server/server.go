package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/planline-io/planline/internal/auth"
	"github.com/planline-io/planline/internal/model"
	"github.com/planline-io/planline/internal/ratelimit"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the Planline HTTP API server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired. limiter may be
// nil to disable rate limiting (tests do this).
func New(cfg Config, h *Handlers, jwtMgr *auth.JWTManager, limiter ratelimit.Limiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.HandleHealth)

	// Token issuance is rate limited by client IP: it runs before auth, so
	// there is no operator identity to key on yet.
	tokenLimit := ratelimit.Middleware(limiter, ratelimit.IPKeyFunc, requestIDOf, logger)
	mux.Handle("POST /auth/token", tokenLimit(http.HandlerFunc(h.HandleAuthToken)))

	viewer := requireRole(model.RoleViewer)
	planner := requireRole(model.RolePlanner)
	admin := requireRole(model.RoleAdmin)

	mux.Handle("GET /v1/capacity", viewer(http.HandlerFunc(h.HandleGetCapacity)))
	mux.Handle("GET /v1/capacity/daily", viewer(http.HandlerFunc(h.HandleDailyCapacity)))
	mux.Handle("POST /v1/overload-check", viewer(http.HandlerFunc(h.HandleOverloadCheck)))

	mux.Handle("POST /v1/shift-models", admin(http.HandlerFunc(h.HandleCreateShiftModel)))
	mux.Handle("GET /v1/shift-models", viewer(http.HandlerFunc(h.HandleListShiftModels)))
	mux.Handle("GET /v1/shift-models/{shift_model_id}", viewer(http.HandlerFunc(h.HandleGetShiftModel)))
	mux.Handle("POST /v1/shift-models/{shift_model_id}/activate", admin(http.HandlerFunc(h.HandleActivateShiftModel)))

	mux.Handle("POST /v1/products", planner(http.HandlerFunc(h.HandleCreateProduct)))
	mux.Handle("GET /v1/products", viewer(http.HandlerFunc(h.HandleListProducts)))
	mux.Handle("GET /v1/products/{product_id}/availability", viewer(http.HandlerFunc(h.HandleAvailability)))
	mux.Handle("GET /v1/products/{product_id}/requirements", viewer(http.HandlerFunc(h.HandleRequirements)))
	mux.Handle("POST /v1/products/{product_id}/consume", planner(http.HandlerFunc(h.HandleConsumeMaterials)))
	mux.Handle("POST /v1/products/{product_id}/bom", planner(http.HandlerFunc(h.HandleCreateBOMLine)))

	mux.Handle("POST /v1/materials", planner(http.HandlerFunc(h.HandleCreateMaterial)))
	mux.Handle("GET /v1/inventory/{material_id}", viewer(http.HandlerFunc(h.HandleGetInventory)))
	mux.Handle("PUT /v1/inventory/{material_id}", planner(http.HandlerFunc(h.HandleUpsertInventory)))

	mux.Handle("POST /v1/schedules", planner(http.HandlerFunc(h.HandleCreateSchedule)))
	mux.Handle("GET /v1/schedules", viewer(http.HandlerFunc(h.HandleListSchedules)))
	mux.Handle("GET /v1/schedules/{schedule_id}", viewer(http.HandlerFunc(h.HandleGetSchedule)))
	mux.Handle("PATCH /v1/schedules/{schedule_id}/status", planner(http.HandlerFunc(h.HandleUpdateScheduleStatus)))

	mux.Handle("POST /v1/order-plans", planner(http.HandlerFunc(h.HandleCreateOrderPlan)))
	mux.Handle("GET /v1/order-plans", viewer(http.HandlerFunc(h.HandleListOrderPlans)))
	mux.Handle("GET /v1/order-plans/{plan_id}", viewer(http.HandlerFunc(h.HandleGetOrderPlan)))
	mux.Handle("PATCH /v1/order-plans/{plan_id}", planner(http.HandlerFunc(h.HandleUpdateOrderPlan)))
	mux.Handle("DELETE /v1/order-plans/{plan_id}", planner(http.HandlerFunc(h.HandleDeleteOrderPlan)))
	mux.Handle("GET /v1/order-plans/{plan_id}/changes", viewer(http.HandlerFunc(h.HandlePlanChanges)))

	mux.Handle("GET /v1/changes", viewer(http.HandlerFunc(h.HandleListChanges)))
	mux.Handle("GET /v1/changes/stats", viewer(http.HandlerFunc(h.HandleChangeStats)))
	mux.Handle("GET /v1/changes/unread-count", viewer(http.HandlerFunc(h.HandleUnreadCount)))
	mux.Handle("POST /v1/changes/read-all", viewer(http.HandlerFunc(h.HandleMarkAllRead)))
	mux.Handle("GET /v1/changes/subscribe", viewer(http.HandlerFunc(h.HandleSubscribeChanges)))
	mux.Handle("GET /v1/changes/entity/{entity_id}", viewer(http.HandlerFunc(h.HandleEntityChanges)))
	mux.Handle("GET /v1/changes/{change_id}", viewer(http.HandlerFunc(h.HandleGetChange)))
	mux.Handle("POST /v1/changes/{change_id}/read", viewer(http.HandlerFunc(h.HandleMarkRead)))

	// Per-operator rate limiting sits between auth and the mux so claims are
	// available for the key. Admins are exempt.
	opLimit := ratelimit.Middleware(limiter, operatorKeyFunc, requestIDOf, logger)

	var handler http.Handler = mux
	handler = opLimit(handler)
	handler = authMiddleware(jwtMgr, handler)
	handler = loggingMiddleware(logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(logger, handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + strconv.Itoa(cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  logger,
	}
}

// Handler returns the fully wrapped HTTP handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// requestIDOf adapts RequestIDFromContext to the ratelimit package's callback.
func requestIDOf(r *http.Request) string {
	return RequestIDFromContext(r.Context())
}

// operatorKeyFunc keys rate limiting by the authenticated operator. Admins
// and unauthenticated paths (health, token) are not limited here.
func operatorKeyFunc(r *http.Request) string {
	claims := ClaimsFromContext(r.Context())
	if claims == nil || claims.Role == model.RoleAdmin {
		return ""
	}
	return "op:" + claims.OperatorID
}
