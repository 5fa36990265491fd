package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/planline-io/planline/internal/auth"
	"github.com/planline-io/planline/internal/availability"
	"github.com/planline-io/planline/internal/capacity"
	"github.com/planline-io/planline/internal/changelog"
	"github.com/planline-io/planline/internal/model"
	"github.com/planline-io/planline/internal/storage"
)

// Store is the persistence surface the handlers depend on. *storage.DB
// satisfies it; tests substitute stubs.
type Store interface {
	Ping(ctx context.Context) error

	GetOperatorByID(ctx context.Context, operatorID string) (model.Operator, error)

	CreateShiftModel(ctx context.Context, shift model.ShiftModel) (model.ShiftModel, error)
	GetShiftModel(ctx context.Context, id uuid.UUID) (model.ShiftModel, error)
	GetActiveShiftModel(ctx context.Context) (model.ShiftModel, error)
	ListShiftModels(ctx context.Context) ([]model.ShiftModel, error)
	ActivateShiftModel(ctx context.Context, id uuid.UUID) (model.ShiftModel, error)

	CreateProduct(ctx context.Context, product model.Product) (model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateMaterial(ctx context.Context, material model.Material) (model.Material, error)
	GetInventory(ctx context.Context, materialID uuid.UUID) (model.Inventory, error)
	UpsertInventory(ctx context.Context, materialID uuid.UUID, onHand decimal.Decimal) error
	CreateBOMLine(ctx context.Context, line model.BOMLine) error
	ConsumeMaterials(ctx context.Context, deltas []storage.MaterialDelta) error

	CreateSchedule(ctx context.Context, sched model.ProductionSchedule) (model.ProductionSchedule, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (model.ProductionSchedule, error)
	ListSchedulesByDate(ctx context.Context, day time.Time) ([]model.ProductionSchedule, error)
	UpdateScheduleStatus(ctx context.Context, id uuid.UUID, status model.ScheduleStatus) (model.ProductionSchedule, error)

	CreateOrderPlan(ctx context.Context, plan model.OrderPlan) (model.OrderPlan, error)
	GetOrderPlan(ctx context.Context, id uuid.UUID) (model.OrderPlan, error)
	ListOrderPlans(ctx context.Context, limit, offset int) ([]model.OrderPlan, error)
	UpdateOrderPlan(ctx context.Context, plan model.OrderPlan) (model.OrderPlan, error)
	DeleteOrderPlan(ctx context.Context, id uuid.UUID) error
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	store               Store
	jwtMgr              *auth.JWTManager
	checker             *capacity.Checker
	resolver            *availability.Resolver
	tracker             *changelog.Tracker
	broker              *Broker
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): Broker.
type HandlersDeps struct {
	Store               Store
	JWTMgr              *auth.JWTManager
	Checker             *capacity.Checker
	Resolver            *availability.Resolver
	Tracker             *changelog.Tracker
	Broker              *Broker
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		store:               d.Store,
		jwtMgr:              d.JWTMgr,
		checker:             d.Checker,
		resolver:            d.Resolver,
		tracker:             d.Tracker,
		broker:              d.Broker,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
	}
}

// writeInternalError logs the underlying error and returns a sanitized 500.
func (h *Handlers) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "error", err, "request_id", RequestIDFromContext(r.Context()))
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, msg)
}

// HandleAuthToken handles POST /auth/token.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.AuthTokenRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := model.ValidateOperatorID(req.OperatorID); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	op, err := h.store.GetOperatorByID(r.Context(), req.OperatorID)
	if err != nil || op.APIKeyHash == nil {
		// Burn the same hashing cost as a real verification so timing does
		// not reveal whether the operator exists.
		auth.DummyVerify()
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	valid, err := auth.VerifyAPIKey(req.APIKey, *op.APIKeyHash)
	if err != nil || !valid {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(op)
	if err != nil {
		h.writeInternalError(w, r, "failed to issue token", err)
		return
	}

	writeJSON(w, r, http.StatusOK, model.AuthTokenResponse{Token: token, ExpiresAt: expiresAt})
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := model.HealthResponse{
		Status:     "ok",
		Version:    h.version,
		Postgres:   "ok",
		UptimeSecs: int64(time.Since(h.startedAt).Seconds()),
	}
	if h.tracker != nil {
		resp.FeedDepth = h.tracker.Len()
		resp.FeedUnread = h.tracker.UnreadCount()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Postgres = "unreachable"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}

// parseDay parses a YYYY-MM-DD value.
func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// HandleGetCapacity handles GET /v1/capacity.
// With ?shift_model_id the named model is used; otherwise the active one.
func (h *Handlers) HandleGetCapacity(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := parseDay(date); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "date must be YYYY-MM-DD")
		return
	}

	var shift model.ShiftModel
	var err error
	if idStr := r.URL.Query().Get("shift_model_id"); idStr != "" {
		id, perr := uuid.Parse(idStr)
		if perr != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "shift_model_id must be a UUID")
			return
		}
		shift, err = h.store.GetShiftModel(r.Context(), id)
	} else {
		shift, err = h.checker.ActiveShiftModel(r.Context())
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "shift model not found")
			return
		}
		h.writeInternalError(w, r, "failed to load shift model", err)
		return
	}

	writeJSON(w, r, http.StatusOK, model.CapacityResponse{
		ShiftModelID: shift.ID,
		Date:         date,
		Capacity:     capacity.EffectiveCapacity(shift),
	})
}

// HandleDailyCapacity handles GET /v1/capacity/daily?start=...&end=...
func (h *Handlers) HandleDailyCapacity(w http.ResponseWriter, r *http.Request) {
	start, err := parseDay(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "start must be YYYY-MM-DD")
		return
	}
	end, err := parseDay(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "end must not precede start")
		return
	}
	if end.Sub(start) > 366*24*time.Hour {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "range must not exceed one year")
		return
	}

	capacities, err := h.checker.DailyCapacities(r.Context(), start, end)
	if err != nil {
		h.writeInternalError(w, r, "failed to compute daily capacities", err)
		return
	}

	resp := model.DailyCapacityResponse{Capacities: capacities}
	if shift, err := h.checker.ActiveShiftModel(r.Context()); err == nil {
		resp.ShiftModelID = shift.ID
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// HandleOverloadCheck handles POST /v1/overload-check.
func (h *Handlers) HandleOverloadCheck(w http.ResponseWriter, r *http.Request) {
	var req model.OverloadCheckRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	day, err := parseDay(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "date must be YYYY-MM-DD")
		return
	}
	if req.AdditionalQty < 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "additional_qty must not be negative")
		return
	}

	result, err := h.checker.CheckOverload(r.Context(), day, req.AdditionalQty)
	if err != nil {
		h.writeInternalError(w, r, "failed to check overload", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// quantityParam parses a required positive ?quantity= query parameter.
func quantityParam(r *http.Request) (int64, error) {
	qty, err := strconv.ParseInt(r.URL.Query().Get("quantity"), 10, 64)
	if err != nil || qty <= 0 {
		return 0, errors.New("quantity must be a positive integer")
	}
	return qty, nil
}

// productFromPath resolves the {product_id} path value to a product.
func (h *Handlers) productFromPath(w http.ResponseWriter, r *http.Request) (model.Product, bool) {
	id, err := uuid.Parse(r.PathValue("product_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "product_id must be a UUID")
		return model.Product{}, false
	}
	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "product not found")
			return model.Product{}, false
		}
		h.writeInternalError(w, r, "failed to load product", err)
		return model.Product{}, false
	}
	return product, true
}

// HandleAvailability handles GET /v1/products/{product_id}/availability?quantity=...
func (h *Handlers) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	product, ok := h.productFromPath(w, r)
	if !ok {
		return
	}
	qty, err := quantityParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	available, err := h.resolver.AvailableQuantity(r.Context(), product.ID, qty)
	if err != nil {
		h.writeInternalError(w, r, "failed to resolve availability", err)
		return
	}
	writeJSON(w, r, http.StatusOK, model.AvailabilityResponse{
		ProductID:    product.ID,
		RequestedQty: qty,
		AvailableQty: available,
	})
}

// HandleRequirements handles GET /v1/products/{product_id}/requirements?quantity=...
func (h *Handlers) HandleRequirements(w http.ResponseWriter, r *http.Request) {
	product, ok := h.productFromPath(w, r)
	if !ok {
		return
	}
	qty, err := quantityParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	reqs, err := h.resolver.MaterialRequirements(r.Context(), product.ID, qty)
	if err != nil {
		h.writeInternalError(w, r, "failed to compute requirements", err)
		return
	}
	writeList(w, r, reqs, len(reqs), len(reqs))
}

// HandleConsumeMaterials handles POST /v1/products/{product_id}/consume.
// Deducts the BOM-implied material quantities for the produced units.
func (h *Handlers) HandleConsumeMaterials(w http.ResponseWriter, r *http.Request) {
	product, ok := h.productFromPath(w, r)
	if !ok {
		return
	}
	var req model.ConsumeMaterialsRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Quantity <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "quantity must be positive")
		return
	}

	reqs, err := h.resolver.MaterialRequirements(r.Context(), product.ID, req.Quantity)
	if err != nil {
		h.writeInternalError(w, r, "failed to compute requirements", err)
		return
	}
	if len(reqs) == 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "product has no bill of materials")
		return
	}

	deltas := make([]storage.MaterialDelta, 0, len(reqs))
	for _, mr := range reqs {
		deltas = append(deltas, storage.MaterialDelta{MaterialID: mr.MaterialID, Quantity: mr.Required})
	}
	if err := h.store.ConsumeMaterials(r.Context(), deltas); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusConflict, model.ErrCodeInvalidInput, "a required material has no inventory record")
			return
		}
		h.writeInternalError(w, r, "failed to consume materials", err)
		return
	}

	h.logger.Info("materials consumed",
		"product_id", product.ID, "quantity", req.Quantity, "materials", len(deltas))
	writeList(w, r, reqs, len(reqs), len(reqs))
}

// HandleListProducts handles GET /v1/products.
func (h *Handlers) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.writeInternalError(w, r, "failed to list products", err)
		return
	}
	writeList(w, r, products, len(products), len(products))
}

// Plant defaults applied to shift models when the request omits them.
var (
	defaultCleanupMinutes    = 60
	defaultChangeoverMinutes = 30
	defaultDefectRate        = decimal.RequireFromString("0.05")
)

// HandleCreateShiftModel handles POST /v1/shift-models.
func (h *Handlers) HandleCreateShiftModel(w http.ResponseWriter, r *http.Request) {
	var req model.CreateShiftModelRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "name is required")
		return
	}
	if req.ShiftsPerDay <= 0 || req.MinutesPerShift <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "shifts_per_day and minutes_per_shift must be positive")
		return
	}
	if req.SpeedPerMinute.Sign() <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "speed_per_minute must be positive")
		return
	}

	shift := model.ShiftModel{
		Name:              req.Name,
		ShiftsPerDay:      req.ShiftsPerDay,
		MinutesPerShift:   req.MinutesPerShift,
		CleanupMinutes:    defaultCleanupMinutes,
		ChangeoverMinutes: defaultChangeoverMinutes,
		SpeedPerMinute:    req.SpeedPerMinute,
		DefectRate:        defaultDefectRate,
	}
	if req.CleanupMinutes != nil {
		shift.CleanupMinutes = *req.CleanupMinutes
	}
	if req.ChangeoverMinutes != nil {
		shift.ChangeoverMinutes = *req.ChangeoverMinutes
	}
	if req.DefectRate != nil {
		shift.DefectRate = *req.DefectRate
	}
	if shift.CleanupMinutes < 0 || shift.ChangeoverMinutes < 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "overhead minutes must not be negative")
		return
	}
	if shift.DefectRate.IsNegative() || shift.DefectRate.Cmp(decimal.NewFromInt(1)) >= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "defect_rate must be in [0, 1)")
		return
	}

	created, err := h.store.CreateShiftModel(r.Context(), shift)
	if err != nil {
		h.writeInternalError(w, r, "failed to create shift model", err)
		return
	}
	if req.IsActive != nil && *req.IsActive {
		created, err = h.store.ActivateShiftModel(r.Context(), created.ID)
		if err != nil {
			h.writeInternalError(w, r, "failed to activate shift model", err)
			return
		}
	}
	writeJSON(w, r, http.StatusCreated, created)
}

// HandleListShiftModels handles GET /v1/shift-models.
func (h *Handlers) HandleListShiftModels(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.store.ListShiftModels(r.Context())
	if err != nil {
		h.writeInternalError(w, r, "failed to list shift models", err)
		return
	}
	writeList(w, r, shifts, len(shifts), len(shifts))
}

// HandleGetShiftModel handles GET /v1/shift-models/{shift_model_id}.
func (h *Handlers) HandleGetShiftModel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("shift_model_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "shift_model_id must be a UUID")
		return
	}
	shift, err := h.store.GetShiftModel(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "shift model not found")
			return
		}
		h.writeInternalError(w, r, "failed to load shift model", err)
		return
	}
	writeJSON(w, r, http.StatusOK, shift)
}

// HandleActivateShiftModel handles POST /v1/shift-models/{shift_model_id}/activate.
func (h *Handlers) HandleActivateShiftModel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("shift_model_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "shift_model_id must be a UUID")
		return
	}
	shift, err := h.store.ActivateShiftModel(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "shift model not found")
			return
		}
		h.writeInternalError(w, r, "failed to activate shift model", err)
		return
	}
	h.logger.Info("shift model activated", "shift_model_id", shift.ID, "name", shift.Name)
	writeJSON(w, r, http.StatusOK, shift)
}
