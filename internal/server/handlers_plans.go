package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/planline-io/planline/internal/model"
	"github.com/planline-io/planline/internal/storage"
)

// HandleCreateSchedule handles POST /v1/schedules. The request is admitted
// only if the day's effective capacity covers the existing load plus the new
// quantity; otherwise a 409 with the overload details is returned.
func (h *Handlers) HandleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req model.CreateScheduleRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	day, err := parseDay(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "date must be YYYY-MM-DD")
		return
	}
	if req.PlannedQty <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "planned_qty must be positive")
		return
	}
	if _, err := h.store.GetProduct(r.Context(), req.ProductID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "product not found")
			return
		}
		h.writeInternalError(w, r, "failed to load product", err)
		return
	}

	result, err := h.checker.CheckOverload(r.Context(), day, req.PlannedQty)
	if err != nil {
		h.writeInternalError(w, r, "failed to check overload", err)
		return
	}
	if result.IsOverloaded {
		h.logger.Warn("schedule rejected: day overloaded",
			"date", req.Date, "planned_qty", req.PlannedQty,
			"current_load", result.CurrentLoad, "capacity", result.Capacity)
		writeErrorDetails(w, r, http.StatusConflict, model.ErrCodeOverloaded,
			"requested quantity exceeds remaining capacity for "+req.Date, result)
		return
	}

	sched, err := h.store.CreateSchedule(r.Context(), model.ProductionSchedule{
		ProductID:     req.ProductID,
		ScheduledDate: day,
		PlannedQty:    req.PlannedQty,
		Status:        model.SchedulePlanned,
	})
	if err != nil {
		h.writeInternalError(w, r, "failed to create schedule", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, sched)
}

// HandleListSchedules handles GET /v1/schedules?date=YYYY-MM-DD.
func (h *Handlers) HandleListSchedules(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "date must be YYYY-MM-DD")
		return
	}
	scheds, err := h.store.ListSchedulesByDate(r.Context(), day)
	if err != nil {
		h.writeInternalError(w, r, "failed to list schedules", err)
		return
	}
	writeList(w, r, scheds, len(scheds), len(scheds))
}

// validPlanStatus reports whether s is a recognized plan status.
func validPlanStatus(s model.PlanStatus) bool {
	switch s {
	case model.PlanPlanned, model.PlanInProduction, model.PlanProductionCompleted,
		model.PlanInspection, model.PlanShipping, model.PlanDeliveryCompleted:
		return true
	}
	return false
}

// validWorkType reports whether w is a recognized work type.
func validWorkType(w model.WorkType) bool {
	switch w {
	case model.WorkOven, model.WorkMixing, model.WorkPackaging, model.WorkSorting:
		return true
	}
	return false
}

// HandleCreateOrderPlan handles POST /v1/order-plans.
func (h *Handlers) HandleCreateOrderPlan(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOrderPlanRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.CompanyName == "" || req.ProductName == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "company_name and product_name are required")
		return
	}
	if !validWorkType(req.WorkType) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "unrecognized work_type")
		return
	}
	if req.Status == "" {
		req.Status = model.PlanPlanned
	}
	if !validPlanStatus(req.Status) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "unrecognized status")
		return
	}
	if req.OrderQuantity <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "order_quantity must be positive")
		return
	}
	if req.RepeatCount < 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "repeat_count must not be negative")
		return
	}

	plan, err := h.store.CreateOrderPlan(r.Context(), model.OrderPlan{
		CompanyName:   req.CompanyName,
		ProductName:   req.ProductName,
		WorkType:      req.WorkType,
		Status:        req.Status,
		Weight:        req.Weight,
		RepeatCount:   req.RepeatCount,
		DesiredDate:   req.DesiredDate,
		DeliveryDate:  req.DeliveryDate,
		OrderQuantity: req.OrderQuantity,
	})
	if err != nil {
		h.writeInternalError(w, r, "failed to create order plan", err)
		return
	}

	h.tracker.Track(plan.ID.String(), plan.EntityName(), nil, plan.Fields(), model.ChangeCreated)
	writeJSON(w, r, http.StatusCreated, plan)
}

// planFromPath resolves the {plan_id} path value to an order plan.
func (h *Handlers) planFromPath(w http.ResponseWriter, r *http.Request) (model.OrderPlan, bool) {
	id, err := uuid.Parse(r.PathValue("plan_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "plan_id must be a UUID")
		return model.OrderPlan{}, false
	}
	plan, err := h.store.GetOrderPlan(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "order plan not found")
			return model.OrderPlan{}, false
		}
		h.writeInternalError(w, r, "failed to load order plan", err)
		return model.OrderPlan{}, false
	}
	return plan, true
}

// HandleGetOrderPlan handles GET /v1/order-plans/{plan_id}.
func (h *Handlers) HandleGetOrderPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.planFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, plan)
}

// HandleListOrderPlans handles GET /v1/order-plans?limit=&offset=.
func (h *Handlers) HandleListOrderPlans(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "limit must be a positive integer")
			return
		}
		limit = v
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "offset must not be negative")
			return
		}
		offset = v
	}

	plans, err := h.store.ListOrderPlans(r.Context(), limit, offset)
	if err != nil {
		h.writeInternalError(w, r, "failed to list order plans", err)
		return
	}
	writeList(w, r, plans, len(plans), limit)
}

// HandleUpdateOrderPlan handles PATCH /v1/order-plans/{plan_id}. The current
// row is loaded, the non-nil request fields are merged in, and the full row
// is written back; the before and after images feed the change tracker.
func (h *Handlers) HandleUpdateOrderPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.planFromPath(w, r)
	if !ok {
		return
	}
	var req model.UpdateOrderPlanRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	before := plan.Fields()

	if req.CompanyName != nil {
		plan.CompanyName = *req.CompanyName
	}
	if req.ProductName != nil {
		plan.ProductName = *req.ProductName
	}
	if req.WorkType != nil {
		if !validWorkType(*req.WorkType) {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "unrecognized work_type")
			return
		}
		plan.WorkType = *req.WorkType
	}
	if req.Status != nil {
		if !validPlanStatus(*req.Status) {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "unrecognized status")
			return
		}
		plan.Status = *req.Status
	}
	if req.Weight != nil {
		plan.Weight = req.Weight
	}
	if req.RepeatProgress != nil {
		if *req.RepeatProgress < 0 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "repeat_progress must not be negative")
			return
		}
		plan.RepeatProgress = *req.RepeatProgress
	}
	if req.RepeatCount != nil {
		if *req.RepeatCount < 0 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "repeat_count must not be negative")
			return
		}
		plan.RepeatCount = *req.RepeatCount
	}
	if req.DesiredDate != nil {
		plan.DesiredDate = req.DesiredDate
	}
	if req.DeliveryDate != nil {
		plan.DeliveryDate = req.DeliveryDate
	}
	if req.OrderQuantity != nil {
		if *req.OrderQuantity <= 0 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "order_quantity must be positive")
			return
		}
		plan.OrderQuantity = *req.OrderQuantity
	}
	plan.UpdatedAt = time.Now().UTC()

	updated, err := h.store.UpdateOrderPlan(r.Context(), plan)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "order plan not found")
			return
		}
		h.writeInternalError(w, r, "failed to update order plan", err)
		return
	}

	h.tracker.Track(updated.ID.String(), updated.EntityName(), before, updated.Fields(), model.ChangeUpdated)
	writeJSON(w, r, http.StatusOK, updated)
}

// HandleDeleteOrderPlan handles DELETE /v1/order-plans/{plan_id}.
func (h *Handlers) HandleDeleteOrderPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.planFromPath(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteOrderPlan(r.Context(), plan.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "order plan not found")
			return
		}
		h.writeInternalError(w, r, "failed to delete order plan", err)
		return
	}

	h.tracker.Track(plan.ID.String(), plan.EntityName(), plan.Fields(), nil, model.ChangeDeleted)
	w.WriteHeader(http.StatusNoContent)
}
