package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/planline-io/planline/internal/model"
	"github.com/planline-io/planline/internal/storage"
)

// HandleCreateProduct handles POST /v1/products.
func (h *Handlers) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProductRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Code == "" || req.Name == "" || req.Unit == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "code, name and unit are required")
		return
	}

	product, err := h.store.CreateProduct(r.Context(), model.Product{
		Code: req.Code, Name: req.Name, Unit: req.Unit,
	})
	if err != nil {
		h.writeInternalError(w, r, "failed to create product", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, product)
}

// HandleCreateMaterial handles POST /v1/materials.
func (h *Handlers) HandleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req model.CreateMaterialRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Code == "" || req.Name == "" || req.Unit == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "code, name and unit are required")
		return
	}

	material, err := h.store.CreateMaterial(r.Context(), model.Material{
		Code: req.Code, Name: req.Name, Unit: req.Unit,
	})
	if err != nil {
		h.writeInternalError(w, r, "failed to create material", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, material)
}

// HandleGetInventory handles GET /v1/inventory/{material_id}.
func (h *Handlers) HandleGetInventory(w http.ResponseWriter, r *http.Request) {
	materialID, err := uuid.Parse(r.PathValue("material_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "material_id must be a UUID")
		return
	}
	inv, err := h.store.GetInventory(r.Context(), materialID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "no inventory record for material")
			return
		}
		h.writeInternalError(w, r, "failed to load inventory", err)
		return
	}
	writeJSON(w, r, http.StatusOK, inv)
}

// HandleUpsertInventory handles PUT /v1/inventory/{material_id}. Sets the
// absolute on-hand level (stocktake), as opposed to the relative deduction
// the consume endpoint performs.
func (h *Handlers) HandleUpsertInventory(w http.ResponseWriter, r *http.Request) {
	materialID, err := uuid.Parse(r.PathValue("material_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "material_id must be a UUID")
		return
	}
	var req model.UpsertInventoryRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.OnHand.IsNegative() {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "on_hand must not be negative")
		return
	}

	if err := h.store.UpsertInventory(r.Context(), materialID, req.OnHand); err != nil {
		h.writeInternalError(w, r, "failed to upsert inventory", err)
		return
	}
	inv, err := h.store.GetInventory(r.Context(), materialID)
	if err != nil {
		h.writeInternalError(w, r, "failed to load inventory", err)
		return
	}
	writeJSON(w, r, http.StatusOK, inv)
}

// HandleCreateBOMLine handles POST /v1/products/{product_id}/bom.
func (h *Handlers) HandleCreateBOMLine(w http.ResponseWriter, r *http.Request) {
	product, ok := h.productFromPath(w, r)
	if !ok {
		return
	}
	var req model.CreateBOMLineRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.MaterialID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "material_id is required")
		return
	}
	if req.QuantityPerUnit.Sign() <= 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "quantity_per_unit must be positive")
		return
	}

	line := model.BOMLine{
		ProductID:       product.ID,
		MaterialID:      req.MaterialID,
		QuantityPerUnit: req.QuantityPerUnit,
	}
	if err := h.store.CreateBOMLine(r.Context(), line); err != nil {
		h.writeInternalError(w, r, "failed to create bom line", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, line)
}

// HandleGetSchedule handles GET /v1/schedules/{schedule_id}.
func (h *Handlers) HandleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("schedule_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "schedule_id must be a UUID")
		return
	}
	sched, err := h.store.GetSchedule(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "schedule not found")
			return
		}
		h.writeInternalError(w, r, "failed to load schedule", err)
		return
	}
	writeJSON(w, r, http.StatusOK, sched)
}

// validScheduleStatus reports whether s is a recognized schedule status.
func validScheduleStatus(s model.ScheduleStatus) bool {
	switch s {
	case model.SchedulePlanned, model.ScheduleInProduction, model.ScheduleCompleted, model.ScheduleCancelled:
		return true
	}
	return false
}

// HandleUpdateScheduleStatus handles PATCH /v1/schedules/{schedule_id}/status.
// Cancelling a schedule frees its quantity for the day's admission checks.
func (h *Handlers) HandleUpdateScheduleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("schedule_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "schedule_id must be a UUID")
		return
	}
	var req model.UpdateScheduleStatusRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if !validScheduleStatus(req.Status) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "unrecognized status")
		return
	}

	sched, err := h.store.UpdateScheduleStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "schedule not found")
			return
		}
		h.writeInternalError(w, r, "failed to update schedule status", err)
		return
	}
	writeJSON(w, r, http.StatusOK, sched)
}
