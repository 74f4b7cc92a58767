package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/bid-estimator/internal/domain"
	"github.com/straye-as/bid-estimator/internal/export"
	"github.com/straye-as/bid-estimator/internal/service"
	"go.uber.org/zap"
)

type EstimateHandler struct {
	estimateService *service.EstimateService
	logger          *zap.Logger
}

func NewEstimateHandler(estimateService *service.EstimateService, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		logger:          logger,
	}
}

// GetByID godoc
// @Summary Get estimate
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /estimates/{id} [get]
func (h *EstimateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	est, err := h.estimateService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get estimate")
		return
	}

	respondJSON(w, http.StatusOK, est)
}

// UpdateRates godoc
// @Summary Update rate configuration
// @Description Replace the estimate's rates and reprice every line
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param rates body domain.UpdateRatesRequest true "Rate configuration"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /estimates/{id}/rates [put]
func (h *EstimateHandler) UpdateRates(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateRatesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	est, err := h.estimateService.UpdateRates(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update rates")
		return
	}

	respondJSON(w, http.StatusOK, est)
}

// UpdateItem godoc
// @Summary Update line item
// @Description Edit quantity, production rate, active flag or notes of an own-forces line
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param itemId path string true "Catalog item ID"
// @Param item body domain.UpdateLineItemRequest true "Fields to change"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /estimates/{id}/items/{itemId} [put]
func (h *EstimateHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateLineItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	est, err := h.estimateService.UpdateItem(r.Context(), id, chi.URLParam(r, "itemId"), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update line item")
		return
	}

	respondJSON(w, http.StatusOK, est)
}

// UpdateSubtrade godoc
// @Summary Update subtrade
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param itemId path string true "Subtrade ID"
// @Param subtrade body domain.UpdateSubtradeRequest true "Fields to change"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /estimates/{id}/subtrades/{itemId} [put]
func (h *EstimateHandler) UpdateSubtrade(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateSubtradeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	est, err := h.estimateService.UpdateSubtrade(r.Context(), id, chi.URLParam(r, "itemId"), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update subtrade")
		return
	}

	respondJSON(w, http.StatusOK, est)
}

// AddAssumption godoc
// @Summary Add assumption
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param assumption body domain.CreateAssumptionRequest true "Assumption"
// @Success 201 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /estimates/{id}/assumptions [post]
func (h *EstimateHandler) AddAssumption(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.CreateAssumptionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	est, err := h.estimateService.AddAssumption(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "add assumption")
		return
	}

	respondJSON(w, http.StatusCreated, est)
}

// ResolveAssumption godoc
// @Summary Resolve assumption
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Param assumptionId path string true "Assumption ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /estimates/{id}/assumptions/{assumptionId}/resolve [put]
func (h *EstimateHandler) ResolveAssumption(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	est, err := h.estimateService.ResolveAssumption(r.Context(), id, chi.URLParam(r, "assumptionId"))
	if err != nil {
		handleServiceError(w, h.logger, err, "resolve assumption")
		return
	}

	respondJSON(w, http.StatusOK, est)
}

// Import godoc
// @Summary Import takeoff
// @Description Map takeoff entries onto a fresh catalog, replacing the estimate's sections and subtrades. Unmapped entries become warning assumptions.
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param takeoff body domain.ImportTakeoffRequest true "Takeoff entries"
// @Success 200 {object} domain.ImportReportDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /estimates/{id}/import [post]
func (h *EstimateHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.ImportTakeoffRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	report, err := h.estimateService.Import(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "import takeoff")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// ImportFlatRate godoc
// @Summary Import flat-rate sheet
// @Description Convert a flat-rate pricing sheet into takeoff entries and import them
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param sheet body domain.FlatRateImportRequest true "Flat-rate lines"
// @Success 200 {object} domain.ImportReportDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /estimates/{id}/import/flat-rate [post]
func (h *EstimateHandler) ImportFlatRate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.FlatRateImportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	report, err := h.estimateService.ImportFlatRate(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "import flat-rate sheet")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Transition godoc
// @Summary Change estimate status
// @Description Move the estimate through draft, questions_pending, working, draft_ready and approved. Approval archives a snapshot.
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param transition body domain.TransitionEstimateRequest true "Target status"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /estimates/{id}/transition [post]
func (h *EstimateHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.TransitionEstimateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	est, err := h.estimateService.Transition(r.Context(), id, req.Status)
	if err != nil {
		handleServiceError(w, h.logger, err, "change estimate status")
		return
	}

	respondJSON(w, http.StatusOK, est)
}

// Pricing godoc
// @Summary Get priced breakdown
// @Description Every active priced line with its cost breakdown, section totals, subtrade totals and the grand total
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} domain.PricingDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /estimates/{id}/pricing [get]
func (h *EstimateHandler) Pricing(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	pricing, err := h.estimateService.Pricing(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "price estimate")
		return
	}

	respondJSON(w, http.StatusOK, pricing)
}

// Export godoc
// @Summary Export estimate workbook
// @Tags Estimates
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Estimate ID"
// @Success 200 {file} binary
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /estimates/{id}/export.xlsx [get]
func (h *EstimateHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	data, filename, err := h.estimateService.Export(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "export estimate")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Reconcile godoc
// @Summary Reconcile grand totals
// @Description Recompute every stored grand total and rewrite drifted snapshots and bid values
// @Tags Maintenance
// @Produce json
// @Success 200 {object} domain.ReconcileResultDTO
// @Failure 500 {object} domain.APIError
// @Router /maintenance/reconcile [post]
func (h *EstimateHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.estimateService.RunReconcile(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "reconcile estimates")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
