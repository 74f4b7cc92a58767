package handler

import (
	"net/http"
	"strconv"

	"github.com/straye-as/bid-estimator/internal/domain"
	"github.com/straye-as/bid-estimator/internal/service"
	"go.uber.org/zap"
)

type BidHandler struct {
	bidService      *service.BidService
	estimateService *service.EstimateService
	logger          *zap.Logger
}

func NewBidHandler(bidService *service.BidService, estimateService *service.EstimateService, logger *zap.Logger) *BidHandler {
	return &BidHandler{
		bidService:      bidService,
		estimateService: estimateService,
		logger:          logger,
	}
}

// List godoc
// @Summary List bids
// @Description Get paginated list of bids, newest first
// @Tags Bids
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(open, won, lost, no_bid)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.BidDTO}
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /bids [get]
func (h *BidHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	status := domain.BidStatus(r.URL.Query().Get("status"))

	result, err := h.bidService.List(r.Context(), page, pageSize, status)
	if err != nil {
		handleServiceError(w, h.logger, err, "list bids")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create bid
// @Description Create a new open bid
// @Tags Bids
// @Accept json
// @Produce json
// @Param bid body domain.CreateBidRequest true "Bid data"
// @Success 201 {object} domain.BidDTO
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /bids [post]
func (h *BidHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBidRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	bid, err := h.bidService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create bid")
		return
	}

	w.Header().Set("Location", "/api/v1/bids/"+bid.ID.String())
	respondJSON(w, http.StatusCreated, bid)
}

// GetByID godoc
// @Summary Get bid
// @Tags Bids
// @Produce json
// @Param id path string true "Bid ID"
// @Success 200 {object} domain.BidDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /bids/{id} [get]
func (h *BidHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	bid, err := h.bidService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get bid")
		return
	}

	respondJSON(w, http.StatusOK, bid)
}

// Close godoc
// @Summary Close bid
// @Description Record the bid outcome. The bid's estimate becomes view-only.
// @Tags Bids
// @Accept json
// @Produce json
// @Param id path string true "Bid ID"
// @Param outcome body domain.CloseBidRequest true "Outcome"
// @Success 200 {object} domain.BidDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /bids/{id}/close [post]
func (h *BidHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.CloseBidRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	bid, err := h.bidService.Close(r.Context(), id, req.Status)
	if err != nil {
		handleServiceError(w, h.logger, err, "close bid")
		return
	}

	respondJSON(w, http.StatusOK, bid)
}

// CreateEstimate godoc
// @Summary Create estimate for bid
// @Description Seed a draft estimate from the catalog defaults. Rates default to the configured pricing.
// @Tags Bids
// @Accept json
// @Produce json
// @Param id path string true "Bid ID"
// @Param estimate body domain.CreateEstimateRequest true "Estimate data"
// @Success 201 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /bids/{id}/estimate [post]
func (h *BidHandler) CreateEstimate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.CreateEstimateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	est, err := h.estimateService.Create(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create estimate")
		return
	}

	w.Header().Set("Location", "/api/v1/estimates/"+est.ID.String())
	respondJSON(w, http.StatusCreated, est)
}

// GetEstimate godoc
// @Summary Get estimate for bid
// @Tags Bids
// @Produce json
// @Param id path string true "Bid ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /bids/{id}/estimate [get]
func (h *BidHandler) GetEstimate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	est, err := h.estimateService.GetByBidID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get estimate")
		return
	}

	respondJSON(w, http.StatusOK, est)
}
