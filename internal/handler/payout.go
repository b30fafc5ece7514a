package handler

import (
	"net/http"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/report"
	"github.com/osse101/DCM_Go/internal/settlement"
)

// PayoutHandler serves stateless settlements
type PayoutHandler struct {
	service settlement.Service
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(service settlement.Service) *PayoutHandler {
	return &PayoutHandler{service: service}
}

// ComputeResponse is a settlement with its summary statistics
type ComputeResponse struct {
	*domain.Settlement
	Summary report.Summary `json:"summary"`
}

// BatchComputeResponse holds one result per market, in request order
type BatchComputeResponse struct {
	Results []domain.BatchItemResult `json:"results"`
	Failed  int                      `json:"failed"`
}

// requestSource maps the client source header onto a known event source
func requestSource(r *http.Request) string {
	switch src := r.Header.Get(HeaderClientSource); src {
	case settlement.SourceDiscord, settlement.SourceCLI:
		return src
	default:
		return settlement.SourceAPI
	}
}

// HandleCompute settles one market
// @Summary Compute payouts
// @Description Weighs every participant by stake and clamped confidence, then shares the losing pool among winners by weight. Invalid stakes or leverage bounds reject the whole request with per-field detail.
// @Tags payouts
// @Accept json
// @Produce json
// @Param request body domain.ComputeRequest true "Market"
// @Success 200 {object} ComputeResponse
// @Failure 400 {object} ValidationErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/payouts [post]
func (h *PayoutHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	var req domain.ComputeRequest
	if err := DecodeAndValidateRequest(r, w, &req, OpComputePayouts); err != nil {
		return
	}

	ctx := settlement.WithSource(r.Context(), requestSource(r))
	result, err := h.service.Compute(ctx, &req)
	if err != nil {
		respondServiceError(w, r, OpComputePayouts, err)
		return
	}

	respondJSON(w, http.StatusOK, ComputeResponse{Settlement: result, Summary: report.Summarize(result)})
}

// HandleComputeBatch settles independent markets
// @Summary Compute payouts for several markets
// @Description Each market is settled independently. A rejected market reports its error without failing the others.
// @Tags payouts
// @Accept json
// @Produce json
// @Param request body domain.BatchComputeRequest true "Markets"
// @Success 200 {object} BatchComputeResponse
// @Failure 400 {object} ValidationErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/payouts/batch [post]
func (h *PayoutHandler) HandleComputeBatch(w http.ResponseWriter, r *http.Request) {
	var req domain.BatchComputeRequest
	if err := DecodeAndValidateRequest(r, w, &req, OpComputeBatch); err != nil {
		return
	}

	results := h.service.ComputeBatch(r.Context(), req.Markets)

	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	respondJSON(w, http.StatusOK, BatchComputeResponse{Results: results, Failed: failed})
}
