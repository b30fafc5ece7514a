package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/report"
	"github.com/osse101/DCM_Go/internal/settlement"
)

// ScenarioHandler handles stored scenario endpoints
type ScenarioHandler struct {
	service settlement.Service
}

// NewScenarioHandler creates a new scenario handler
func NewScenarioHandler(service settlement.Service) *ScenarioHandler {
	return &ScenarioHandler{service: service}
}

// ScenarioResponse is a stored scenario with its settlement and summary
type ScenarioResponse struct {
	*domain.ScenarioView
	Summary report.Summary `json:"summary"`
}

// ScenariosResponse lists stored scenarios
type ScenariosResponse struct {
	Scenarios []domain.Scenario `json:"scenarios"`
	Total     int               `json:"total"`
}

func newScenarioResponse(view *domain.ScenarioView) ScenarioResponse {
	return ScenarioResponse{ScenarioView: view, Summary: report.Summarize(view.Settlement)}
}

func scenarioID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, URLParamID)
	if id == "" {
		respondError(w, http.StatusBadRequest, ErrMsgMissingScenarioID)
		return "", false
	}
	return id, true
}

// HandleCreate settles and stores a named market
// @Summary Save scenario
// @Description Settles the market and stores its input. Invalid markets are rejected and never stored.
// @Tags scenarios
// @Accept json
// @Produce json
// @Param request body domain.ScenarioRequest true "Named market"
// @Success 201 {object} ScenarioResponse
// @Failure 400 {object} ValidationErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/scenarios [post]
func (h *ScenarioHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.ScenarioRequest
	if err := DecodeAndValidateRequest(r, w, &req, OpSaveScenario); err != nil {
		return
	}

	view, err := h.service.SaveScenario(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, OpSaveScenario, err)
		return
	}

	w.Header().Set("Location", "/api/v1/scenarios/"+view.ID)
	respondJSON(w, http.StatusCreated, newScenarioResponse(view))
}

// HandleList returns stored scenarios, newest first
// @Summary List scenarios
// @Tags scenarios
// @Produce json
// @Param limit query int false "Maximum number of scenarios"
// @Success 200 {object} ScenariosResponse
// @Failure 400 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/scenarios [get]
func (h *ScenarioHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, ok := GetLimitParam(r, w, MaxListLimit)
	if !ok {
		return
	}

	scenarios, err := h.service.ListScenarios(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, OpListScenarios, err)
		return
	}

	respondJSON(w, http.StatusOK, ScenariosResponse{Scenarios: scenarios, Total: len(scenarios)})
}

// HandleGet returns one scenario with its settlement
// @Summary Get scenario
// @Tags scenarios
// @Produce json
// @Param id path string true "Scenario ID"
// @Success 200 {object} ScenarioResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/scenarios/{id} [get]
func (h *ScenarioHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetScenario(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, OpGetScenario, err)
		return
	}

	respondJSON(w, http.StatusOK, newScenarioResponse(view))
}

// HandleDelete removes a scenario
// @Summary Delete scenario
// @Tags scenarios
// @Produce json
// @Param id path string true "Scenario ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/scenarios/{id} [delete]
func (h *ScenarioHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteScenario(r.Context(), id); err != nil {
		respondServiceError(w, r, OpDeleteScenario, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgScenarioDeleted})
}

// HandleExport downloads a scenario's settlement as a workbook
// @Summary Export scenario
// @Tags scenarios
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Scenario ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/scenarios/{id}/export [get]
func (h *ScenarioHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := scenarioID(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetScenario(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, OpExportScenario, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, view.Settlement); err != nil {
		respondServiceError(w, r, OpExportScenario, err)
		return
	}

	w.Header().Set("Content-Type", ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="`+ExportFilenameTmpl+`"`, view.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
