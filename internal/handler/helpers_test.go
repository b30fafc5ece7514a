package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/osse101/DCM_Go/internal/database/memory"
	"github.com/osse101/DCM_Go/internal/settlement"
)

const sampleMarketJSON = `{
	"participants": [
		{"name": "A", "stake": 100, "confidence": 80, "side": "YES"},
		{"name": "B", "stake": 100, "confidence": 30, "side": "YES"},
		{"name": "C", "stake": 100, "confidence": 60, "side": "NO"}
	],
	"winning_side": "YES",
	"leverage_bound": 5
}`

func newTestService(t *testing.T) settlement.Service {
	t.Helper()
	svc := settlement.NewService(memory.NewScenarioRepository(), nil, settlement.Config{
		DefaultLeverageBound: 5,
		MaxLeverageBound:     100,
		MaxParticipants:      10,
		BatchConcurrency:     2,
		CacheSize:            8,
		CacheTTL:             time.Minute,
	})
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	return svc
}

// newTestRouter mounts the API routes the way the server does
func newTestRouter(svc settlement.Service) http.Handler {
	r := chi.NewRouter()
	payouts := NewPayoutHandler(svc)
	scenarios := NewScenarioHandler(svc)
	r.Post("/api/v1/payouts", payouts.HandleCompute)
	r.Post("/api/v1/payouts/batch", payouts.HandleComputeBatch)
	r.Route("/api/v1/scenarios", func(r chi.Router) {
		r.Post("/", scenarios.HandleCreate)
		r.Get("/", scenarios.HandleList)
		r.Get("/{id}", scenarios.HandleGet)
		r.Delete("/{id}", scenarios.HandleDelete)
		r.Get("/{id}/export", scenarios.HandleExport)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
