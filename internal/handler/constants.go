package handler

import "time"

// HeaderClientSource lets first-party clients label the settlements they request
const HeaderClientSource = "X-Client-Source"

// Query parameters and path keys
const (
	QueryParamLimit = "limit"
	URLParamID      = "id"
)

// MaxListLimit caps the page size of scenario listings
const MaxListLimit = 500

// ReadinessTimeout bounds the storage ping behind /readyz
const ReadinessTimeout = 2 * time.Second

// XLSX export
const (
	ContentTypeXLSX    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ExportFilenameTmpl = "scenario-%s.xlsx"
)

// Operation names used in logs
const (
	OpComputePayouts = "Compute payouts"
	OpComputeBatch   = "Compute payout batch"
	OpSaveScenario   = "Save scenario"
	OpGetScenario    = "Get scenario"
	OpListScenarios  = "List scenarios"
	OpDeleteScenario = "Delete scenario"
	OpExportScenario = "Export scenario"
)
