package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/formats", handler.ListFormats)
	mux.HandleFunc("POST /v1/formats/resolve", handler.ResolveFormat)
	mux.HandleFunc("GET /v1/formats/{formatKey}", handler.GetFormat)
	mux.HandleFunc("GET /v1/formats/{formatKey}/values", handler.ListEffectiveValues)
	mux.HandleFunc("GET /v1/formats/{formatKey}/values/{playerID}", handler.GetEffectiveValue)
	mux.HandleFunc("GET /v1/formats/{formatKey}/players/{playerID}/adjustments", handler.ListPlayerAdjustments)
	mux.HandleFunc("GET /v1/formats/{formatKey}/validation", handler.ValidateUniverse)
	mux.HandleFunc("POST /v1/formats/{formatKey}/roster/analyze", handler.AnalyzeRoster)
	mux.HandleFunc("POST /v1/trades/evaluate", handler.EvaluateTrade)
	mux.HandleFunc("GET /v1/conflicts", handler.ListOpenConflicts)
	mux.HandleFunc("GET /v1/tuning", handler.GetTuningConfig)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/adjustments", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.CreateAdjustment)))
	mux.Handle("POST /v1/conflicts/{conflictID}/resolve", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ResolveConflict)))
	mux.Handle("PUT /v1/tuning", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SaveTuningEntries)))
	mux.Handle("DELETE /v1/tuning/{category}/{key}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.DeleteTuningEntry)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/rebuild", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRebuildJob)))
	mux.Handle("POST /v1/internal/jobs/sync-identities", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncIdentitiesJob)))
	mux.Handle("POST /v1/internal/jobs/sync-ranks", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncRanksJob)))
	mux.Handle("POST /v1/internal/jobs/scan-duplicates", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunDuplicateScanJob)))
	mux.Handle("POST /v1/internal/jobs/sweep-adjustments", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSweepAdjustmentsJob)))
	mux.Handle("POST /v1/internal/jobs/retire-stale", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRetireStaleJob)))
}
