package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/gridironlab/valuation-engine/internal/usecase"
)

func (h *Handler) ValidateUniverse(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ValidateUniverse")
	defer span.End()

	formatKey := strings.TrimSpace(r.PathValue("formatKey"))
	result, err := h.validatorService.Validate(ctx, formatKey)
	if err != nil {
		h.logger.WarnContext(ctx, "validate universe failed", "format_key", formatKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, validationResultToDTO(ctx, result))
}

func (h *Handler) RunRebuildJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRebuildJob")
	defer span.End()

	if h.rebuildService == nil {
		writeError(ctx, w, fmt.Errorf("%w: rebuild service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req rebuildJobRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.rebuildService.RunRebuild(ctx, usecase.RebuildInput{FormatKey: req.FormatKey})
	if err != nil {
		h.logger.WarnContext(ctx, "run rebuild job failed", "format_key", req.FormatKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rebuildResultDTO{
		SnapshotID:    result.SnapshotID,
		FormatKey:     result.FormatKey,
		PlayerCount:   result.PlayerCount,
		AnchoredCount: result.AnchoredCount,
		Warnings:      result.Warnings,
		DurationMS:    result.Duration.Milliseconds(),
	})
}

func (h *Handler) RunSyncIdentitiesJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncIdentitiesJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.syncService.SyncIdentities(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run sync identities job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, identitySyncResultDTO{
		Fetched:   result.Fetched,
		Created:   result.Created,
		Updated:   result.Updated,
		Ambiguous: result.Ambiguous,
		Failed:    result.Failed,
	})
}

func (h *Handler) RunSyncRanksJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncRanksJob")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req syncRanksJobRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.syncService.SyncMarketRanks(ctx, req.FormatKey)
	if err != nil {
		h.logger.WarnContext(ctx, "run sync ranks job failed", "format_key", req.FormatKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, marketSyncResultDTO{
		FormatKey: req.FormatKey,
		Fetched:   result.Fetched,
		Imported:  result.Imported,
		Unmatched: result.Unmatched,
	})
}

func (h *Handler) RunDuplicateScanJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunDuplicateScanJob")
	defer span.End()

	scan, err := h.duplicateService.DetectAll(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run duplicate scan job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	conflicts := make([]conflictDTO, 0, len(scan.Conflicts))
	for _, c := range scan.Conflicts {
		conflicts = append(conflicts, conflictToDTO(ctx, c))
	}

	writeSuccess(ctx, w, http.StatusOK, duplicateScanDTO{
		Conflicts:          conflicts,
		HighConfidence:     scan.HighConfidence,
		MediumConfidence:   scan.MediumConfidence,
		LowConfidence:      scan.LowConfidence,
		ShouldBlockRebuild: scan.ShouldBlockRebuild,
	})
}

func (h *Handler) RunSweepAdjustmentsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSweepAdjustmentsJob")
	defer span.End()

	removed, err := h.adjustmentService.SweepExpired(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run sweep adjustments job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sweepResultDTO{Removed: removed})
}

func (h *Handler) RunRetireStaleJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRetireStaleJob")
	defer span.End()

	retired, err := h.identityService.RetireStale(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run retire stale job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, retireResultDTO{Retired: retired})
}
