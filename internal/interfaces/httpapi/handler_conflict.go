package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/gridironlab/valuation-engine/internal/domain/conflict"
	"github.com/gridironlab/valuation-engine/internal/usecase"
)

func (h *Handler) ListOpenConflicts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListOpenConflicts")
	defer span.End()

	conflicts, err := h.conflictService.ListOpen(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list open conflicts failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]conflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		items = append(items, conflictToDTO(ctx, c))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveConflict")
	defer span.End()

	conflictID := strings.TrimSpace(r.PathValue("conflictID"))
	var req resolveConflictRequest
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

	if err := h.conflictService.Resolve(ctx, conflictID, conflict.Resolution(req.Resolution)); err != nil {
		h.logger.WarnContext(ctx, "resolve conflict failed", "conflict_id", conflictID, "resolution", req.Resolution, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"conflict_id": conflictID,
		"resolution":  req.Resolution,
	})
}
