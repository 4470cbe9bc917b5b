package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/gridironlab/valuation-engine/internal/domain/adjustment"
	"github.com/gridironlab/valuation-engine/internal/usecase"
)

func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateAdjustment")
	defer span.End()

	var req createAdjustmentRequest
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

	created, err := h.adjustmentService.Create(ctx, usecase.CreateAdjustmentInput{
		PlayerID:   req.PlayerID,
		FormatKey:  req.FormatKey,
		Delta:      req.Delta,
		Reason:     req.Reason,
		Source:     req.Source,
		Confidence: req.Confidence,
		TTL:        time.Duration(req.TTLHours) * time.Hour,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create adjustment failed", "player_id", req.PlayerID, "format_key", req.FormatKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, adjustmentToDTO(ctx, created))
}

func (h *Handler) ListPlayerAdjustments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayerAdjustments")
	defer span.End()

	formatKey := strings.TrimSpace(r.PathValue("formatKey"))
	playerID := strings.TrimSpace(r.PathValue("playerID"))
	total, active, err := h.adjustmentService.ActiveTotal(ctx, playerID, formatKey)
	if err != nil {
		h.logger.WarnContext(ctx, "list player adjustments failed", "player_id", playerID, "format_key", formatKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]adjustmentDTO, 0, len(active))
	for _, a := range active {
		items = append(items, adjustmentToDTO(ctx, a))
	}

	writeSuccess(ctx, w, http.StatusOK, playerAdjustmentsDTO{
		PlayerID:    playerID,
		FormatKey:   formatKey,
		ActiveTotal: total,
		Trend:       string(adjustment.TrendOf(total)),
		Adjustments: items,
	})
}
