package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/gridironlab/valuation-engine/internal/usecase"
)

func (h *Handler) ListEffectiveValues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEffectiveValues")
	defer span.End()

	formatKey := strings.TrimSpace(r.PathValue("formatKey"))
	values, err := h.effectiveService.List(ctx, formatKey)
	if err != nil {
		h.logger.WarnContext(ctx, "list effective values failed", "format_key", formatKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]effectiveValueDTO, 0, len(values))
	for _, v := range values {
		items = append(items, effectiveValueToDTO(ctx, v))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetEffectiveValue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEffectiveValue")
	defer span.End()

	formatKey := strings.TrimSpace(r.PathValue("formatKey"))
	playerID := strings.TrimSpace(r.PathValue("playerID"))
	v, err := h.effectiveService.Get(ctx, playerID, formatKey)
	if err != nil {
		h.logger.WarnContext(ctx, "get effective value failed", "format_key", formatKey, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, effectiveValueToDTO(ctx, v))
}

func (h *Handler) AnalyzeRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AnalyzeRoster")
	defer span.End()

	var req analyzeRosterRequest
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

	formatKey := strings.TrimSpace(r.PathValue("formatKey"))
	analysis, err := h.tradeService.AnalyzeRoster(ctx, formatKey, req.PlayerIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "analyze roster failed", "format_key", formatKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rosterAnalysisToDTO(ctx, analysis))
}

func (h *Handler) EvaluateTrade(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EvaluateTrade")
	defer span.End()

	var req evaluateTradeRequest
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

	evaluation, err := h.tradeService.Evaluate(ctx, req.FormatKey,
		usecase.TradeSide{PlayerIDs: req.SideA.PlayerIDs, Picks: req.SideA.Picks},
		usecase.TradeSide{PlayerIDs: req.SideB.PlayerIDs, Picks: req.SideB.Picks},
	)
	if err != nil {
		h.logger.WarnContext(ctx, "evaluate trade failed", "format_key", req.FormatKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tradeEvaluationToDTO(ctx, evaluation))
}
