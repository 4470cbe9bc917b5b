package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/gridironlab/valuation-engine/internal/domain/tuning"
	"github.com/gridironlab/valuation-engine/internal/usecase"
)

func (h *Handler) GetTuningConfig(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTuningConfig")
	defer span.End()

	cfg := h.tuningService.Config(ctx)
	writeSuccess(ctx, w, http.StatusOK, tuningConfigToDTO(ctx, cfg))
}

func (h *Handler) SaveTuningEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SaveTuningEntries")
	defer span.End()

	var req saveTuningEntriesRequest
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

	entries := make([]tuning.Entry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, tuning.Entry{
			Category: tuning.Category(strings.TrimSpace(e.Category)),
			Key:      strings.TrimSpace(e.Key),
			Value:    e.Value,
		})
	}

	outcomes, err := h.tuningService.SaveEntries(ctx, entries)
	if err != nil {
		h.logger.WarnContext(ctx, "save tuning entries failed", "entries", len(entries), "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]tuningOutcomeDTO, 0, len(outcomes))
	for _, outcome := range outcomes {
		items = append(items, tuningOutcomeDTO{
			Category: string(outcome.Category),
			Key:      outcome.Key,
			Saved:    outcome.Saved,
			Message:  outcome.Message,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) DeleteTuningEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteTuningEntry")
	defer span.End()

	category := strings.TrimSpace(r.PathValue("category"))
	key := strings.TrimSpace(r.PathValue("key"))
	if err := h.tuningService.DeleteEntry(ctx, tuning.Category(category), key); err != nil {
		h.logger.WarnContext(ctx, "delete tuning entry failed", "category", category, "key", key, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"category": category,
		"key":      key,
	})
}
