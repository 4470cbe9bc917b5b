package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/gridironlab/valuation-engine/internal/domain/profile"
	"github.com/gridironlab/valuation-engine/internal/usecase"
)

func (h *Handler) ResolveFormat(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveFormat")
	defer span.End()

	var req resolveFormatRequest
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

	slots := make(map[profile.SlotType]int, len(req.StartingSlots))
	for slot, count := range req.StartingSlots {
		slots[profile.SlotType(strings.ToUpper(strings.TrimSpace(slot)))] = count
	}

	resolved, err := h.profileService.Resolve(ctx, profile.LeagueProfile{
		Format:        profile.Format(req.Format),
		NumTeams:      req.NumTeams,
		Superflex:     req.Superflex,
		PPR:           req.PPR,
		TEPremiumPPR:  req.TEPremiumPPR,
		IDPEnabled:    req.IDPEnabled,
		IDPPreset:     profile.IDPPreset(req.IDPPreset),
		StartingSlots: slots,
		BenchSize:     req.BenchSize,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "resolve format failed", "format", req.Format, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(ctx, resolved))
}

func (h *Handler) ListFormats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFormats")
	defer span.End()

	profiles, err := h.profileService.ListAll(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list formats failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]profileDTO, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, profileToDTO(ctx, p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetFormat(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFormat")
	defer span.End()

	formatKey := strings.TrimSpace(r.PathValue("formatKey"))
	p, err := h.profileService.GetByFormatKey(ctx, formatKey)
	if err != nil {
		h.logger.WarnContext(ctx, "get format failed", "format_key", formatKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(ctx, p))
}
