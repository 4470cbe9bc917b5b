package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/gridironlab/valuation-engine/internal/domain/identity"
	"github.com/gridironlab/valuation-engine/internal/domain/value"
	"github.com/gridironlab/valuation-engine/internal/infrastructure/repository/memory"
	"github.com/gridironlab/valuation-engine/internal/namematch"
	"github.com/gridironlab/valuation-engine/internal/platform/id"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/usecase"
)

const testJobToken = "job-secret"

type testEnv struct {
	router    http.Handler
	valueRepo *memory.ValueRepository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	logger := logging.NewNop()
	idGen := id.NewRandomGenerator()

	identityRepo := memory.NewIdentityRepository(memory.SeedIdentities())
	conflictRepo := memory.NewConflictRepository()
	profileRepo := memory.NewProfileRepository()
	valueRepo := memory.NewValueRepository()
	adjustmentRepo := memory.NewAdjustmentRepository()
	tuningRepo := memory.NewTuningRepository(nil)
	marketRepo := memory.NewMarketRepository(memory.SeedMarketRanks())

	identitySvc := usecase.NewIdentityService(identityRepo, conflictRepo, namematch.NewScorer(namematch.DefaultNicknames()), idGen, logger)
	profileSvc := usecase.NewProfileService(profileRepo, nil, idGen, logger)
	tuningSvc := usecase.NewTuningService(tuningRepo, nil, logger)
	adjustmentSvc := usecase.NewAdjustmentService(adjustmentRepo, tuningSvc, idGen, logger)
	effectiveSvc := usecase.NewEffectiveValueService(valueRepo, adjustmentSvc, logger)
	tradeSvc := usecase.NewTradeService(effectiveSvc, tuningSvc, logger)
	conflictSvc := usecase.NewConflictService(conflictRepo, identityRepo, identityRepo, logger)
	duplicateSvc := usecase.NewDuplicateService(identityRepo, conflictRepo, idGen, logger)
	validatorSvc := usecase.NewValidatorService(identityRepo, conflictRepo, valueRepo, nil, logger)
	rebuildSvc := usecase.NewRebuildService(identityRepo, marketRepo, valueRepo, profileSvc, validatorSvc, duplicateSvc, tuningSvc, nil, idGen, logger)

	handler := NewHandler(
		identitySvc,
		profileSvc,
		effectiveSvc,
		tradeSvc,
		adjustmentSvc,
		tuningSvc,
		conflictSvc,
		duplicateSvc,
		validatorSvc,
		rebuildSvc,
		nil,
		logger,
	)

	return testEnv{
		router:    NewRouter(handler, logger, false, []string{"*"}, testJobToken),
		valueRepo: valueRepo,
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func publishTestSnapshot(t *testing.T, repo *memory.ValueRepository, formatKey string) {
	t.Helper()

	snapshot := value.Snapshot{
		ID:          "snap-1",
		FormatKey:   formatKey,
		PlayerCount: 2,
		Current:     true,
		CreatedAt:   time.Now().UTC(),
	}
	values := []value.PlayerValue{
		{PlayerID: "p1", SnapshotID: "snap-1", FormatKey: formatKey, Position: identity.PositionQB, Rank: 1, FinalValue: 9800},
		{PlayerID: "p2", SnapshotID: "snap-1", FormatKey: formatKey, Position: identity.PositionWR, Rank: 2, FinalValue: 9100},
	}
	if err := repo.PublishSnapshot(context.Background(), snapshot, values); err != nil {
		t.Fatalf("publish snapshot: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["status"].(string); got != "ok" {
		t.Fatalf("unexpected health payload: %v", body)
	}
}

func TestListEffectiveValues_ReturnsBoard(t *testing.T) {
	env := newTestEnv(t)
	publishTestSnapshot(t, env.valueRepo, memory.FormatKeySeed)

	req := httptest.NewRequest(http.MethodGet, "/v1/formats/"+memory.FormatKeySeed+"/values", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	items, ok := body["data"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 board rows, got %v", body["data"])
	}
	first, _ := items[0].(map[string]any)
	if got, _ := first["player_id"].(string); got != "p1" {
		t.Fatalf("expected p1 first on the board, got %v", first)
	}
	if got, _ := first["effective_value"].(float64); got != 9800 {
		t.Fatalf("unexpected effective value: %v", first)
	}
}

func TestGetEffectiveValue_UnknownPlayerIs404(t *testing.T) {
	env := newTestEnv(t)
	publishTestSnapshot(t, env.valueRepo, memory.FormatKeySeed)

	req := httptest.NewRequest(http.MethodGet, "/v1/formats/"+memory.FormatKeySeed+"/values/ghost", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestResolveFormat_DerivesFormatKey(t *testing.T) {
	env := newTestEnv(t)

	payload := `{
		"format": "dynasty",
		"num_teams": 12,
		"superflex": true,
		"ppr": 1.0,
		"te_premium_ppr": 0,
		"starting_slots": {"QB": 1, "RB": 2, "WR": 3, "TE": 1, "FLEX": 1, "SUPER_FLEX": 1},
		"bench_size": 20
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/formats/resolve", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["format_key"].(string); got != memory.FormatKeySeed {
		t.Fatalf("unexpected format key: %q", got)
	}
}

func TestResolveFormat_RejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/formats/resolve", strings.NewReader(`{"bogus": true}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestGetTuningConfig_ReturnsDefaults(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/tuning", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["production_weight"].(float64); got != 1.0 {
		t.Fatalf("expected default production weight, got %v", data)
	}
	if got, _ := data["adjustment_total_cap"].(float64); got != 1500 {
		t.Fatalf("expected default adjustment cap, got %v", data)
	}
}

func TestInternalJobRoutes_RequireToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sweep-adjustments", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sweep-adjustments", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 with token, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzeRoster_ReportsNeeds(t *testing.T) {
	env := newTestEnv(t)
	publishTestSnapshot(t, env.valueRepo, memory.FormatKeySeed)

	payload := `{"player_ids": ["p1", "p2"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/formats/"+memory.FormatKeySeed+"/roster/analyze", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	positions, ok := data["positions"].([]any)
	if !ok || len(positions) != 4 {
		t.Fatalf("expected 4 position outlooks, got %v", data)
	}
	for _, raw := range positions {
		outlook, _ := raw.(map[string]any)
		switch outlook["position"] {
		case "QB":
			if got, _ := outlook["strength"].(string); got != "elite" {
				t.Fatalf("QB strength = %v, want elite for a 9800 starter", outlook)
			}
		case "RB":
			if need, _ := outlook["need"].(bool); !need {
				t.Fatalf("empty RB group must be a need: %v", outlook)
			}
		}
	}
}

func TestAnalyzeRoster_UnknownPlayerIs404(t *testing.T) {
	env := newTestEnv(t)
	publishTestSnapshot(t, env.valueRepo, memory.FormatKeySeed)

	req := httptest.NewRequest(http.MethodPost, "/v1/formats/"+memory.FormatKeySeed+"/roster/analyze", strings.NewReader(`{"player_ids": ["ghost"]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateAdjustment_RoundTripsThroughBoard(t *testing.T) {
	env := newTestEnv(t)
	publishTestSnapshot(t, env.valueRepo, memory.FormatKeySeed)

	payload := `{
		"player_id": "p2",
		"format_key": "` + memory.FormatKeySeed + `",
		"delta": 300,
		"reason": "breakout stretch run",
		"source": "manual",
		"confidence": 4,
		"ttl_hours": 72
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/adjustments", strings.NewReader(payload))
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/formats/"+memory.FormatKeySeed+"/values/p2", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["effective_value"].(float64); got != 9400 {
		t.Fatalf("expected adjusted value 9400, got %v", data)
	}
	if got, _ := data["trend"].(string); got != "up" {
		t.Fatalf("expected upward trend, got %v", data)
	}
}
