package app

import (
	"context"
	"errors"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/gridironlab/valuation-engine/external/alerting"
	"github.com/gridironlab/valuation-engine/internal/platform/logging"
	"github.com/gridironlab/valuation-engine/internal/usecase"
)

const jobTimeout = 10 * time.Minute

type jobRunnerConfig struct {
	IdentitySyncInterval time.Duration
	RebuildInterval      time.Duration
	SweepInterval        time.Duration
	SyncEnabled          bool
}

type jobServices struct {
	identity   *usecase.IdentityService
	profile    *usecase.ProfileService
	adjustment *usecase.AdjustmentService
	rebuild    *usecase.RebuildService
	sync       *usecase.SyncService
	alerts     *alerting.Publisher
}

// jobRunner drives the periodic maintenance loops: feed sync, nightly
// rebuilds, and adjustment sweeps. Each loop runs on its own ticker so
// a slow rebuild never delays a sweep.
type jobRunner struct {
	cfg    jobRunnerConfig
	svcs   jobServices
	logger *logging.Logger

	wg   conc.WaitGroup
	stop chan struct{}
}

func newJobRunner(cfg jobRunnerConfig, svcs jobServices, logger *logging.Logger) *jobRunner {
	if logger == nil {
		logger = logging.Default()
	}

	return &jobRunner{
		cfg:    cfg,
		svcs:   svcs,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

func (r *jobRunner) Start() {
	if r.cfg.SyncEnabled && r.cfg.IdentitySyncInterval > 0 {
		r.wg.Go(func() { r.loop("identity-sync", r.cfg.IdentitySyncInterval, r.runIdentitySync) })
	}
	if r.cfg.RebuildInterval > 0 {
		r.wg.Go(func() { r.loop("rebuild", r.cfg.RebuildInterval, r.runRebuilds) })
	}
	if r.cfg.SweepInterval > 0 {
		r.wg.Go(func() { r.loop("sweep", r.cfg.SweepInterval, r.runSweep) })
	}
}

func (r *jobRunner) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	r.wg.Wait()
}

func (r *jobRunner) loop(name string, interval time.Duration, run func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			start := time.Now()
			run(ctx)
			r.logger.InfoContext(ctx, "background job finished", "job", name, "duration_ms", time.Since(start).Milliseconds())
			cancel()
		}
	}
}

func (r *jobRunner) runIdentitySync(ctx context.Context) {
	result, err := r.svcs.sync.SyncIdentities(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "identity sync failed", "error", err)
	} else {
		r.logger.InfoContext(ctx, "identity sync finished",
			"fetched", result.Fetched,
			"created", result.Created,
			"updated", result.Updated,
			"ambiguous", result.Ambiguous,
			"failed", result.Failed,
		)
	}

	retired, err := r.svcs.identity.RetireStale(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "stale identity retirement failed", "error", err)
	} else if retired > 0 {
		r.logger.InfoContext(ctx, "stale identities retired", "count", retired)
	}

	profiles, err := r.svcs.profile.ListAll(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "list profiles for rank sync failed", "error", err)
		return
	}
	for _, p := range profiles {
		ranks, err := r.svcs.sync.SyncMarketRanks(ctx, p.FormatKey)
		if err != nil {
			if errors.Is(err, usecase.ErrDependencyUnavailable) {
				return
			}
			r.logger.ErrorContext(ctx, "market rank sync failed", "format_key", p.FormatKey, "error", err)
			continue
		}
		r.logger.InfoContext(ctx, "market ranks synced",
			"format_key", p.FormatKey,
			"imported", ranks.Imported,
			"unmatched", ranks.Unmatched,
		)
	}
}

func (r *jobRunner) runRebuilds(ctx context.Context) {
	profiles, err := r.svcs.profile.ListAll(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "list profiles for rebuild failed", "error", err)
		return
	}

	for _, p := range profiles {
		result, err := r.svcs.rebuild.RunRebuild(ctx, usecase.RebuildInput{FormatKey: p.FormatKey})
		if err != nil {
			r.logger.ErrorContext(ctx, "scheduled rebuild failed", "format_key", p.FormatKey, "error", err)
			if errors.Is(err, usecase.ErrRebuildBlocked) {
				r.publishAlert(ctx, alerting.Event{
					Kind:      "rebuild_blocked",
					Severity:  "error",
					Message:   err.Error(),
					FormatKey: p.FormatKey,
					At:        time.Now().UTC(),
				})
			}
			continue
		}
		r.logger.InfoContext(ctx, "scheduled rebuild finished",
			"format_key", p.FormatKey,
			"snapshot_id", result.SnapshotID,
			"player_count", result.PlayerCount,
			"warnings", len(result.Warnings),
		)
	}
}

func (r *jobRunner) runSweep(ctx context.Context) {
	removed, err := r.svcs.adjustment.SweepExpired(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "adjustment sweep failed", "error", err)
		return
	}
	if removed > 0 {
		r.logger.InfoContext(ctx, "expired adjustments swept", "count", removed)
	}
}

func (r *jobRunner) publishAlert(ctx context.Context, event alerting.Event) {
	if r.svcs.alerts == nil {
		return
	}
	if err := r.svcs.alerts.Publish(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "alert publish failed", "kind", event.Kind, "error", err)
	}
}
