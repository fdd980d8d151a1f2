package agent

import (
	"context"
	"time"

	"github.com/icinga/icinga-go-library/logging"
	"github.com/k8intel/k8intel-agent/pkg/alerting"
	"github.com/k8intel/k8intel-agent/pkg/hostmetrics"
	schemav1 "github.com/k8intel/k8intel-agent/pkg/schema/v1"
	"github.com/k8intel/k8intel-agent/pkg/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Submitter is the outbound side of the agent, implemented by
// collector.Client.
type Submitter interface {
	SubmitMetric(ctx context.Context, metricType string, value float64) error
	SubmitAlert(ctx context.Context, alert schemav1.Alert) error
	SubmitInventory(ctx context.Context, snapshot *schemav1.InventorySnapshot) error
	StreamAlerts(ctx context.Context, alerts <-chan schemav1.Alert) error
}

// Sampler reads one host sample per sampling cycle.
type Sampler interface {
	Sample(ctx context.Context) (*hostmetrics.Sample, error)
	Window() time.Duration
}

// Inventory snapshots cluster metadata.
type Inventory interface {
	Collect(ctx context.Context) (*schemav1.InventorySnapshot, error)
}

// Watcher streams noteworthy cluster events as alerts.
type Watcher interface {
	Run(ctx context.Context, alerts chan<- schemav1.Alert) error
}

// Agent runs the sampling loop and the event watch concurrently. It owns
// all timing state and sequences every call into the submitter.
type Agent struct {
	submitter Submitter
	sampler   Sampler
	evaluator *alerting.Evaluator
	inventory Inventory
	watcher   Watcher
	logger    *logging.Logger
	config    Config

	// lastInventoryTime is written and read only by the sampling region.
	lastInventoryTime time.Time
	now               func() time.Time
}

func New(
	config Config,
	submitter Submitter,
	sampler Sampler,
	evaluator *alerting.Evaluator,
	inventory Inventory,
	watcher Watcher,
	logger *logging.Logger,
) *Agent {
	return &Agent{
		submitter: submitter,
		sampler:   sampler,
		evaluator: evaluator,
		inventory: inventory,
		watcher:   watcher,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Run starts the watch region and then the sampling region, blocking until
// ctx is canceled. The watch feeds alerts through a bounded channel into the
// submitter so stream consumption is decoupled from submission.
func (a *Agent) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	alerts := make(chan schemav1.Alert, 64)
	g.Go(func() error {
		defer close(alerts)

		return a.watcher.Run(ctx, alerts)
	})
	g.Go(func() error {
		return a.submitter.StreamAlerts(ctx, alerts)
	})

	g.Go(func() error {
		return a.runSampling(ctx)
	})

	return g.Wait()
}

// runSampling runs sampling cycles forever. A failed cycle is logged and the
// loop proceeds to its next tick; it never exits on its own.
func (a *Agent) runSampling(ctx context.Context) error {
	a.logger.Infow("Starting sampling loop",
		zap.Duration("poll_interval", a.config.PollInterval),
		zap.Duration("inventory_interval", a.config.InventoryInterval))

	// The sampler already blocks for its measurement window, so the
	// end-of-cycle sleep covers only the remainder of the poll interval.
	delay := a.config.PollInterval - a.sampler.Window()
	if delay < 0 {
		delay = 0
	}

	for {
		if err := a.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			telemetry.SamplingCycles.WithLabelValues("error").Inc()
			a.logger.Errorw("Sampling cycle failed", zap.Error(err))
		} else {
			telemetry.SamplingCycles.WithLabelValues("ok").Inc()
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// tick performs one sampling cycle: sample, submit each metric and evaluate
// it right away, then collect inventory if it is due. Lost submissions are
// logged by the submitter and do not stop the cycle.
func (a *Agent) tick(ctx context.Context) error {
	sample, err := a.sampler.Sample(ctx)
	if err != nil {
		return err
	}

	for _, point := range sample.Points() {
		_ = a.submitter.SubmitMetric(ctx, point.Type, point.Value)

		if alert, ok := a.evaluator.EvaluatePoint(point.Type, point.Value); ok {
			_ = a.submitter.SubmitAlert(ctx, alert)
		}
	}

	if a.inventoryDue() {
		a.collectInventory(ctx)
	}

	return nil
}

// inventoryDue reports whether the inventory interval has elapsed since the
// last attempt. The zero lastInventoryTime makes the very first cycle due.
func (a *Agent) inventoryDue() bool {
	return a.now().Sub(a.lastInventoryTime) >= a.config.InventoryInterval
}

// collectInventory runs one inventory cycle. lastInventoryTime is reset
// after every attempt, successful or not, to keep the cadence.
func (a *Agent) collectInventory(ctx context.Context) {
	defer func() {
		a.lastInventoryTime = a.now()
	}()

	snapshot, err := a.inventory.Collect(ctx)
	if err != nil {
		a.logger.Errorw("Skipping inventory snapshot", zap.Error(err))

		return
	}

	_ = a.submitter.SubmitInventory(ctx, snapshot)
}
