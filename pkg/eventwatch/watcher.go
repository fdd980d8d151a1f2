package eventwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/icinga/icinga-go-library/backoff"
	"github.com/icinga/icinga-go-library/logging"
	"github.com/icinga/icinga-go-library/retry"
	schemav1 "github.com/k8intel/k8intel-agent/pkg/schema/v1"
	"go.uber.org/zap"
	kcorev1 "k8s.io/api/core/v1"
	kmetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	kwatch "k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

// routineReasons are event reasons considered routine cluster churn,
// suppressed rather than surfaced as alerts.
var routineReasons = map[string]struct{}{
	"SuccessfulCreate": {},
	"SuccessfulDelete": {},
	"Created":          {},
	"Started":          {},
	"Pulled":           {},
	"Pulling":          {},
	"Scheduled":        {},
}

// Watcher consumes the all-namespace cluster event stream and converts
// noteworthy events into alerts.
type Watcher struct {
	clientset kubernetes.Interface
	logger    *logging.Logger
}

func NewWatcher(clientset kubernetes.Interface, logger *logging.Logger) *Watcher {
	return &Watcher{
		clientset: clientset,
		logger:    logger,
	}
}

// Run watches cluster events until ctx is canceled, sending one alert per
// noteworthy event into alerts. A terminated stream is reopened with
// backoff. Only when reopening keeps failing for the whole retry window does
// the watcher give up, and it does so without error: a dead watch must not
// take the sampling loop down with it.
func (w *Watcher) Run(ctx context.Context, alerts chan<- schemav1.Alert) error {
	for {
		var stream kwatch.Interface

		err := retry.WithBackoff(
			ctx,
			func(ctx context.Context) error {
				var err error
				stream, err = w.clientset.CoreV1().Events(kmetav1.NamespaceAll).Watch(ctx, kmetav1.ListOptions{})

				return err
			},
			func(error) bool { return true },
			backoff.NewExponentialWithJitter(1*time.Second, 1*time.Minute),
			retry.Settings{
				Timeout: retry.DefaultTimeout,
				OnRetryableError: func(_ time.Duration, _ uint64, err, lastErr error) {
					if lastErr == nil || err.Error() != lastErr.Error() {
						w.logger.Warnw("Can't watch cluster events. Retrying", zap.Error(err))
					}
				},
				OnSuccess: func(elapsed time.Duration, attempt uint64, lastErr error) {
					if attempt > 1 {
						w.logger.Infow("Watch reopened successfully after error",
							zap.Duration("after", elapsed),
							zap.Uint64("attempts", attempt),
							zap.NamedError("recovered_error", lastErr))
					}
				},
			},
		)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			w.logger.Errorw("Giving up watching cluster events", zap.Error(err))

			return nil
		}

		w.consume(ctx, stream, alerts)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		w.logger.Debug("Event stream ended. Reopening watch")
	}
}

// consume drains the stream until it closes or ctx is canceled. Handling a
// single event never terminates the watch.
func (w *Watcher) consume(ctx context.Context, stream kwatch.Interface, alerts chan<- schemav1.Alert) {
	defer stream.Stop()

	for {
		select {
		case change, more := <-stream.ResultChan():
			if !more {
				return
			}

			event, ok := change.Object.(*kcorev1.Event)
			if !ok {
				continue
			}

			alert, noteworthy := Translate(event)
			if !noteworthy {
				continue
			}

			select {
			case alerts <- alert:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Translate converts a cluster event into an alert, or reports false for
// routine events. Events of type Normal map to Info severity, all others to
// Warning.
func Translate(event *kcorev1.Event) (schemav1.Alert, bool) {
	if _, routine := routineReasons[event.Reason]; routine {
		return schemav1.Alert{}, false
	}

	severity := schemav1.SeverityWarning
	if event.Type == kcorev1.EventTypeNormal {
		severity = schemav1.SeverityInfo
	}

	return schemav1.Alert{
		Severity: severity,
		Message: fmt.Sprintf("Cluster event %s for %s/%s: %s",
			event.Reason, event.InvolvedObject.Kind, event.InvolvedObject.Name, event.Message),
	}, true
}
