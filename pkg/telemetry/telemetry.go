package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/icinga/icinga-go-library/logging"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config defines the agent's own telemetry endpoint.
type Config struct {
	// ListenAddr exposes Prometheus metrics about the agent itself when set.
	ListenAddr string `yaml:"listen_addr"`
}

// Validate implements the config.Validator interface.
func (c *Config) Validate() error {
	return nil
}

var (
	// SubmissionAttempts counts every HTTP attempt against the collector,
	// including retries.
	SubmissionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "k8intel_agent_submission_attempts_total",
		Help: "HTTP attempts against the collector API, including retries.",
	}, []string{"endpoint"})

	// Submissions counts terminal submission outcomes.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "k8intel_agent_submissions_total",
		Help: "Terminal submission outcomes by endpoint.",
	}, []string{"endpoint", "result"})

	// SamplingCycles counts completed and failed sampling cycles.
	SamplingCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "k8intel_agent_sampling_cycles_total",
		Help: "Sampling cycles by result.",
	}, []string{"result"})
)

// Serve exposes the agent's own metrics on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, logger *logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Serving agent telemetry on %s", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "can't serve telemetry")
	}

	return nil
}
