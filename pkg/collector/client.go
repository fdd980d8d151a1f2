package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/icinga/icinga-go-library/com"
	"github.com/icinga/icinga-go-library/logging"
	"github.com/icinga/icinga-go-library/periodic"
	schemav1 "github.com/k8intel/k8intel-agent/pkg/schema/v1"
	"github.com/k8intel/k8intel-agent/pkg/telemetry"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"k8s.io/klog/v2"
)

const (
	// requestTimeout bounds a single HTTP attempt,
	// independent of the retry policy's backoff delays.
	requestTimeout = 15 * time.Second

	// maxAttempts is the total number of tries for one submission.
	maxAttempts = 5

	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

// Client submits metrics, alerts and inventory snapshots to the collector
// API. It is safe for use by multiple goroutines.
type Client struct {
	client       http.Client
	clusterId    int64
	metricsUrl   string
	alertsUrl    string
	inventoryUrl string
	logger       *logging.Logger
	submitted    com.Counter
}

// NewClient creates a Client from config. The cluster ID is resolved here
// once and stamped onto every payload for the process lifetime.
func NewClient(userAgent string, config Config, logger *logging.Logger) (*Client, error) {
	baseUrl, err := url.Parse(config.Url)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse collector base url")
	}

	return &Client{
		client: http.Client{
			Timeout: requestTimeout,
			Transport: &ApiKeyTransport{
				ApiKey:    config.ApiKey,
				UserAgent: userAgent,
				Insecure:  config.Insecure,
			},
		},
		clusterId:  config.ClusterId,
		metricsUrl: baseUrl.JoinPath("metrics").String(),
		alertsUrl:  baseUrl.JoinPath("alerts").String(),
		inventoryUrl: baseUrl.JoinPath(
			"k8s", "clusters", strconv.FormatInt(config.ClusterId, 10), "inventory",
		).String(),
		logger: logger,
	}, nil
}

// SubmitMetric submits a single metric value.
func (c *Client) SubmitMetric(ctx context.Context, metricType string, value float64) error {
	return c.submit(ctx, "metrics", c.metricsUrl, schemav1.Metric{
		ClusterId: c.clusterId,
		Type:      metricType,
		Value:     value,
	})
}

// SubmitAlert submits a single alert, stamping the client's cluster ID.
func (c *Client) SubmitAlert(ctx context.Context, alert schemav1.Alert) error {
	alert.ClusterId = c.clusterId

	return c.submit(ctx, "alerts", c.alertsUrl, alert)
}

// SubmitInventory submits a full inventory snapshot.
func (c *Client) SubmitInventory(ctx context.Context, snapshot *schemav1.InventorySnapshot) error {
	return c.submit(ctx, "inventory", c.inventoryUrl, snapshot)
}

// StreamAlerts consumes the items from the given alerts chan and submits
// each of them. Submission failures are logged and do not stop the stream.
func (c *Client) StreamAlerts(ctx context.Context, alerts <-chan schemav1.Alert) error {
	for {
		select {
		case alert, more := <-alerts:
			if !more {
				return nil
			}

			if err := c.SubmitAlert(ctx, alert); err != nil {
				klog.Error(err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunPeriodicLog summarises successful submissions once per minute until ctx
// is canceled.
func (c *Client) RunPeriodicLog(ctx context.Context) periodic.Stopper {
	return periodic.Start(ctx, time.Minute, func(tick periodic.Tick) {
		if count := c.submitted.Reset(); count > 0 {
			c.logger.Infof("Submitted %d payloads to the collector", count)
		}
	}, periodic.OnStop(func(tick periodic.Tick) {
		c.logger.Infof("Finished submitting %d payloads in %s", c.submitted.Total(), tick.Elapsed)
	}))
}

// StatusError reports a non-2xx response from the collector.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("collector responded with status %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether a submission error may succeed on a later
// attempt. Client-side HTTP errors (4xx) cannot, server-side (5xx) and
// network-layer errors may.
func IsRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}

	return true
}

// submit POSTs payload to url, retrying retryable failures with full-jitter
// exponential backoff up to maxAttempts. The terminal outcome is logged
// either way; an exhausted or non-retryable submission is reported to the
// caller as an error to be treated as "this submission was lost".
func (c *Client) submit(ctx context.Context, endpoint, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "cannot marshal %T payload", payload)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialBackoff
	policy.MaxInterval = maxBackoff
	// A randomization factor of 1 spreads each delay uniformly between zero
	// and twice the current interval.
	policy.RandomizationFactor = 1

	var attempts int
	err = backoff.RetryNotify(
		func() error {
			attempts++
			telemetry.SubmissionAttempts.WithLabelValues(endpoint).Inc()

			if err := c.post(ctx, url, body); err != nil {
				if !IsRetryable(err) {
					return backoff.Permanent(err)
				}

				return err
			}

			return nil
		},
		backoff.WithContext(backoff.WithMaxRetries(policy, maxAttempts-1), ctx),
		func(err error, wait time.Duration) {
			c.logger.Warnw("Submission failed. Retrying",
				zap.String("endpoint", endpoint),
				zap.Duration("backoff", wait),
				zap.Error(err))
		},
	)
	if err != nil {
		telemetry.Submissions.WithLabelValues(endpoint, "lost").Inc()
		c.logger.Errorw("Giving up on submission",
			zap.String("endpoint", endpoint),
			zap.Int("attempts", attempts),
			zap.Error(err))

		return errors.Wrapf(err, "giving up submitting to %s after %d attempt(s)", endpoint, attempts)
	}

	telemetry.Submissions.WithLabelValues(endpoint, "ok").Inc()
	c.submitted.Add(1)
	c.logger.Debugw("Submitted",
		zap.String("endpoint", endpoint),
		zap.Int("attempts", attempts))

	return nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "cannot create collector http request")
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "cannot send request to collector")
	}

	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))

		return &StatusError{StatusCode: res.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	return nil
}
