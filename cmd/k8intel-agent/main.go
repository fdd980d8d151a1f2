package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/icinga/icinga-go-library/config"
	"github.com/icinga/icinga-go-library/logging"
	"github.com/k8intel/k8intel-agent/internal"
	"github.com/k8intel/k8intel-agent/pkg/agent"
	"github.com/k8intel/k8intel-agent/pkg/alerting"
	"github.com/k8intel/k8intel-agent/pkg/collector"
	"github.com/k8intel/k8intel-agent/pkg/daemon"
	"github.com/k8intel/k8intel-agent/pkg/eventwatch"
	"github.com/k8intel/k8intel-agent/pkg/hostmetrics"
	"github.com/k8intel/k8intel-agent/pkg/inventory"
	"github.com/k8intel/k8intel-agent/pkg/telemetry"
	"github.com/okzk/sdnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"k8s.io/client-go/kubernetes"
	kclientcmd "k8s.io/client-go/tools/clientcmd"
)

// fatal reports startup errors that occur before logging is configured.
func fatal(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
	os.Exit(1)
}

func main() {
	var flags internal.Flags
	if err := config.ParseFlags(&flags); err != nil {
		fatal(errors.Wrap(err, "can't parse flags"))
	}

	var cfg daemon.Config
	if err := config.FromYAMLFile(flags.Config, &cfg); err != nil {
		fatal(errors.Wrap(err, "can't create configuration"))
	}

	logs, err := logging.NewLoggingFromConfig("k8intel-agent", cfg.Logging)
	if err != nil {
		fatal(errors.Wrap(err, "can't configure logging"))
	}

	logger := logs.GetLogger()
	defer func() {
		_ = logger.Sync()
	}()

	kconfig, err := kclientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		kclientcmd.NewDefaultClientConfigLoadingRules(), &kclientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		logger.Fatalf("%+v", errors.Wrap(err, "can't configure Kubernetes client"))
	}

	clientset, err := kubernetes.NewForConfig(kconfig)
	if err != nil {
		logger.Fatalf("%+v", errors.Wrap(err, "can't create Kubernetes client"))
	}

	instanceId := uuid.NewString()
	logger.Infow("Starting K8Intel agent",
		zap.String("version", internal.Version),
		zap.String("instance", instanceId),
		zap.String("collector", cfg.Collector.Url),
		zap.Int64("cluster_id", cfg.Collector.ClusterId))

	client, err := collector.NewClient(internal.UserAgent(instanceId), cfg.Collector, logs.GetChildLogger("collector"))
	if err != nil {
		logger.Fatalf("%+v", errors.Wrap(err, "can't create collector client"))
	}

	a := agent.New(
		cfg.Agent,
		client,
		hostmetrics.NewSampler(hostmetrics.DefaultWindow),
		alerting.NewEvaluator(cfg.Alerting),
		inventory.NewCollector(clientset, cfg.Inventory, logs.GetChildLogger("inventory")),
		eventwatch.NewWatcher(clientset, logs.GetChildLogger("events")),
		logs.GetChildLogger("agent"),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer client.RunPeriodicLog(ctx).Stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Telemetry.ListenAddr != "" {
		g.Go(func() error {
			return telemetry.Serve(ctx, cfg.Telemetry.ListenAddr, logs.GetChildLogger("telemetry"))
		})
	}

	g.Go(func() error {
		return a.Run(ctx)
	})

	_ = sdnotify.Ready()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		_ = sdnotify.Stopping()
		logger.Fatalf("%+v", err)
	}

	_ = sdnotify.Stopping()
}
