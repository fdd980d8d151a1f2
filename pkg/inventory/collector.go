package inventory

import (
	"context"

	"github.com/icinga/icinga-go-library/logging"
	schemav1 "github.com/k8intel/k8intel-agent/pkg/schema/v1"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	kmetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Collector snapshots cluster node and pod metadata.
type Collector struct {
	clientset  kubernetes.Interface
	namespaces []string
	logger     *logging.Logger
}

func NewCollector(clientset kubernetes.Interface, config Config, logger *logging.Logger) *Collector {
	return &Collector{
		clientset:  clientset,
		namespaces: config.Namespaces,
		logger:     logger,
	}
}

// Collect lists all cluster nodes and the pods of each configured namespace.
// Pod lists are concatenated in namespace iteration order, preserving the
// per-namespace listing order. Any listing failure aborts the whole
// snapshot; no partial snapshot is returned.
func (c *Collector) Collect(ctx context.Context) (*schemav1.InventorySnapshot, error) {
	nodeList, err := c.clientset.CoreV1().Nodes().List(ctx, kmetav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "can't list cluster nodes")
	}

	snapshot := &schemav1.InventorySnapshot{
		Nodes: make([]schemav1.NodeInfo, 0, len(nodeList.Items)),
		Pods:  []schemav1.PodInfo{},
	}
	for i := range nodeList.Items {
		snapshot.Nodes = append(snapshot.Nodes, schemav1.NewNodeInfo(&nodeList.Items[i]))
	}

	for _, namespace := range c.namespaces {
		podList, err := c.clientset.CoreV1().Pods(namespace).List(ctx, kmetav1.ListOptions{})
		if err != nil {
			return nil, errors.Wrapf(err, "can't list pods in namespace %q", namespace)
		}

		for i := range podList.Items {
			snapshot.Pods = append(snapshot.Pods, schemav1.NewPodInfo(&podList.Items[i]))
		}
	}

	c.logger.Debugw("Collected inventory snapshot",
		zap.Int("nodes", len(snapshot.Nodes)),
		zap.Int("pods", len(snapshot.Pods)))

	return snapshot, nil
}
