package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/icinga/icinga-go-library/logging"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	kcorev1 "k8s.io/api/core/v1"
	kresource "k8s.io/apimachinery/pkg/api/resource"
	kmetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	kruntime "k8s.io/apimachinery/pkg/runtime"
	kfake "k8s.io/client-go/kubernetes/fake"
	ktesting "k8s.io/client-go/testing"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(zap.NewNop().Sugar(), time.Second)
}

func testNode() *kcorev1.Node {
	return &kcorev1.Node{
		ObjectMeta: kmetav1.ObjectMeta{Name: "node-1"},
		Status: kcorev1.NodeStatus{
			Conditions: []kcorev1.NodeCondition{
				{Type: kcorev1.NodeMemoryPressure, Status: kcorev1.ConditionFalse},
				{Type: kcorev1.NodeReady, Status: kcorev1.ConditionTrue},
			},
			NodeInfo: kcorev1.NodeSystemInfo{
				KubeletVersion: "v1.31.1",
				OSImage:        "Ubuntu 24.04 LTS",
			},
		},
	}
}

func testPod(namespace, name string) *kcorev1.Pod {
	requests := kcorev1.ResourceList{
		kcorev1.ResourceCPU:    kresource.MustParse("250m"),
		kcorev1.ResourceMemory: kresource.MustParse("128Mi"),
	}

	return &kcorev1.Pod{
		ObjectMeta: kmetav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec: kcorev1.PodSpec{
			Containers: []kcorev1.Container{
				{
					Name:      "app",
					Image:     "nginx:1.27",
					Resources: kcorev1.ResourceRequirements{Requests: requests},
				},
				{
					Name:      "sidecar",
					Image:     "envoy:1.31",
					Resources: kcorev1.ResourceRequirements{Requests: requests},
				},
			},
		},
		Status: kcorev1.PodStatus{Phase: kcorev1.PodRunning},
	}
}

func TestCollectSnapshotsNodesAndPods(t *testing.T) {
	clientset := kfake.NewSimpleClientset(
		testNode(),
		testPod("default", "web"),
		testPod("kube-system", "dns"),
		testPod("staging", "ignored"),
	)

	collector := NewCollector(clientset, Config{Namespaces: []string{"default", "kube-system"}}, testLogger())

	snapshot, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(snapshot.Nodes) != 1 {
		t.Fatalf("got %d nodes, wanted 1", len(snapshot.Nodes))
	}
	node := snapshot.Nodes[0]
	if node.Name != "node-1" {
		t.Errorf("got node name %q, wanted node-1", node.Name)
	}
	if node.Status != "Ready" {
		t.Errorf("got node status %q, wanted the last reported condition Ready", node.Status)
	}
	if node.KubeletVersion != "v1.31.1" || node.OsImage != "Ubuntu 24.04 LTS" {
		t.Errorf("got kubelet %q and OS image %q", node.KubeletVersion, node.OsImage)
	}

	if len(snapshot.Pods) != 2 {
		t.Fatalf("got %d pods, wanted 2 (namespace staging must not be scanned)", len(snapshot.Pods))
	}
	if snapshot.Pods[0].Namespace != "default" || snapshot.Pods[1].Namespace != "kube-system" {
		t.Errorf("pods are not in namespace iteration order: %q, %q",
			snapshot.Pods[0].Namespace, snapshot.Pods[1].Namespace)
	}

	pod := snapshot.Pods[0]
	if pod.Name != "web" || pod.Status != "Running" {
		t.Errorf("got pod %q with status %q", pod.Name, pod.Status)
	}
	if pod.Image != "nginx:1.27" {
		t.Errorf("got pod image %q, wanted the first container's image", pod.Image)
	}
	if pod.CpuRequest != "500m" {
		t.Errorf("got CPU request %q, wanted the container sum 500m", pod.CpuRequest)
	}
	if pod.MemoryRequest != "256Mi" {
		t.Errorf("got memory request %q, wanted the container sum 256Mi", pod.MemoryRequest)
	}
}

func TestCollectAbortsOnNodeListFailure(t *testing.T) {
	clientset := kfake.NewSimpleClientset(testNode())
	clientset.PrependReactor("list", "nodes", func(ktesting.Action) (bool, kruntime.Object, error) {
		return true, nil, errors.New("connection refused")
	})

	collector := NewCollector(clientset, Config{Namespaces: []string{"default"}}, testLogger())

	if snapshot, err := collector.Collect(context.Background()); err == nil || snapshot != nil {
		t.Errorf("got (%v, %v), wanted a nil snapshot and an error", snapshot, err)
	}
}

func TestCollectAbortsOnPodListFailure(t *testing.T) {
	clientset := kfake.NewSimpleClientset(testNode(), testPod("default", "web"))
	clientset.PrependReactor("list", "pods", func(ktesting.Action) (bool, kruntime.Object, error) {
		return true, nil, errors.New("connection refused")
	})

	collector := NewCollector(clientset, Config{Namespaces: []string{"default"}}, testLogger())

	if snapshot, err := collector.Collect(context.Background()); err == nil || snapshot != nil {
		t.Errorf("got (%v, %v), wanted a nil snapshot and an error", snapshot, err)
	}
}
