package v1

import (
	kcorev1 "k8s.io/api/core/v1"
	kresource "k8s.io/apimachinery/pkg/api/resource"
)

// InventorySnapshot is a full point-in-time listing of cluster nodes and
// pods. Each snapshot supersedes the previous one entirely.
type InventorySnapshot struct {
	Nodes []NodeInfo `json:"nodes"`
	Pods  []PodInfo  `json:"pods"`
}

type NodeInfo struct {
	Name           string `json:"name"`
	Status         string `json:"status"`
	KubeletVersion string `json:"kubeletVersion"`
	OsImage        string `json:"osImage"`
}

type PodInfo struct {
	Name          string `json:"name"`
	Namespace     string `json:"namespace"`
	Status        string `json:"status"`
	Image         string `json:"image"`
	CpuRequest    string `json:"cpuRequest"`
	MemoryRequest string `json:"memoryRequest"`
}

// NewNodeInfo obtains the reported inventory fields from a Kubernetes node.
// The status reflects the node's last reported condition.
func NewNodeInfo(node *kcorev1.Node) NodeInfo {
	status := "Unknown"
	if conditions := node.Status.Conditions; len(conditions) > 0 {
		status = string(conditions[len(conditions)-1].Type)
	}

	return NodeInfo{
		Name:           node.Name,
		Status:         status,
		KubeletVersion: node.Status.NodeInfo.KubeletVersion,
		OsImage:        node.Status.NodeInfo.OSImage,
	}
}

// NewPodInfo obtains the reported inventory fields from a Kubernetes pod.
// Resource requests are summed over all containers of the pod.
func NewPodInfo(pod *kcorev1.Pod) PodInfo {
	var image string
	if len(pod.Spec.Containers) > 0 {
		image = pod.Spec.Containers[0].Image
	}

	var cpu, memory kresource.Quantity
	for _, container := range pod.Spec.Containers {
		if request, ok := container.Resources.Requests[kcorev1.ResourceCPU]; ok {
			cpu.Add(request)
		}
		if request, ok := container.Resources.Requests[kcorev1.ResourceMemory]; ok {
			memory.Add(request)
		}
	}

	return PodInfo{
		Name:          pod.Name,
		Namespace:     pod.Namespace,
		Status:        string(pod.Status.Phase),
		Image:         image,
		CpuRequest:    cpu.String(),
		MemoryRequest: memory.String(),
	}
}
