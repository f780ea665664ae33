package kubernetes

import (
	"k8s.io/client-go/rest"

	"github.com/openshift-assisted/crd-mcp-server/pkg/config"
)

// InClusterConfig is a variable that holds the function to get the in-cluster config
// Exposed for testing
var InClusterConfig = func() (*rest.Config, error) {
	inClusterConfig, err := rest.InClusterConfig()
	if inClusterConfig != nil {
		inClusterConfig.Host = "https://kubernetes.default.svc"
	}
	return inClusterConfig, err
}

// IsInCluster reports whether the server should use the in-cluster
// configuration. A kubeconfig provided via configuration always takes
// precedence over the in-cluster service account.
func IsInCluster(cfg *config.StaticConfig) bool {
	if cfg != nil && cfg.KubeConfig != "" {
		return false
	}
	restConfig, err := InClusterConfig()
	return err == nil && restConfig != nil
}
