package kubernetes

import (
	"errors"
	"fmt"

	"github.com/fsnotify/fsnotify"
	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	apiextensionsv1client "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/typed/apiextensions/v1"
	"k8s.io/client-go/dynamic"
	_ "k8s.io/client-go/plugin/pkg/client/auth/oidc"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
	"github.com/openshift-assisted/crd-mcp-server/pkg/config"
)

const inClusterKubeConfigDefaultContext = "in-cluster"

type CloseWatchKubeConfig func() error

// Manager owns the cluster connection configuration for the lifetime of the
// process. It hands out fresh clients per call rather than caching them, so
// rotated kubeconfig credentials are picked up by the next tool invocation.
type Manager struct {
	staticConfig    *config.StaticConfig
	clientCmdConfig clientcmd.ClientConfig
	restConfig      *rest.Config

	CloseWatchKubeConfig CloseWatchKubeConfig
}

var _ api.KubernetesClient = (*Manager)(nil)

// NewManager creates a Manager by loading the kubeconfig (explicit path or
// default loading rules) and falling back to the in-cluster configuration when
// no kubeconfig is usable.
func NewManager(staticConfig *config.StaticConfig) (*Manager, error) {
	if staticConfig == nil {
		return nil, errors.New("config cannot be nil")
	}
	if IsInCluster(staticConfig) {
		return newInClusterManager(staticConfig)
	}
	return newKubeconfigManager(staticConfig)
}

func newKubeconfigManager(staticConfig *config.StaticConfig) (*Manager, error) {
	pathOptions := clientcmd.NewDefaultPathOptions()
	if staticConfig.KubeConfig != "" {
		pathOptions.LoadingRules.ExplicitPath = staticConfig.KubeConfig
	}
	clientCmdConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		pathOptions.LoadingRules,
		&clientcmd.ConfigOverrides{ClusterInfo: clientcmdapi.Cluster{Server: ""}})

	restConfig, err := clientCmdConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes rest config from kubeconfig: %v", err)
	}

	return &Manager{
		staticConfig:    staticConfig,
		clientCmdConfig: clientCmdConfig,
		restConfig:      restConfig,
	}, nil
}

func newInClusterManager(staticConfig *config.StaticConfig) (*Manager, error) {
	restConfig, err := InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-cluster kubernetes rest config: %v", err)
	}

	// Create a dummy kubeconfig clientcmdapi.Config for in-cluster config to be used in places where clientcmd.ClientConfig is required
	clientCmdConfig := clientcmdapi.NewConfig()
	clientCmdConfig.Clusters["cluster"] = &clientcmdapi.Cluster{
		Server:                restConfig.Host,
		InsecureSkipTLSVerify: restConfig.Insecure,
	}
	clientCmdConfig.AuthInfos["user"] = &clientcmdapi.AuthInfo{
		Token: restConfig.BearerToken,
	}
	clientCmdConfig.Contexts[inClusterKubeConfigDefaultContext] = &clientcmdapi.Context{
		Cluster:  "cluster",
		AuthInfo: "user",
	}
	clientCmdConfig.CurrentContext = inClusterKubeConfigDefaultContext

	return &Manager{
		staticConfig:    staticConfig,
		clientCmdConfig: clientcmd.NewDefaultClientConfig(*clientCmdConfig, nil),
		restConfig:      restConfig,
	}, nil
}

// RESTConfig returns the REST config used to create clients
func (m *Manager) RESTConfig() *rest.Config {
	return m.restConfig
}

// NamespaceOrDefault returns the provided namespace, or the namespace
// configured in the kubeconfig context when empty.
func (m *Manager) NamespaceOrDefault(namespace string) string {
	if namespace != "" {
		return namespace
	}
	if ns, _, err := m.clientCmdConfig.Namespace(); err == nil && ns != "" {
		return ns
	}
	return "default"
}

// DynamicClient returns a freshly constructed dynamic client.
func (m *Manager) DynamicClient() (dynamic.Interface, error) {
	return dynamic.NewForConfig(m.restConfig)
}

// ApiextensionsV1Client returns a freshly constructed apiextensions.k8s.io/v1 client.
func (m *Manager) ApiextensionsV1Client() (apiextensionsv1client.ApiextensionsV1Interface, error) {
	clientset, err := apiextensionsclientset.NewForConfig(m.restConfig)
	if err != nil {
		return nil, err
	}
	return clientset.ApiextensionsV1(), nil
}

// WatchKubeConfig observes the kubeconfig files for changes and invokes
// onKubeConfigChange when any of them is modified.
func (m *Manager) WatchKubeConfig(onKubeConfigChange func() error) {
	if m.clientCmdConfig == nil {
		return
	}
	kubeConfigFiles := m.clientCmdConfig.ConfigAccess().GetLoadingPrecedence()
	if len(kubeConfigFiles) == 0 {
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	for _, file := range kubeConfigFiles {
		_ = watcher.Add(file)
	}
	go func() {
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				_ = onKubeConfigChange()
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	if m.CloseWatchKubeConfig != nil {
		_ = m.CloseWatchKubeConfig()
	}
	m.CloseWatchKubeConfig = watcher.Close
}

func (m *Manager) Close() {
	if m.CloseWatchKubeConfig != nil {
		_ = m.CloseWatchKubeConfig()
	}
}
