package test

import (
	"fmt"
	"path/filepath"
	"testing"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsfake "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/fake"
	apiextensionsv1client "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/typed/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// KubeConfigFake returns an in-memory kubeconfig with a fake current context.
func KubeConfigFake() *clientcmdapi.Config {
	fakeConfig := clientcmdapi.NewConfig()
	fakeConfig.Clusters["fake"] = clientcmdapi.NewCluster()
	fakeConfig.Clusters["fake"].Server = "https://127.0.0.1:6443"
	fakeConfig.AuthInfos["fake"] = clientcmdapi.NewAuthInfo()
	fakeConfig.Contexts["fake-context"] = clientcmdapi.NewContext()
	fakeConfig.Contexts["fake-context"].Cluster = "fake"
	fakeConfig.Contexts["fake-context"].AuthInfo = "fake"
	fakeConfig.CurrentContext = "fake-context"
	return fakeConfig
}

// KubeconfigFile writes the given kubeconfig to a temporary file and returns its path.
func KubeconfigFile(t *testing.T, config *clientcmdapi.Config) string {
	path := filepath.Join(t.TempDir(), "config")
	if err := clientcmd.WriteToFile(*config, path); err != nil {
		t.Fatalf("failed to write kubeconfig file: %v", err)
	}
	return path
}

// KubernetesClient is a fake client backed by in-memory clientsets.
// Errors can be injected per client kind to exercise failure paths.
type KubernetesClient struct {
	Apiextensions        *apiextensionsfake.Clientset
	Dynamic              *dynamicfake.FakeDynamicClient
	ApiextensionsError   error
	DynamicClientError   error
	DefaultNamespaceName string
}

func NewKubernetesClient(crds []*apiextensionsv1.CustomResourceDefinition, gvrToListKind map[schema.GroupVersionResource]string, objects ...runtime.Object) *KubernetesClient {
	apiextensionsObjects := make([]runtime.Object, 0, len(crds))
	for _, crd := range crds {
		apiextensionsObjects = append(apiextensionsObjects, crd)
	}
	if gvrToListKind == nil {
		gvrToListKind = map[schema.GroupVersionResource]string{}
	}
	return &KubernetesClient{
		Apiextensions:        apiextensionsfake.NewSimpleClientset(apiextensionsObjects...),
		Dynamic:              dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), gvrToListKind, objects...),
		DefaultNamespaceName: "default",
	}
}

func (k *KubernetesClient) NamespaceOrDefault(namespace string) string {
	if namespace != "" {
		return namespace
	}
	return k.DefaultNamespaceName
}

func (k *KubernetesClient) RESTConfig() *rest.Config {
	return &rest.Config{}
}

func (k *KubernetesClient) DynamicClient() (dynamic.Interface, error) {
	if k.DynamicClientError != nil {
		return nil, k.DynamicClientError
	}
	return k.Dynamic, nil
}

func (k *KubernetesClient) ApiextensionsV1Client() (apiextensionsv1client.ApiextensionsV1Interface, error) {
	if k.ApiextensionsError != nil {
		return nil, k.ApiextensionsError
	}
	return k.Apiextensions.ApiextensionsV1(), nil
}

// CRD builds a CustomResourceDefinition fixture with a single served storage
// version carrying the given spec properties.
func CRD(group, version, plural, kind string, namespaced bool, specProps map[string]apiextensionsv1.JSONSchemaProps, required ...string) *apiextensionsv1.CustomResourceDefinition {
	scope := apiextensionsv1.ClusterScoped
	if namespaced {
		scope = apiextensionsv1.NamespaceScoped
	}
	return &apiextensionsv1.CustomResourceDefinition{
		TypeMeta: metav1.TypeMeta{
			APIVersion: apiextensionsv1.SchemeGroupVersion.String(),
			Kind:       "CustomResourceDefinition",
		},
		ObjectMeta: metav1.ObjectMeta{Name: fmt.Sprintf("%s.%s", plural, group)},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: group,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{
				CRDVersion(version, true, true, specProps, required...),
			},
			Scope: scope,
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Plural: plural,
				Kind:   kind,
			},
		},
	}
}

// CRDVersion builds a single CRD version with an object schema wrapping the
// given spec properties.
func CRDVersion(name string, served, storage bool, specProps map[string]apiextensionsv1.JSONSchemaProps, required ...string) apiextensionsv1.CustomResourceDefinitionVersion {
	version := apiextensionsv1.CustomResourceDefinitionVersion{
		Name:    name,
		Served:  served,
		Storage: storage,
	}
	if specProps != nil {
		version.Schema = &apiextensionsv1.CustomResourceValidation{
			OpenAPIV3Schema: &apiextensionsv1.JSONSchemaProps{
				Type: "object",
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"spec": {
						Type:       "object",
						Properties: specProps,
						Required:   required,
					},
				},
			},
		}
	}
	return version
}
