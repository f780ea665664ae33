package api

import (
	apiextensionsv1client "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/typed/apiextensions/v1"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
)

// KubernetesClient defines the interface for Kubernetes operations that tool and prompt handlers need.
// This interface abstracts the concrete Kubernetes implementation to allow controlled access to the underlying resource APIs,
// better decoupling, and testability.
//
// Client accessors construct a fresh handle from the current REST config on every call.
// Kubeconfig credentials may be rotated between tool invocations, and a client cached
// at tool-synthesis time would keep using the stale auth material.
type KubernetesClient interface {
	// NamespaceOrDefault returns the provided namespace or the default configured namespace if empty
	NamespaceOrDefault(namespace string) string
	// RESTConfig returns the REST config used to create clients
	RESTConfig() *rest.Config
	// DynamicClient returns a dynamic client for custom resource access
	DynamicClient() (dynamic.Interface, error)
	// ApiextensionsV1Client returns a client for CustomResourceDefinition discovery
	ApiextensionsV1Client() (apiextensionsv1client.ApiextensionsV1Interface, error)
}
