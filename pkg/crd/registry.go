package crd

import (
	"fmt"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"

	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
)

// Registry discovers the CRDs installed in the cluster and turns each
// permitted one into a set of operation tools. Discovery runs once per
// registration pass; newly installed CRDs are picked up when the toolsets
// are reloaded or the server restarts.
type Registry struct {
	policy        Policy
	reduceOptions ReduceOptions
}

func NewRegistry(provider api.PolicyProvider) Registry {
	return Registry{
		policy:        NewPolicy(provider),
		reduceOptions: ReduceOptions{ExcludedProperties: provider.GetExcludedProperties()},
	}
}

// BuildTools lists all CustomResourceDefinitions and synthesizes the tools for
// every CRD the policy permits. A CRD that cannot be bound (no usable version)
// is skipped with a warning rather than failing the whole registration.
func (r Registry) BuildTools(params api.ToolsetParams) ([]api.ServerTool, error) {
	apiextensionsClient, err := params.ApiextensionsV1Client()
	if err != nil {
		return nil, fmt.Errorf("failed to create apiextensions client: %w", err)
	}
	crds, err := apiextensionsClient.CustomResourceDefinitions().List(params, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list CustomResourceDefinitions: %w", err)
	}
	var tools []api.ServerTool
	for i := range crds.Items {
		crd := &crds.Items[i]
		operations := r.policy.EffectiveOperations(crd.Name, crd.Spec.Group)
		if len(operations) == 0 {
			klog.V(2).Infof("Skipping CRD %s, not allowed by policy", crd.Name)
			continue
		}
		bound, err := r.bind(crd)
		if err != nil {
			klog.Warningf("Skipping CRD %s: %v", crd.Name, err)
			continue
		}
		crdTools := bound.Tools(operations)
		klog.V(1).Infof("Registered %d tools for CRD %s (version %s)", len(crdTools), crd.Name, bound.Version)
		tools = append(tools, crdTools...)
	}
	return tools, nil
}

// bind resolves the version to serve and extracts the spec schema the
// operation input schemas derive from.
func (r Registry) bind(crd *apiextensionsv1.CustomResourceDefinition) (*BoundCRD, error) {
	versionName, degraded := ResolveVersion(crd)
	if versionName == "" {
		return nil, fmt.Errorf("no versions declared")
	}
	if degraded {
		klog.Warningf("CRD %s declares no served version, falling back to %s", crd.Name, versionName)
	}
	return &BoundCRD{
		Group:         crd.Spec.Group,
		Version:       versionName,
		Kind:          crd.Spec.Names.Kind,
		Plural:        crd.Spec.Names.Plural,
		Namespaced:    crd.Spec.Scope == apiextensionsv1.NamespaceScoped,
		rawSpec:       FromOpenAPISchema(specSchema(crd, versionName)),
		reduceOptions: r.reduceOptions,
	}, nil
}

// specSchema returns the spec subtree of the openAPIV3Schema for the given
// version. Falls back to the first version that carries a schema when the
// resolved version declares none, and to nil when no version does (the CRD is
// then served with empty input schemas beyond name and namespace).
func specSchema(crd *apiextensionsv1.CustomResourceDefinition, versionName string) *apiextensionsv1.JSONSchemaProps {
	var fallback *apiextensionsv1.JSONSchemaProps
	for i := range crd.Spec.Versions {
		version := &crd.Spec.Versions[i]
		if version.Schema == nil || version.Schema.OpenAPIV3Schema == nil {
			continue
		}
		if spec, ok := version.Schema.OpenAPIV3Schema.Properties["spec"]; ok {
			if version.Name == versionName {
				return &spec
			}
			if fallback == nil {
				fallback = &spec
			}
		}
	}
	return fallback
}
