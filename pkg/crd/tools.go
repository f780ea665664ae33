package crd

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"

	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
)

// BoundCRD carries the coordinates every synthesized operation for a CRD is
// bound to, along with the raw spec schema the per-operation input schemas are
// reduced from. Instances are immutable after binding; each server restart
// rebuilds them from a fresh discovery pass.
type BoundCRD struct {
	Group      string
	Version    string
	Kind       string
	Plural     string
	Namespaced bool

	rawSpec       *jsonschema.Schema
	reduceOptions ReduceOptions
}

func (b *BoundCRD) APIVersion() string {
	return b.Group + "/" + b.Version
}

func (b *BoundCRD) GroupVersionResource() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: b.Group, Version: b.Version, Resource: b.Plural}
}

// Tools synthesizes one ServerTool per permitted operation. Unknown operation
// kinds are skipped (config validation rejects them before this point).
func (b *BoundCRD) Tools(operations []Operation) []api.ServerTool {
	tools := make([]api.ServerTool, 0, len(operations))
	for _, operation := range operations {
		switch operation {
		case OperationDocs:
			tools = append(tools, b.docsTool())
		case OperationList:
			tools = append(tools, b.listTool())
		case OperationGet:
			tools = append(tools, b.getTool())
		case OperationCreate:
			tools = append(tools, b.createTool())
		case OperationUpdate:
			tools = append(tools, b.updateTool())
		default:
			klog.Warningf("Skipping unknown operation %q for CRD %s.%s", operation, b.Plural, b.Group)
		}
	}
	return tools
}

func (b *BoundCRD) toolName(operation Operation) string {
	return string(operation) + "_" + strings.ToLower(b.Kind)
}

// nameParam and namespaceParam are injected into every operation schema as
// scope dictates. They live next to the CRD's own spec properties in the tool
// input and are peeled off again before the resource body is built.
func nameParam(action string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "The name of the resource to " + action,
	}
}

func namespaceParam(action string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "The namespace of the resource to " + action,
	}
}

func (b *BoundCRD) docsTool() api.ServerTool {
	return api.ServerTool{
		Tool: api.Tool{
			Name:        b.toolName(OperationDocs),
			Description: fmt.Sprintf("Get full documentation for the %s resource (the reduced spec schema accepted by the create and update tools)", b.Kind),
			InputSchema: &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}},
			Annotations: api.ToolAnnotations{
				Title:           fmt.Sprintf("%s: Documentation", b.Kind),
				ReadOnlyHint:    ptr.To(true),
				DestructiveHint: ptr.To(false),
				OpenWorldHint:   ptr.To(false),
			},
		},
		Handler: b.docsHandler,
	}
}

// docsHandler is pure: it serves the reduced schema computed at registration
// time without any cluster round-trip.
func (b *BoundCRD) docsHandler(_ api.ToolHandlerParams) (*api.ToolCallResult, error) {
	return api.NewToolCallResultStructured(Reduce(b.rawSpec, b.reduceOptions), nil), nil
}

func (b *BoundCRD) listTool() api.ServerTool {
	inputSchema := &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}
	if b.Namespaced {
		inputSchema.Properties["namespace"] = &jsonschema.Schema{
			Type:        "string",
			Description: "The namespace to list resources from",
		}
		inputSchema.Required = []string{"namespace"}
	}
	return api.ServerTool{
		Tool: api.Tool{
			Name:        b.toolName(OperationList),
			Description: fmt.Sprintf("List the names of all %s resources", b.Kind),
			InputSchema: inputSchema,
			Annotations: api.ToolAnnotations{
				Title:           fmt.Sprintf("%s: List", b.Kind),
				ReadOnlyHint:    ptr.To(true),
				DestructiveHint: ptr.To(false),
				OpenWorldHint:   ptr.To(true),
			},
		},
		Handler: b.listHandler,
	}
}

// listHandler returns resource names only. Failures are absorbed into an
// empty result: listing is advisory (discovery, disambiguation), never a
// correctness-critical dependency of a caller's flow.
func (b *BoundCRD) listHandler(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	resource, err := b.resourceInterface(params)
	if err != nil {
		klog.Warningf("Failed to create client for listing %s: %v", b.Kind, err)
		return api.NewToolCallResultStructured([]string{}, nil), nil
	}
	list, err := resource.List(params, metav1.ListOptions{})
	if err != nil {
		klog.Warningf("Failed to list %s resources: %v", b.Kind, err)
		return api.NewToolCallResultStructured([]string{}, nil), nil
	}
	names := make([]string, 0)
	if list != nil {
		for _, item := range list.Items {
			names = append(names, item.GetName())
		}
	}
	klog.V(2).Infof("Listed %d %s resources", len(names), b.Kind)
	return api.NewToolCallResultStructured(names, nil), nil
}

func (b *BoundCRD) getTool() api.ServerTool {
	inputSchema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name": nameParam("get"),
		},
		Required: []string{"name"},
	}
	if b.Namespaced {
		inputSchema.Properties["namespace"] = namespaceParam("get")
		inputSchema.Required = []string{"namespace", "name"}
	}
	return api.ServerTool{
		Tool: api.Tool{
			Name:        b.toolName(OperationGet),
			Description: fmt.Sprintf("Get a single %s resource by name", b.Kind),
			InputSchema: inputSchema,
			Annotations: api.ToolAnnotations{
				Title:           fmt.Sprintf("%s: Get", b.Kind),
				ReadOnlyHint:    ptr.To(true),
				DestructiveHint: ptr.To(false),
				OpenWorldHint:   ptr.To(true),
			},
		},
		Handler: b.getHandler,
	}
}

func (b *BoundCRD) getHandler(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	name, err := api.RequiredString(params, "name")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	resource, err := b.resourceInterface(params)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to get %s: %w", b.Kind, err)), nil
	}
	object, err := resource.Get(params, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return api.NewToolCallResult("", fmt.Errorf("%s %s not found", b.Kind, name)), nil
		}
		return api.NewToolCallResult("", fmt.Errorf("failed to get %s %s: %w", b.Kind, name, err)), nil
	}
	// managedFields is high-volume server bookkeeping, never surfaced to the caller
	unstructured.RemoveNestedField(object.Object, "metadata", "managedFields")
	return api.NewToolCallResult(params.ListOutput.PrintObj(object)), nil
}

func (b *BoundCRD) createTool() api.ServerTool {
	inputSchema := b.specInputSchema(ReduceOptions{ExcludedProperties: b.reduceOptions.ExcludedProperties}, "create")
	return api.ServerTool{
		Tool: api.Tool{
			Name:        b.toolName(OperationCreate),
			Description: fmt.Sprintf("Create a %s resource", b.Kind),
			InputSchema: inputSchema,
			Annotations: api.ToolAnnotations{
				Title:           fmt.Sprintf("%s: Create", b.Kind),
				DestructiveHint: ptr.To(true),
				IdempotentHint:  ptr.To(false),
				OpenWorldHint:   ptr.To(true),
			},
		},
		Handler: b.createHandler,
	}
}

func (b *BoundCRD) createHandler(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	body, err := b.resourceBody(params, "create")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	resource, clientErr := b.resourceInterface(params)
	if clientErr != nil {
		return api.NewToolCallResultStructured(newFailedResult(b.Kind, "create", clientErr), nil), nil
	}
	created, err := resource.Create(params, body, metav1.CreateOptions{})
	if err != nil {
		return api.NewToolCallResultStructured(newFailedResult(b.Kind, "create", err), nil), nil
	}
	result := &OperationResult{Success: true}
	if created != nil {
		unstructured.RemoveNestedField(created.Object, "metadata", "managedFields")
		result.Resource = created.Object
	}
	return api.NewToolCallResultStructured(result, nil), nil
}

func (b *BoundCRD) updateTool() api.ServerTool {
	// partial specs are valid for merge-patch updates, so required is dropped
	// from the reduced spec schema
	inputSchema := b.specInputSchema(ReduceOptions{
		ExcludedProperties: b.reduceOptions.ExcludedProperties,
		ExcludedKeys:       []string{"required"},
	}, "update")
	return api.ServerTool{
		Tool: api.Tool{
			Name:        b.toolName(OperationUpdate),
			Description: fmt.Sprintf("Update a %s resource (merge-patch: omitted fields are untouched, present fields overwrite)", b.Kind),
			InputSchema: inputSchema,
			Annotations: api.ToolAnnotations{
				Title:           fmt.Sprintf("%s: Update", b.Kind),
				DestructiveHint: ptr.To(true),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		},
		Handler: b.updateHandler,
	}
}

func (b *BoundCRD) updateHandler(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	body, err := b.resourceBody(params, "update")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	patch, err := json.Marshal(body.Object)
	if err != nil {
		return api.NewToolCallResultStructured(newFailedResult(b.Kind, "update", err), nil), nil
	}
	resource, clientErr := b.resourceInterface(params)
	if clientErr != nil {
		return api.NewToolCallResultStructured(newFailedResult(b.Kind, "update", clientErr), nil), nil
	}
	if _, err = resource.Patch(params, body.GetName(), types.MergePatchType, patch, metav1.PatchOptions{}); err != nil {
		return api.NewToolCallResultStructured(newFailedResult(b.Kind, "update", err), nil), nil
	}
	return api.NewToolCallResultStructured(&OperationResult{Success: true}, nil), nil
}

// specInputSchema derives a tool input schema from the CRD's spec schema:
// the reduced spec properties at the top level, plus the injected name (and
// namespace, for namespaced resources) parameters.
func (b *BoundCRD) specInputSchema(opts ReduceOptions, action string) *jsonschema.Schema {
	reduced := Reduce(b.rawSpec, opts)
	if reduced == nil {
		reduced = &jsonschema.Schema{Type: "object"}
	}
	if reduced.Properties == nil {
		reduced.Properties = map[string]*jsonschema.Schema{}
	}
	reduced.Type = "object"
	reduced.Properties["name"] = nameParam(action)
	reduced.Required = append(reduced.Required, "name")
	if b.Namespaced {
		reduced.Properties["namespace"] = namespaceParam(action)
		reduced.Required = append(reduced.Required, "namespace")
	}
	return reduced
}

// resourceBody assembles the unstructured resource from tool arguments: name
// and namespace feed the metadata, every remaining argument is forwarded
// verbatim into spec. No field is guessed or defaulted; the cluster's own
// admission chain is the validation gate.
func (b *BoundCRD) resourceBody(params api.ToolHandlerParams, action string) (*unstructured.Unstructured, error) {
	name, err := api.RequiredString(params, "name")
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", action, b.Kind, err)
	}
	metadata := map[string]any{"name": name}
	if b.Namespaced {
		namespace, err := api.RequiredString(params, "namespace")
		if err != nil {
			return nil, fmt.Errorf("failed to %s %s: %w", action, b.Kind, err)
		}
		metadata["namespace"] = namespace
	}
	spec := maps.Clone(params.GetArguments())
	delete(spec, "name")
	delete(spec, "namespace")
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": b.APIVersion(),
		"kind":       b.Kind,
		"metadata":   metadata,
		"spec":       spec,
	}}, nil
}

// resourceInterface builds the dynamic resource handle for this CRD, scoped to
// the namespace argument for namespaced resources. The dynamic client is
// requested from the Kubernetes manager on every call.
func (b *BoundCRD) resourceInterface(params api.ToolHandlerParams) (dynamic.ResourceInterface, error) {
	dynamicClient, err := params.DynamicClient()
	if err != nil {
		return nil, err
	}
	if !b.Namespaced {
		return dynamicClient.Resource(b.GroupVersionResource()), nil
	}
	namespace, err := api.RequiredString(params, "namespace")
	if err != nil {
		return nil, err
	}
	return dynamicClient.Resource(b.GroupVersionResource()).Namespace(namespace), nil
}

// OperationResult is the structured outcome of a create or update call.
type OperationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// ApiError is true when the failure was reported by the Kubernetes API
	// (admission rejection, conflict, not-found), as opposed to an unexpected
	// local error (network, serialization). Callers use it to decide whether
	// retrying can help.
	ApiError bool             `json:"api_error,omitempty"`
	Details  *APIErrorDetails `json:"details,omitempty"`
	Resource map[string]any   `json:"resource,omitempty"`
}

// APIErrorDetails carries the status/reason/body of a Kubernetes API failure.
type APIErrorDetails struct {
	Status  string `json:"status,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Code    int32  `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func newFailedResult(kind, action string, err error) *OperationResult {
	result := &OperationResult{
		Success: false,
		Error:   fmt.Sprintf("Failed to %s resource %s: %v", action, kind, err),
	}
	var statusErr *apierrors.StatusError
	if errors.As(err, &statusErr) {
		status := statusErr.Status()
		result.ApiError = true
		result.Details = &APIErrorDetails{
			Status:  status.Status,
			Reason:  string(status.Reason),
			Code:    status.Code,
			Message: status.Message,
		}
	}
	return result
}
