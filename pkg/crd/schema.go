package crd

import (
	"encoding/json"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/klog/v2"
)

// maxDescriptionLength bounds per-field descriptions in reduced schemas.
// CRD schemas routinely carry multi-paragraph field docs; tool input schemas
// are sent to the model on every request, so descriptions are capped to keep
// the payload small.
const maxDescriptionLength = 100

// ReduceOptions controls which parts of a schema survive reduction.
type ReduceOptions struct {
	// ExcludedProperties are property names dropped from every object node,
	// regardless of nesting depth.
	ExcludedProperties []string
	// ExcludedKeys are schema keys dropped from every node (e.g. "required"
	// for update operations, where partial specs are valid).
	ExcludedKeys []string
}

func (o ReduceOptions) keeps(key string) bool {
	return !slices.Contains(o.ExcludedKeys, key)
}

// FromOpenAPISchema converts a CRD OpenAPI v3 schema fragment into its JSON
// Schema form. Only the subset of keywords relevant to tool input schemas is
// carried over; the result is the raw input to Reduce.
func FromOpenAPISchema(props *apiextensionsv1.JSONSchemaProps) *jsonschema.Schema {
	if props == nil {
		return nil
	}
	out := &jsonschema.Schema{
		Type:        props.Type,
		Description: props.Description,
	}
	if len(props.Required) > 0 {
		out.Required = slices.Clone(props.Required)
	}
	if props.Default != nil {
		out.Default = json.RawMessage(slices.Clone(props.Default.Raw))
	}
	for _, entry := range props.Enum {
		// a null enum entry decodes to nil and is stripped by Reduce
		var value any
		if err := json.Unmarshal(entry.Raw, &value); err == nil {
			out.Enum = append(out.Enum, value)
		}
	}
	if props.Items != nil && props.Items.Schema != nil {
		out.Items = FromOpenAPISchema(props.Items.Schema)
	}
	if len(props.Properties) > 0 {
		out.Properties = make(map[string]*jsonschema.Schema, len(props.Properties))
		for name, child := range props.Properties {
			out.Properties[name] = FromOpenAPISchema(&child)
		}
	}
	return out
}

// Reduce produces the agent-facing subset of a schema: type, description
// (truncated), required, items (recursively reduced), default, and enum with
// null entries stripped. Object properties are recursed into, dropping any
// property named in opts.ExcludedProperties.
//
// Reduce is pure and idempotent: reducing an already-reduced schema is a
// no-op. Termination follows from CRD schemas being finite trees (self
// references are rejected by apiextensions validation).
func Reduce(schema *jsonschema.Schema, opts ReduceOptions) *jsonschema.Schema {
	if schema == nil {
		return nil
	}
	out := &jsonschema.Schema{}
	if opts.keeps("type") {
		out.Type = schema.Type
	}
	if schema.Description != "" && opts.keeps("description") {
		out.Description = truncateDescription(schema.Description)
	}
	if len(schema.Required) > 0 && opts.keeps("required") {
		out.Required = slices.Clone(schema.Required)
	}
	if schema.Items != nil && opts.keeps("items") {
		out.Items = Reduce(schema.Items, opts)
	}
	if schema.Default != nil && opts.keeps("default") {
		out.Default = slices.Clone(schema.Default)
	}
	if len(schema.Enum) > 0 && opts.keeps("enum") {
		for _, value := range schema.Enum {
			// the null sentinel is not a choosable value
			if value != nil {
				out.Enum = append(out.Enum, value)
			}
		}
	}
	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*jsonschema.Schema, len(schema.Properties))
		for name, child := range schema.Properties {
			if slices.Contains(opts.ExcludedProperties, name) {
				klog.V(4).Infof("Dropping excluded schema property: %s", name)
				continue
			}
			out.Properties[name] = Reduce(child, opts)
		}
	}
	return out
}

func truncateDescription(description string) string {
	if len(description) > maxDescriptionLength {
		return description[:maxDescriptionLength]
	}
	return description
}
