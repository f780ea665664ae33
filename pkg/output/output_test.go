package output

import (
	"encoding/json"
	"strings"
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestFromString(t *testing.T) {
	t.Run("returns the yaml output", func(t *testing.T) {
		if out := FromString("yaml"); out != Yaml {
			t.Errorf("Expected yaml output, got: %v", out)
		}
	})
	t.Run("returns nil for unknown formats", func(t *testing.T) {
		if out := FromString("table"); out != nil {
			t.Errorf("Expected nil for unknown format, got: %v", out)
		}
	})
	t.Run("Names contains all registered outputs", func(t *testing.T) {
		if len(Names) != 1 || Names[0] != "yaml" {
			t.Errorf("Expected Names to be [yaml], got: %v", Names)
		}
	})
}

func TestYamlUnstructured(t *testing.T) {
	var widget unstructured.Unstructured
	_ = json.Unmarshal([]byte(`
			{ "apiVersion": "example.io/v1", "kind": "Widget",
			  "metadata": { "name": "widget-1", "namespace": "default" },
			  "spec": { "size": "small", "replicas": 3 } }`), &widget)
	out, err := Yaml.PrintObj(&widget)
	t.Run("processes the object", func(t *testing.T) {
		if err != nil {
			t.Fatalf("Error printing widget: %v", err)
		}
	})
	t.Run("prints yaml fields", func(t *testing.T) {
		for _, expected := range []string{"name: widget-1", "size: small", "replicas: 3"} {
			if !strings.Contains(out, expected) {
				t.Errorf("Expected '%s' in output: %s", expected, out)
			}
		}
	})
}

func TestYamlUnstructuredList(t *testing.T) {
	var widgetList unstructured.UnstructuredList
	_ = json.Unmarshal([]byte(`
			{ "apiVersion": "example.io/v1", "kind": "WidgetList", "items": [{
			  "apiVersion": "example.io/v1", "kind": "Widget",
			  "metadata": { "name": "widget-1", "namespace": "default" },
			  "spec": { "size": "small" } }
			]}`), &widgetList)
	out, err := Yaml.PrintObj(&widgetList)
	t.Run("processes the list", func(t *testing.T) {
		if err != nil {
			t.Fatalf("Error printing widget list: %v", err)
		}
	})
	t.Run("unwraps the list wrapper", func(t *testing.T) {
		if strings.Contains(out, "kind: WidgetList") {
			t.Errorf("Expected list wrapper to be stripped from output: %s", out)
		}
		if !strings.HasPrefix(out, "- apiVersion:") {
			t.Errorf("Expected output to be a yaml sequence of items: %s", out)
		}
	})
}
