package output

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	yml "sigs.k8s.io/yaml"
)

var Yaml = &yaml{}

type Output interface {
	// GetName returns the name of the output format, will be used by the CLI to identify the output format.
	GetName() string
	// PrintObj prints the given object as a string.
	PrintObj(obj runtime.Unstructured) (string, error)
}

var Outputs = []Output{
	Yaml,
}

var Names []string

func FromString(name string) Output {
	for _, output := range Outputs {
		if output.GetName() == name {
			return output
		}
	}
	return nil
}

type yaml struct{}

func (p *yaml) GetName() string {
	return "yaml"
}

func (p *yaml) PrintObj(obj runtime.Unstructured) (string, error) {
	return MarshalYaml(obj)
}

func MarshalYaml(v any) (string, error) {
	switch t := v.(type) {
	case *unstructured.UnstructuredList:
		v = t.Items
	}
	ret, err := yml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(ret), nil
}

func init() {
	for _, output := range Outputs {
		Names = append(Names, output.GetName())
	}
}
