package crds

import (
	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
	"github.com/openshift-assisted/crd-mcp-server/pkg/crd"
	"github.com/openshift-assisted/crd-mcp-server/pkg/toolsets"
)

const clusterProvisionInstructions = `When provisioning a cluster, you can follow this guide: https://github.com/openshift/assisted-service/blob/master/docs/hive-integration/README.md
You can also use the create_<kind> tools to create the resources, and the update_<kind> tools to update the resources.

Pullsecret and ssh public key will be provided to you: pull-secret in the form of an already created secret (you will not need to know it)
and public key will be provided to you by the user. Prompt the user to do so.`

type Toolset struct{}

var _ api.Toolset = (*Toolset)(nil)

func (t *Toolset) GetName() string {
	return "crds"
}

func (t *Toolset) GetDescription() string {
	return "Operations on CustomResourceDefinition-backed resources discovered from the cluster (docs, list, get, create, update)"
}

func (t *Toolset) GetTools(params api.ToolsetParams) ([]api.ServerTool, error) {
	return crd.NewRegistry(params.PolicyProvider).BuildTools(params)
}

func (t *Toolset) GetPrompts() []api.ServerPrompt {
	return []api.ServerPrompt{
		{
			Prompt: api.Prompt{
				Name:        "cluster-provision-instructions",
				Title:       "Cluster Provisioning Instructions",
				Description: "Instructions for OpenShift cluster provisioning with the Assisted Installer",
			},
			Handler: func(_ api.PromptHandlerParams) (*api.PromptCallResult, error) {
				return api.NewPromptCallResult("Instructions for OpenShift cluster provisioning with the Assisted Installer", []api.PromptMessage{
					{
						Role:    "user",
						Content: api.PromptContent{Type: "text", Text: clusterProvisionInstructions},
					},
				}, nil), nil
			},
		},
	}
}

func init() {
	toolsets.Register(&Toolset{})
}
