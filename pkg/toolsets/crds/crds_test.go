package crds

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
	"github.com/openshift-assisted/crd-mcp-server/pkg/toolsets"
)

type CrdsToolsetSuite struct {
	suite.Suite
	toolset *Toolset
}

func (s *CrdsToolsetSuite) SetupTest() {
	s.toolset = &Toolset{}
}

func (s *CrdsToolsetSuite) TestGetName() {
	s.Equal("crds", s.toolset.GetName())
}

func (s *CrdsToolsetSuite) TestGetDescription() {
	s.Contains(s.toolset.GetDescription(), "CustomResourceDefinition")
}

func (s *CrdsToolsetSuite) TestIsRegistered() {
	s.Contains(toolsets.ToolsetNames(), "crds")
	s.NotNil(toolsets.ToolsetFromString("crds"))
}

func (s *CrdsToolsetSuite) TestGetPrompts() {
	prompts := s.toolset.GetPrompts()
	s.Require().Len(prompts, 1)
	prompt := prompts[0]
	s.Equal("cluster-provision-instructions", prompt.Prompt.Name)
	s.Require().NotNil(prompt.Handler)
	result, err := prompt.Handler(api.PromptHandlerParams{})
	s.Require().NoError(err)
	s.Require().Len(result.Messages, 1)
	s.Equal("user", result.Messages[0].Role)
	s.Contains(result.Messages[0].Content.Text, "hive-integration")
}

func TestCrdsToolset(t *testing.T) {
	suite.Run(t, new(CrdsToolsetSuite))
}
