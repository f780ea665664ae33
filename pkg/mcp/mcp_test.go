package mcp

import (
	"encoding/json"
	"testing"

	gosdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/suite"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/utils/ptr"

	"github.com/openshift-assisted/crd-mcp-server/internal/test"
	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
	"github.com/openshift-assisted/crd-mcp-server/pkg/config"
	_ "github.com/openshift-assisted/crd-mcp-server/pkg/toolsets/crds"
)

func readOnlyTool(name string) api.ServerTool {
	return api.ServerTool{Tool: api.Tool{
		Name:        name,
		Annotations: api.ToolAnnotations{ReadOnlyHint: ptr.To(true), DestructiveHint: ptr.To(false)},
	}}
}

func destructiveTool(name string) api.ServerTool {
	return api.ServerTool{Tool: api.Tool{
		Name:        name,
		Annotations: api.ToolAnnotations{DestructiveHint: ptr.To(true)},
	}}
}

type ConfigurationSuite struct {
	suite.Suite
}

func (s *ConfigurationSuite) TestIsToolApplicableReadOnly() {
	configuration := Configuration{StaticConfig: &config.StaticConfig{ReadOnly: true}}
	s.True(configuration.isToolApplicable(readOnlyTool("get_widget")))
	s.False(configuration.isToolApplicable(destructiveTool("create_widget")))
}

func (s *ConfigurationSuite) TestIsToolApplicableDisableDestructive() {
	configuration := Configuration{StaticConfig: &config.StaticConfig{DisableDestructive: true}}
	s.True(configuration.isToolApplicable(readOnlyTool("get_widget")))
	s.False(configuration.isToolApplicable(destructiveTool("create_widget")))
}

func (s *ConfigurationSuite) TestIsToolApplicableEnabledTools() {
	configuration := Configuration{StaticConfig: &config.StaticConfig{EnabledTools: []string{"get_widget"}}}
	s.True(configuration.isToolApplicable(readOnlyTool("get_widget")))
	s.False(configuration.isToolApplicable(readOnlyTool("list_widget")))
}

func (s *ConfigurationSuite) TestIsToolApplicableDisabledTools() {
	configuration := Configuration{StaticConfig: &config.StaticConfig{DisabledTools: []string{"create_widget"}}}
	s.True(configuration.isToolApplicable(readOnlyTool("get_widget")))
	s.False(configuration.isToolApplicable(destructiveTool("create_widget")))
}

func (s *ConfigurationSuite) TestIsToolApplicableDefault() {
	configuration := Configuration{StaticConfig: config.Default()}
	s.True(configuration.isToolApplicable(readOnlyTool("get_widget")))
	s.True(configuration.isToolApplicable(destructiveTool("create_widget")))
}

func TestConfiguration(t *testing.T) {
	suite.Run(t, new(ConfigurationSuite))
}

type ToolCallRequestSuite struct {
	suite.Suite
}

func (s *ToolCallRequestSuite) TestNilParams() {
	request, err := GoSdkToolCallParamsToToolCallRequest(nil)
	s.Require().NoError(err)
	s.Empty(request.Name)
	s.Empty(request.GetArguments())
}

func (s *ToolCallRequestSuite) TestDecodesArguments() {
	request, err := GoSdkToolCallParamsToToolCallRequest(toolCallParamsRaw("get_widget", `{"name":"widget-a","replicas":3}`))
	s.Require().NoError(err)
	s.Equal("get_widget", request.Name)
	s.Equal(map[string]any{"name": "widget-a", "replicas": float64(3)}, request.GetArguments())
}

func (s *ToolCallRequestSuite) TestInvalidArguments() {
	_, err := GoSdkToolCallParamsToToolCallRequest(toolCallParamsRaw("get_widget", `{"name":`))
	s.Require().Error(err)
	s.ErrorContains(err, "failed to parse tool call arguments")
}

func toolCallParamsRaw(name, arguments string) *gosdkmcp.CallToolParamsRaw {
	return &gosdkmcp.CallToolParamsRaw{Name: name, Arguments: json.RawMessage(arguments)}
}

func TestToolCallRequest(t *testing.T) {
	suite.Run(t, new(ToolCallRequestSuite))
}

var widgetGVR = schema.GroupVersionResource{Group: "example.io", Version: "v1", Resource: "widgets"}

type ServerSuite struct {
	suite.Suite
	kubernetes *test.KubernetesClient
}

func (s *ServerSuite) SetupTest() {
	crd := test.CRD("example.io", "v1", "widgets", "Widget", true, map[string]apiextensionsv1.JSONSchemaProps{
		"size": {Type: "string"},
	}, "size")
	s.kubernetes = test.NewKubernetesClient(
		[]*apiextensionsv1.CustomResourceDefinition{crd},
		map[schema.GroupVersionResource]string{widgetGVR: "WidgetList"},
	)
}

func (s *ServerSuite) newServer(staticConfig *config.StaticConfig) *Server {
	server, err := NewServer(Configuration{StaticConfig: staticConfig}, s.kubernetes)
	s.Require().NoError(err, "Expected no error creating MCP server")
	return server
}

func (s *ServerSuite) TestExposesDiscoveredTools() {
	server := s.newServer(config.Default())
	client := test.NewMcpClient(s.T(), server.ServeHTTP())
	defer client.Close()

	names, err := client.ListToolNames()
	s.Require().NoError(err)
	s.ElementsMatch(
		[]string{"docs_widget", "list_widget", "get_widget", "create_widget", "update_widget"},
		names,
	)
	s.ElementsMatch(server.GetEnabledTools(), names)
}

func (s *ServerSuite) TestReadOnlyHidesMutatingTools() {
	staticConfig := config.Default()
	staticConfig.ReadOnly = true
	server := s.newServer(staticConfig)
	client := test.NewMcpClient(s.T(), server.ServeHTTP())
	defer client.Close()

	names, err := client.ListToolNames()
	s.Require().NoError(err)
	s.ElementsMatch([]string{"docs_widget", "list_widget", "get_widget"}, names)
}

func (s *ServerSuite) TestDisableDestructiveKeepsReadTools() {
	staticConfig := config.Default()
	staticConfig.DisableDestructive = true
	server := s.newServer(staticConfig)
	client := test.NewMcpClient(s.T(), server.ServeHTTP())
	defer client.Close()

	names, err := client.ListToolNames()
	s.Require().NoError(err)
	s.ElementsMatch([]string{"docs_widget", "list_widget", "get_widget"}, names)
}

func (s *ServerSuite) TestCallListTool() {
	server := s.newServer(config.Default())
	client := test.NewMcpClient(s.T(), server.ServeHTTP())
	defer client.Close()

	result, err := client.CallTool("list_widget", map[string]any{"namespace": "ns-1"})
	s.Require().NoError(err)
	s.False(result.IsError)
}

func (s *ServerSuite) TestCallToolMissingArgument() {
	server := s.newServer(config.Default())
	client := test.NewMcpClient(s.T(), server.ServeHTTP())
	defer client.Close()

	result, err := client.CallTool("get_widget", map[string]any{"namespace": "ns-1"})
	s.Require().NoError(err, "Tool argument errors are reported in-band, not as protocol errors")
	s.True(result.IsError)
}

func (s *ServerSuite) TestExposesPrompts() {
	server := s.newServer(config.Default())
	s.Contains(server.GetEnabledPrompts(), "cluster-provision-instructions")
}

func (s *ServerSuite) TestReloadToolsetsIsStable() {
	server := s.newServer(config.Default())
	before := server.GetEnabledTools()
	s.Require().NoError(server.ReloadToolsets())
	s.ElementsMatch(before, server.GetEnabledTools())
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}
