package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"k8s.io/cli-runtime/pkg/genericiooptions"
	"k8s.io/klog/v2"
	"k8s.io/klog/v2/textlogger"
	"k8s.io/kubectl/pkg/util/i18n"
	"k8s.io/kubectl/pkg/util/templates"

	"github.com/openshift-assisted/crd-mcp-server/pkg/config"
	internalhttp "github.com/openshift-assisted/crd-mcp-server/pkg/http"
	"github.com/openshift-assisted/crd-mcp-server/pkg/kubernetes"
	"github.com/openshift-assisted/crd-mcp-server/pkg/mcp"
	"github.com/openshift-assisted/crd-mcp-server/pkg/output"
	"github.com/openshift-assisted/crd-mcp-server/pkg/toolsets"
	_ "github.com/openshift-assisted/crd-mcp-server/pkg/toolsets/crds"
	"github.com/openshift-assisted/crd-mcp-server/pkg/version"
)

var (
	long     = templates.LongDesc(i18n.T("Model Context Protocol (MCP) server exposing Kubernetes CustomResourceDefinitions as tools"))
	examples = templates.Examples(i18n.T(`
# show this help
crd-mcp-server -h

# shows version information
crd-mcp-server --version

# start STDIO server
crd-mcp-server

# start a SSE and streamable HTTP server on port 8080
crd-mcp-server --port 8080

# start a server restricted to the CRDs allowed by a config file
crd-mcp-server --port 8080 --config config.toml
`))
)

const (
	flagVersion            = "version"
	flagLogLevel           = "log-level"
	flagConfig             = "config"
	flagPort               = "port"
	flagSSEBaseUrl         = "sse-base-url"
	flagKubeconfig         = "kubeconfig"
	flagToolsets           = "toolsets"
	flagListOutput         = "list-output"
	flagReadOnly           = "read-only"
	flagDisableDestructive = "disable-destructive"
)

type MCPServerOptions struct {
	Version            bool
	LogLevel           int
	Port               string
	SSEBaseUrl         string
	Kubeconfig         string
	Toolsets           []string
	ListOutput         string
	ReadOnly           bool
	DisableDestructive bool

	ConfigPath   string
	StaticConfig *config.StaticConfig

	genericiooptions.IOStreams
}

func NewMCPServerOptions(streams genericiooptions.IOStreams) *MCPServerOptions {
	return &MCPServerOptions{
		IOStreams:    streams,
		StaticConfig: config.Default(),
	}
}

func NewMCPServer(streams genericiooptions.IOStreams) *cobra.Command {
	o := NewMCPServerOptions(streams)
	cmd := &cobra.Command{
		Use:     "crd-mcp-server [command] [options]",
		Short:   "CustomResourceDefinition Model Context Protocol (MCP) server",
		Long:    long,
		Example: examples,
		RunE: func(c *cobra.Command, args []string) error {
			if err := o.Complete(c); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run()
		},
	}

	cmd.Flags().BoolVar(&o.Version, flagVersion, o.Version, "Print version information and quit")
	cmd.Flags().IntVar(&o.LogLevel, flagLogLevel, o.LogLevel, "Set the log level (from 0 to 9)")
	cmd.Flags().StringVar(&o.ConfigPath, flagConfig, o.ConfigPath, "Path of the config file.")
	cmd.Flags().StringVar(&o.Port, flagPort, o.Port, "Start a streamable HTTP and SSE HTTP server on the specified port (e.g. 8080)")
	cmd.Flags().StringVar(&o.SSEBaseUrl, flagSSEBaseUrl, o.SSEBaseUrl, "SSE public base URL to use when sending the endpoint message (e.g. https://example.com)")
	cmd.Flags().StringVar(&o.Kubeconfig, flagKubeconfig, o.Kubeconfig, "Path to the kubeconfig file to use for authentication")
	cmd.Flags().StringSliceVar(&o.Toolsets, flagToolsets, o.Toolsets, "Comma-separated list of MCP toolsets to use (available toolsets: "+strings.Join(toolsets.ToolsetNames(), ", ")+"). Defaults to "+strings.Join(o.StaticConfig.Toolsets, ", ")+".")
	cmd.Flags().StringVar(&o.ListOutput, flagListOutput, o.ListOutput, "Output format for resource list operations (one of: "+strings.Join(output.Names, ", ")+"). Defaults to "+o.StaticConfig.ListOutput+".")
	cmd.Flags().BoolVar(&o.ReadOnly, flagReadOnly, o.ReadOnly, "If true, only tools annotated with readOnlyHint=true are exposed")
	cmd.Flags().BoolVar(&o.DisableDestructive, flagDisableDestructive, o.DisableDestructive, "If true, tools annotated with destructiveHint=true are disabled")

	return cmd
}

func (m *MCPServerOptions) Complete(cmd *cobra.Command) error {
	if m.ConfigPath != "" {
		cnf, err := config.Read(m.ConfigPath)
		if err != nil {
			return err
		}
		m.StaticConfig = cnf
	}

	m.loadFlags(cmd)

	m.initializeLogging()

	return nil
}

func (m *MCPServerOptions) loadFlags(cmd *cobra.Command) {
	if cmd.Flag(flagLogLevel).Changed {
		m.StaticConfig.LogLevel = m.LogLevel
	}
	if cmd.Flag(flagPort).Changed {
		m.StaticConfig.Port = m.Port
	}
	if cmd.Flag(flagSSEBaseUrl).Changed {
		m.StaticConfig.SSEBaseURL = m.SSEBaseUrl
	}
	if cmd.Flag(flagKubeconfig).Changed {
		m.StaticConfig.KubeConfig = m.Kubeconfig
	}
	if cmd.Flag(flagListOutput).Changed {
		m.StaticConfig.ListOutput = m.ListOutput
	}
	if cmd.Flag(flagReadOnly).Changed {
		m.StaticConfig.ReadOnly = m.ReadOnly
	}
	if cmd.Flag(flagDisableDestructive).Changed {
		m.StaticConfig.DisableDestructive = m.DisableDestructive
	}
	if cmd.Flag(flagToolsets).Changed {
		m.StaticConfig.Toolsets = m.Toolsets
	}
}

func (m *MCPServerOptions) initializeLogging() {
	flagSet := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(flagSet)
	if m.StaticConfig.Port == "" {
		// disable klog output for stdio mode
		// this is needed to avoid klog writing to stderr and breaking the protocol
		_ = flagSet.Parse([]string{"-logtostderr=false", "-alsologtostderr=false", "-stderrthreshold=FATAL"})
		return
	}
	loggerOptions := []textlogger.ConfigOption{textlogger.Output(m.Out)}
	if m.StaticConfig.LogLevel >= 0 {
		loggerOptions = append(loggerOptions, textlogger.Verbosity(m.StaticConfig.LogLevel))
		_ = flagSet.Parse([]string{"--v", strconv.Itoa(m.StaticConfig.LogLevel)})
	}
	logger := textlogger.NewLogger(textlogger.NewConfig(loggerOptions...))
	klog.SetLoggerWithOptions(logger)
}

func (m *MCPServerOptions) Validate() error {
	if output.FromString(m.StaticConfig.ListOutput) == nil {
		return fmt.Errorf("invalid output name: %s, valid names are: %s", m.StaticConfig.ListOutput, strings.Join(output.Names, ", "))
	}
	return toolsets.Validate(m.StaticConfig.Toolsets)
}

func (m *MCPServerOptions) Run() error {
	klog.V(1).Info("Starting crd-mcp-server")
	klog.V(1).Infof(" - Config: %s", m.ConfigPath)
	klog.V(1).Infof(" - Toolsets: %s", strings.Join(m.StaticConfig.Toolsets, ", "))
	klog.V(1).Infof(" - ListOutput: %s", m.StaticConfig.ListOutput)
	klog.V(1).Infof(" - Read-only mode: %t", m.StaticConfig.ReadOnly)
	klog.V(1).Infof(" - Disable destructive tools: %t", m.StaticConfig.DisableDestructive)

	if m.Version {
		_, _ = fmt.Fprintf(m.Out, "%s\n", version.Version)
		return nil
	}

	manager, err := kubernetes.NewManager(m.StaticConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize Kubernetes client: %w", err)
	}
	defer manager.Close()

	mcpServer, err := mcp.NewServer(mcp.Configuration{StaticConfig: m.StaticConfig}, manager)
	if err != nil {
		return fmt.Errorf("failed to initialize MCP server: %w", err)
	}

	// kubeconfig changes re-run CRD discovery against the new cluster
	manager.WatchKubeConfig(mcpServer.ReloadToolsets)

	if m.StaticConfig.Port != "" {
		return internalhttp.Serve(context.Background(), mcpServer, m.StaticConfig)
	}

	if err := mcpServer.ServeStdio(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
