package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
)

// StaticConfig is the configuration for the server.
// It allows to configure server specific settings and the CRD operation allow-list.
type StaticConfig struct {
	LogLevel   int    `toml:"log_level,omitzero"`
	Port       string `toml:"port,omitempty"`
	SSEBaseURL string `toml:"sse_base_url,omitempty"`
	KubeConfig string `toml:"kubeconfig,omitempty"`
	ListOutput string `toml:"list_output,omitempty"`
	// When true, expose only tools annotated with readOnlyHint=true
	ReadOnly bool `toml:"read_only,omitempty"`
	// When true, disable tools annotated with destructiveHint=true
	DisableDestructive bool     `toml:"disable_destructive,omitempty"`
	Toolsets           []string `toml:"toolsets,omitempty"`
	EnabledTools       []string `toml:"enabled_tools,omitempty"`
	DisabledTools      []string `toml:"disabled_tools,omitempty"`

	// ServerInstructions is sent to MCP clients during initialization
	// (e.g. a provisioning guide for the CRDs this server exposes).
	ServerInstructions string `toml:"server_instructions,omitempty"`

	// AllowedCRDs is the per-CRD operation allow-list keyed by the CRD name
	// (plural.group). An entry with an empty operations list is an explicit
	// lockout for that CRD.
	AllowedCRDs []api.ResourcePolicy `toml:"allowed_crds,omitempty"`
	// AllowedGroups is the per-API-group operation allow-list. A CRD-level
	// entry always takes precedence over its group entry.
	AllowedGroups []api.ResourcePolicy `toml:"allowed_groups,omitempty"`
	// When both allow-lists are empty, every operation is permitted for every
	// discovered CRD.

	// ExcludedProperties are schema property names dropped from every reduced
	// CRD schema. The default blocks "hyperthreading", which is known to break
	// client-side schema validation in at least one MCP client.
	ExcludedProperties []string `toml:"excluded_properties,omitempty"`
}

var _ api.PolicyProvider = (*StaticConfig)(nil)

func (c *StaticConfig) GetAllowedCRDs() []api.ResourcePolicy {
	return c.AllowedCRDs
}

func (c *StaticConfig) GetAllowedGroups() []api.ResourcePolicy {
	return c.AllowedGroups
}

func (c *StaticConfig) GetExcludedProperties() []string {
	return c.ExcludedProperties
}

// Read reads the toml file and returns the StaticConfig.
// Values present in the file overwrite the defaults, values not present
// remain at their default.
func Read(configPath string) (*StaticConfig, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	return ReadToml(configData)
}

// ReadToml reads the toml data and returns the StaticConfig.
func ReadToml(configData []byte) (*StaticConfig, error) {
	config := Default()
	if _, err := toml.NewDecoder(bytes.NewReader(configData)).Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for consistency.
// A malformed allow-list aborts startup: refusing to start beats exposing an
// operation set that doesn't match the operator's intent.
func (c *StaticConfig) Validate() error {
	if err := validatePolicies("allowed_crds", c.AllowedCRDs); err != nil {
		return err
	}
	if err := validatePolicies("allowed_groups", c.AllowedGroups); err != nil {
		return err
	}
	return nil
}

func validatePolicies(section string, policies []api.ResourcePolicy) error {
	seen := make(map[string]bool, len(policies))
	for _, policy := range policies {
		if policy.Name == "" {
			return fmt.Errorf("%s: entry with empty name", section)
		}
		if seen[policy.Name] {
			return fmt.Errorf("%s: duplicate entry for %s", section, policy.Name)
		}
		seen[policy.Name] = true
		for _, operation := range policy.Operations {
			if !validOperations[operation] {
				return fmt.Errorf("%s: invalid operation %q for %s (valid operations are: docs, list, get, create, update)", section, operation, policy.Name)
			}
		}
	}
	return nil
}

var validOperations = map[string]bool{
	"docs":   true,
	"list":   true,
	"get":    true,
	"create": true,
	"update": true,
}
