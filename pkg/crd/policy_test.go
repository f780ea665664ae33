package crd

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
)

type staticPolicyProvider struct {
	crds       []api.ResourcePolicy
	groups     []api.ResourcePolicy
	properties []string
}

func (p *staticPolicyProvider) GetAllowedCRDs() []api.ResourcePolicy   { return p.crds }
func (p *staticPolicyProvider) GetAllowedGroups() []api.ResourcePolicy { return p.groups }
func (p *staticPolicyProvider) GetExcludedProperties() []string        { return p.properties }

type PolicySuite struct {
	suite.Suite
}

func (s *PolicySuite) TestEmptyConfigurationAllowsEverything() {
	policy := NewPolicy(&staticPolicyProvider{})
	s.Equal(AllOperations, policy.EffectiveOperations("widgets.example.io", "example.io"))
}

func (s *PolicySuite) TestResourceEntryReturnedVerbatim() {
	policy := NewPolicy(&staticPolicyProvider{
		crds: []api.ResourcePolicy{
			{Name: "widgets.example.io", Operations: []string{"get", "list"}},
		},
	})
	s.Equal([]Operation{OperationGet, OperationList}, policy.EffectiveOperations("widgets.example.io", "example.io"))
}

func (s *PolicySuite) TestResourceEntryOverridesGroupEntry() {
	policy := NewPolicy(&staticPolicyProvider{
		crds: []api.ResourcePolicy{
			{Name: "widgets.example.io", Operations: []string{"get"}},
		},
		groups: []api.ResourcePolicy{
			{Name: "example.io", Operations: []string{"docs", "list", "get", "create", "update"}},
		},
	})
	s.Equal([]Operation{OperationGet}, policy.EffectiveOperations("widgets.example.io", "example.io"))
}

func (s *PolicySuite) TestEmptyResourceEntryIsLockout() {
	policy := NewPolicy(&staticPolicyProvider{
		crds: []api.ResourcePolicy{
			{Name: "widgets.example.io", Operations: []string{}},
		},
		groups: []api.ResourcePolicy{
			{Name: "example.io", Operations: []string{"get", "list"}},
		},
	})
	s.Run("locked out CRD gets nothing despite a permissive group entry", func() {
		s.Empty(policy.EffectiveOperations("widgets.example.io", "example.io"))
	})
	s.Run("other CRDs in the group keep the group operations", func() {
		s.Equal([]Operation{OperationGet, OperationList}, policy.EffectiveOperations("gadgets.example.io", "example.io"))
	})
}

func (s *PolicySuite) TestUnmentionedCRDIsDeniedOncePolicyExists() {
	policy := NewPolicy(&staticPolicyProvider{
		groups: []api.ResourcePolicy{
			{Name: "example.io", Operations: []string{"get"}},
		},
	})
	s.Nil(policy.EffectiveOperations("things.other.io", "other.io"))
}

func TestPolicy(t *testing.T) {
	suite.Run(t, new(PolicySuite))
}
