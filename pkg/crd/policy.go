package crd

import (
	"slices"

	"github.com/openshift-assisted/crd-mcp-server/pkg/api"
)

// Policy is the effective operation allow-list, resolved from the static
// configuration once at startup and immutable afterwards.
type Policy struct {
	resources map[string][]Operation
	groups    map[string][]Operation
}

// NewPolicy builds a Policy from the configured allow-lists. Operation names
// are assumed valid (config.Validate rejects unknown ones before the server
// starts).
func NewPolicy(provider api.PolicyProvider) Policy {
	return Policy{
		resources: toOperationMap(provider.GetAllowedCRDs()),
		groups:    toOperationMap(provider.GetAllowedGroups()),
	}
}

func toOperationMap(policies []api.ResourcePolicy) map[string][]Operation {
	out := make(map[string][]Operation, len(policies))
	for _, policy := range policies {
		operations := make([]Operation, 0, len(policy.Operations))
		for _, operation := range policy.Operations {
			operations = append(operations, Operation(operation))
		}
		out[policy.Name] = operations
	}
	return out
}

// EffectiveOperations computes the operation kinds permitted for a CRD.
//
// Precedence, strictly in order:
//  1. an explicit entry for the CRD name is returned verbatim; an empty list
//     here means an explicit lockout, distinct from "not configured";
//  2. an entry for the CRD's API group;
//  3. when both allow-lists are entirely empty, every operation is permitted
//     (the permissive-by-default ergonomics of an unconfigured server);
//  4. otherwise nothing is permitted; a partially configured allow-list
//     implicitly denies everything it does not mention.
func (p Policy) EffectiveOperations(crdName, crdGroup string) []Operation {
	if operations, ok := p.resources[crdName]; ok {
		return slices.Clone(operations)
	}
	if operations, ok := p.groups[crdGroup]; ok {
		return slices.Clone(operations)
	}
	if len(p.resources) == 0 && len(p.groups) == 0 {
		return slices.Clone(AllOperations)
	}
	return nil
}
