package api

// ResourcePolicy is a single allow-list entry: a CRD name (plural.group) or an
// API group, plus the operations permitted for it.
type ResourcePolicy struct {
	Name       string   `json:"name" toml:"name"`
	Operations []string `json:"operations" toml:"operations"`
}

// PolicyProvider exposes the operation allow-list configuration to toolsets.
//
// An entry with an empty Operations list is an explicit lockout for that
// CRD/group. When both lists are entirely empty, every operation is permitted
// for every discovered CRD.
type PolicyProvider interface {
	// GetAllowedCRDs returns the per-CRD allow-list entries.
	GetAllowedCRDs() []ResourcePolicy
	// GetAllowedGroups returns the per-API-group allow-list entries.
	GetAllowedGroups() []ResourcePolicy
	// GetExcludedProperties returns schema property names that must never be
	// offered to a caller.
	GetExcludedProperties() []string
}
