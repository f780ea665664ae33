package crd

import (
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
)

// ResolveVersion picks the single API version used for every operation
// synthesized for the given CRD.
//
// Among the served versions, the storage version is authoritative: it is the
// representation the cluster persists. When no served version is marked as
// storage (malformed cluster state), the first served version in declaration
// order is used. When no version is served at all, the first declared version
// is returned and degraded is true: callers should still build tools for the
// CRD, even though API calls using this version may fail later.
//
// The fallback chain is deterministic and total as long as the CRD declares at
// least one version (which apiextensions validation guarantees); with an empty
// version list the returned name is "".
func ResolveVersion(crd *apiextensionsv1.CustomResourceDefinition) (name string, degraded bool) {
	firstServed := ""
	for _, version := range crd.Spec.Versions {
		if !version.Served {
			continue
		}
		if version.Storage {
			return version.Name, false
		}
		if firstServed == "" {
			firstServed = version.Name
		}
	}
	if firstServed != "" {
		return firstServed, false
	}
	if len(crd.Spec.Versions) > 0 {
		return crd.Spec.Versions[0].Name, true
	}
	return "", true
}
