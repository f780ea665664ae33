package crd

// Operation is one of the generic operation kinds that can be synthesized for
// a discovered CustomResourceDefinition.
type Operation string

const (
	OperationDocs   Operation = "docs"
	OperationList   Operation = "list"
	OperationGet    Operation = "get"
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
)

// AllOperations is the full operation set, granted to every CRD when no
// allow-list is configured at all.
var AllOperations = []Operation{OperationDocs, OperationList, OperationGet, OperationCreate, OperationUpdate}
