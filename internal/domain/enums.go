package domain

// OperationType is the tag of a batch operation
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
	OperationSkip   OperationType = "skip"
)

// IsValid checks if the operation type is one the batch processor knows
func (t OperationType) IsValid() bool {
	switch t {
	case OperationCreate, OperationUpdate, OperationDelete, OperationSkip:
		return true
	}
	return false
}

// ItemStatus is the outcome recorded for a successful batch item
type ItemStatus string

const (
	ItemCreated ItemStatus = "created"
	ItemUpdated ItemStatus = "updated"
	ItemDeleted ItemStatus = "deleted"
	ItemSkipped ItemStatus = "skipped"
)

// Role names
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Permission names
const (
	PermissionRead            = "read"
	PermissionWrite           = "write"
	PermissionDelete          = "delete"
	PermissionAdmin           = "admin"
	PermissionBatchOperations = "batch_operations"
)
