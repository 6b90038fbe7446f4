package testutil

import (
	"encoding/base64"

	"github.com/relaygate/relaygate/internal/domain"
)

// BasicHeader builds a Basic authorization header value
func BasicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// AdminBatchContext returns a batch context for the admin principal over store
func AdminBatchContext(store domain.Store) *domain.BatchContext {
	return &domain.BatchContext{Principal: domain.AdminPrincipal("admin"), Store: store}
}

// UserBatchContext returns a batch context for the regular user principal over store
func UserBatchContext(store domain.Store) *domain.BatchContext {
	return &domain.BatchContext{Principal: domain.RegularUserPrincipal(), Store: store}
}

// NewCreateOperation creates a create operation against target
func NewCreateOperation(target string, data map[string]any) domain.Operation {
	return domain.Operation{Type: domain.OperationCreate, Target: target, Data: data}
}

// NewUpdateOperation creates an update operation for the record with id
func NewUpdateOperation(target string, id any, data map[string]any) domain.Operation {
	d := map[string]any{domain.IDField: id}
	for k, v := range data {
		d[k] = v
	}
	return domain.Operation{Type: domain.OperationUpdate, Target: target, Data: d}
}

// NewDeleteOperation creates a delete operation for the record with id
func NewDeleteOperation(target string, id any) domain.Operation {
	return domain.Operation{Type: domain.OperationDelete, Target: target, Data: map[string]any{domain.IDField: id}}
}
