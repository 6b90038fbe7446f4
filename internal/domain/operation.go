package domain

// IDField is the data key that identifies the record an update or delete targets
const IDField = "id"

// Operation is one unit of work submitted to the batch processor
type Operation struct {
	Type   OperationType  `json:"type"`
	Data   map[string]any `json:"data,omitempty"`
	Target string         `json:"target,omitempty"`
}

// RecordID returns the identifier carried in the operation data. The id is
// present when the key exists, even if its value is null.
func (o Operation) RecordID() (any, bool) {
	id, ok := o.Data[IDField]
	return id, ok
}

// BatchContext carries the pre-resolved principal and storage handle for a batch call
type BatchContext struct {
	Principal *Principal
	Store     Store
}

// ItemResult is recorded for every item that did not fail
type ItemResult struct {
	Index  int        `json:"index"`
	Status ItemStatus `json:"status"`
	ID     any        `json:"id,omitempty"`
}

// ItemError is recorded for every failed item. Index is -1 when the whole
// batch was rejected before any item was attempted.
type ItemError struct {
	Index   int    `json:"index"`
	Message string `json:"error"`
}

// BatchIndexRejected marks an error that applies to the batch as a whole
const BatchIndexRejected = -1

// BatchStats aggregates per-item outcomes
type BatchStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// BatchResult is the aggregate outcome of a batch call
type BatchResult struct {
	Success bool         `json:"success"`
	Results []ItemResult `json:"results"`
	Errors  []ItemError  `json:"errors"`
	Stats   BatchStats   `json:"stats"`
}

// FailedIndices returns the indices of failed items, in input order. Callers
// that want to retry resubmit only these.
func (r *BatchResult) FailedIndices() []int {
	indices := make([]int, 0, len(r.Errors))
	for _, e := range r.Errors {
		if e.Index >= 0 {
			indices = append(indices, e.Index)
		}
	}
	return indices
}
