package sync

import (
	"encoding/json"
	"fmt"
)

// DraftCreationError means the shared per-day draft could neither be reused
// nor created. It is fatal for the whole batch and keeps the full request and
// response for operator debugging.
type DraftCreationError struct {
	Endpoint string          `json:"endpoint"`
	Method   string          `json:"method"`
	SentData any             `json:"sentData"`
	Status   int             `json:"httpCode"`
	Response json.RawMessage `json:"response"`
}

func (e *DraftCreationError) Error() string {
	return fmt.Sprintf("create payroll draft failed with status %d", e.Status)
}

// CalculationError is an entry-scoped failure while resolving or creating a
// calculation. Status is 0 for transport failures.
type CalculationError struct {
	Status  int
	Message string
}

func (e *CalculationError) Error() string {
	return e.Message
}

// SaveError is an entry-scoped failure while saving merged rows or attaching
// the calculation to the draft.
type SaveError struct {
	Status  int
	Message string
}

func (e *SaveError) Error() string {
	return e.Message
}
