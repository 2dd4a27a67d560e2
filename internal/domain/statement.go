package domain

import (
	"encoding/json"
	"time"
)

// StatementState is the remote lifecycle state of a SQL statement.
type StatementState string

const (
	StatementPending   StatementState = "PENDING"
	StatementRunning   StatementState = "RUNNING"
	StatementSucceeded StatementState = "SUCCEEDED"
	StatementFailed    StatementState = "FAILED"
	StatementCanceled  StatementState = "CANCELED"
	StatementClosed    StatementState = "CLOSED"
)

func (s StatementState) rank() int {
	switch s {
	case StatementPending:
		return 1
	case StatementRunning:
		return 2
	case StatementSucceeded, StatementFailed, StatementCanceled, StatementClosed:
		return 3
	default:
		return 0
	}
}

// Known reports whether s is a recognized state.
func (s StatementState) Known() bool {
	return s.rank() > 0
}

// Terminal reports whether no further transition is possible.
func (s StatementState) Terminal() bool {
	return s.rank() == 3
}

// CanAdvance reports whether moving from s to next keeps the lifecycle
// monotonic. Repeating the current state is allowed.
func (s StatementState) CanAdvance(next StatementState) bool {
	if !next.Known() {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// StatementHandle identifies one in-flight remote statement. WarehouseID and
// SubmittedAt are only known to the call that submitted the statement; a
// handle rebuilt from a statement ID omits them.
type StatementHandle struct {
	StatementID string         `json:"statement_id"`
	WarehouseID string         `json:"warehouse_id,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at,omitzero"`
	State       StatementState `json:"state"`
}

// Column is one result column with its declared remote type.
type Column struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
	TypeText string `json:"type_text,omitempty"`
	Position int    `json:"position"`
}

// StatementResult is the drained result of a succeeded statement.
// Cells hold the remote JSON rendering unchanged.
type StatementResult struct {
	Schema        []Column            `json:"schema"`
	Rows          [][]json.RawMessage `json:"rows"`
	RowCount      int                 `json:"row_count"`
	Truncated     bool                `json:"truncated"`
	TotalRowCount int64               `json:"total_row_count,omitempty"`
}

// StatementOutcome is returned by execution and re-polling. Done is false when
// the wait budget elapsed before a terminal state.
type StatementOutcome struct {
	Handle StatementHandle  `json:"handle"`
	State  StatementState   `json:"state"`
	Done   bool             `json:"done"`
	Result *StatementResult `json:"result,omitempty"`
}

// StatementParameter is a named parameter for a parameterized statement.
type StatementParameter struct {
	Name  string  `json:"name"`
	Value *string `json:"value,omitempty"`
	Type  string  `json:"type,omitempty"`
}

// ExecuteRequest describes one statement submission.
type ExecuteRequest struct {
	Statement   string
	WarehouseID string
	Catalog     string
	Schema      string
	Parameters  []StatementParameter
	// WaitSeconds overrides the default wait budget when set.
	WaitSeconds *int
	RowLimit    int64
	ByteLimit   int64
}

// Warehouse summarizes a SQL warehouse.
type Warehouse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	State         string `json:"state"`
	ClusterSize   string `json:"cluster_size,omitempty"`
	WarehouseType string `json:"warehouse_type,omitempty"`
}
