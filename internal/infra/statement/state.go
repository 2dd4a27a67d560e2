package statement

import (
	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/telemetry"
)

// stateMachine tracks one statement's lifecycle. Observations that would move
// it backward, leave a terminal state, or are unrecognized are dropped.
type stateMachine struct {
	state  domain.StatementState
	logger *zap.Logger
}

func newStateMachine(initial domain.StatementState, logger *zap.Logger) *stateMachine {
	if !initial.Known() {
		initial = domain.StatementPending
	}
	return &stateMachine{state: initial, logger: logger}
}

// observe applies a remote-reported state and reports whether it was taken.
func (m *stateMachine) observe(next domain.StatementState) bool {
	if !m.state.CanAdvance(next) {
		m.logger.Debug("ignored statement state observation",
			telemetry.StateField(string(m.state)),
			zap.String("observed", string(next)),
		)
		return false
	}
	m.state = next
	return true
}
