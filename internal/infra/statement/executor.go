package statement

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/remote"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/telemetry"
)

// Options configures an Executor.
type Options struct {
	Config  domain.StatementConfig
	Retry   remote.RetryPolicy
	Listing remote.DrainOptions
	Logger  *zap.Logger
	Metrics domain.Metrics
	Now     func() time.Time
}

// Executor runs SQL statements on a warehouse and hides the submit-then-poll
// model behind a bounded synchronous call.
type Executor struct {
	caller  remote.Caller
	cfg     domain.StatementConfig
	retry   remote.RetryPolicy
	listing remote.DrainOptions
	logger  *zap.Logger
	metrics domain.Metrics
	now     func() time.Time
}

func NewExecutor(caller remote.Caller, opts Options) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cfg := opts.Config
	defaults := domain.DefaultConfig().Statement
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaults.MaxWait
	}
	if cfg.DefaultWait < 0 {
		cfg.DefaultWait = 0
	}
	cfg.DefaultWait = min(cfg.DefaultWait, cfg.MaxWait)
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.PollMaxInterval < cfg.PollInterval {
		cfg.PollMaxInterval = cfg.PollInterval
	}
	return &Executor{
		caller:  caller,
		cfg:     cfg,
		retry:   opts.Retry,
		listing: opts.Listing,
		logger:  logger.Named("statement"),
		metrics: metrics,
		now:     now,
	}
}

// Execute submits a statement and waits for it within the wait budget. When
// the budget elapses first the outcome has Done=false and a handle that Get
// accepts.
func (e *Executor) Execute(ctx context.Context, req domain.ExecuteRequest) (domain.StatementOutcome, error) {
	const op = "statement.Execute"
	if strings.TrimSpace(req.Statement) == "" {
		return domain.StatementOutcome{}, domain.E(domain.KindValidation, op, "statement must not be empty", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(req.WarehouseID) == "" {
		return domain.StatementOutcome{}, domain.E(domain.KindValidation, op, "warehouse_id must not be empty", domain.ErrInvalidArgument)
	}
	budget := e.budget(req.WaitSeconds)

	body := submitRequest{
		Statement:     req.Statement,
		WarehouseID:   req.WarehouseID,
		Catalog:       req.Catalog,
		Schema:        req.Schema,
		Parameters:    req.Parameters,
		Disposition:   dispositionInline,
		Format:        formatJSONArray,
		WaitTimeout:   submitWaitTimeout,
		OnWaitTimeout: onWaitContinue,
		RowLimit:      req.RowLimit,
		ByteLimit:     req.ByteLimit,
	}
	// Submission is not idempotent and is never retried.
	var resp statementResponse
	if err := e.caller.Call(ctx, http.MethodPost, statementsPath, nil, body, &resp); err != nil {
		return domain.StatementOutcome{}, remote.Classify(op, "warehouse "+req.WarehouseID+" not found", err)
	}
	if resp.StatementID == "" {
		return domain.StatementOutcome{}, domain.E(domain.KindTransport, op, "submission response has no statement_id", nil)
	}

	handle := domain.StatementHandle{
		StatementID: resp.StatementID,
		WarehouseID: req.WarehouseID,
		SubmittedAt: e.now().UTC(),
		State:       domain.StatementPending,
	}
	logger := telemetry.LoggerWithRequest(ctx, e.logger).With(telemetry.StatementIDField(handle.StatementID))
	logger.Info("statement submitted",
		zap.String("warehouse_id", req.WarehouseID),
		telemetry.StateField(string(resp.Status.State)),
		zap.Duration("wait_budget", budget),
	)
	return e.await(ctx, op, handle, &resp, budget, logger)
}

// Get re-polls a previously returned handle under the same wait contract.
func (e *Executor) Get(ctx context.Context, statementID string, waitSeconds *int) (domain.StatementOutcome, error) {
	const op = "statement.Get"
	if strings.TrimSpace(statementID) == "" {
		return domain.StatementOutcome{}, domain.E(domain.KindValidation, op, "statement_id must not be empty", domain.ErrInvalidArgument)
	}
	budget := e.budget(waitSeconds)
	resp, err := e.poll(ctx, op, statementID)
	if err != nil {
		return domain.StatementOutcome{}, err
	}
	handle := domain.StatementHandle{
		StatementID: statementID,
		State:       domain.StatementPending,
	}
	logger := telemetry.LoggerWithRequest(ctx, e.logger).With(telemetry.StatementIDField(statementID))
	return e.await(ctx, op, handle, resp, budget, logger)
}

// Cancel requests cancellation of a running statement.
func (e *Executor) Cancel(ctx context.Context, statementID string) error {
	const op = "statement.Cancel"
	if strings.TrimSpace(statementID) == "" {
		return domain.E(domain.KindValidation, op, "statement_id must not be empty", domain.ErrInvalidArgument)
	}
	err := remote.Retry(ctx, e.retry, func(ctx context.Context) error {
		return e.caller.Call(ctx, http.MethodPost, cancelPath(statementID), nil, nil, nil)
	})
	if err != nil {
		return remote.Classify(op, "statement "+statementID+" not found", err)
	}
	telemetry.LoggerWithRequest(ctx, e.logger).Info("statement cancel requested", telemetry.StatementIDField(statementID))
	return nil
}

// ListWarehouses returns the SQL warehouses visible to the credential.
func (e *Executor) ListWarehouses(ctx context.Context) ([]domain.Warehouse, error) {
	const op = "statement.ListWarehouses"
	return remote.Drain(ctx, op, e.listing, func(ctx context.Context, token string) (remote.Page[domain.Warehouse], error) {
		query := url.Values{}
		if token != "" {
			query.Set("page_token", token)
		}
		var resp warehousesResponse
		err := remote.Retry(ctx, e.retry, func(ctx context.Context) error {
			resp = warehousesResponse{}
			return e.caller.Call(ctx, http.MethodGet, warehousesPath, query, nil, &resp)
		})
		if err != nil {
			return remote.Page[domain.Warehouse]{}, remote.Classify(op, "", err)
		}
		return remote.Page[domain.Warehouse]{Items: resp.Warehouses, NextToken: resp.NextPageToken}, nil
	})
}

func (e *Executor) budget(waitSeconds *int) time.Duration {
	if waitSeconds == nil {
		return e.cfg.DefaultWait
	}
	if *waitSeconds <= 0 {
		return 0
	}
	// Compare in seconds so huge requests cannot overflow the conversion.
	if int64(*waitSeconds) >= int64(e.cfg.MaxWait/time.Second)+1 {
		return e.cfg.MaxWait
	}
	return min(time.Duration(*waitSeconds)*time.Second, e.cfg.MaxWait)
}

// await drives the state machine from the last observed response until a
// terminal state or the end of the budget. No status check follows a
// terminal observation.
func (e *Executor) await(ctx context.Context, op string, handle domain.StatementHandle, last *statementResponse, budget time.Duration, logger *zap.Logger) (domain.StatementOutcome, error) {
	machine := newStateMachine(handle.State, logger)
	machine.observe(last.Status.State)

	deadline := time.Now().Add(budget)
	budgetCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	backoff := remote.NewBackoff(e.cfg.PollInterval, e.cfg.PollMaxInterval)
	polls := 0
	for !machine.state.Terminal() {
		remaining := time.Until(deadline)
		if remaining <= 0 || !backoff.Sleep(budgetCtx, remaining) {
			if err := ctx.Err(); err != nil {
				return domain.StatementOutcome{}, callerTimeout(op, handle.StatementID, err)
			}
			return e.stillRunning(handle, machine.state, polls, logger), nil
		}

		resp, err := e.poll(budgetCtx, op, handle.StatementID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.StatementOutcome{}, callerTimeout(op, handle.StatementID, ctxErr)
			}
			if budgetCtx.Err() != nil {
				return e.stillRunning(handle, machine.state, polls, logger), nil
			}
			return domain.StatementOutcome{}, err
		}
		polls++
		machine.observe(resp.Status.State)
		last = resp
	}

	handle.State = machine.state
	logger.Info("statement finished", telemetry.StateField(string(machine.state)), zap.Int("polls", polls))
	return e.finish(ctx, op, handle, last)
}

func (e *Executor) poll(ctx context.Context, op, statementID string) (*statementResponse, error) {
	var resp statementResponse
	err := remote.Retry(ctx, e.retry, func(ctx context.Context) error {
		resp = statementResponse{}
		return e.caller.Call(ctx, http.MethodGet, statementPath(statementID), nil, nil, &resp)
	})
	if err != nil {
		return nil, remote.Classify(op, "statement "+statementID+" not found", err)
	}
	e.metrics.ObserveStatementPoll(resp.Status.State)
	return &resp, nil
}

func (e *Executor) stillRunning(handle domain.StatementHandle, state domain.StatementState, polls int, logger *zap.Logger) domain.StatementOutcome {
	handle.State = state
	logger.Info("statement wait budget exhausted", telemetry.StateField(string(state)), zap.Int("polls", polls))
	return domain.StatementOutcome{
		Handle: handle,
		State:  state,
		Done:   false,
	}
}

func (e *Executor) finish(ctx context.Context, op string, handle domain.StatementHandle, resp *statementResponse) (domain.StatementOutcome, error) {
	switch handle.State {
	case domain.StatementSucceeded:
		result, err := e.collect(ctx, op, handle.StatementID, resp)
		if err != nil {
			return domain.StatementOutcome{}, err
		}
		return domain.StatementOutcome{
			Handle: handle,
			State:  handle.State,
			Done:   true,
			Result: result,
		}, nil
	case domain.StatementFailed:
		msg := "statement failed"
		var code string
		if resp.Status.Error != nil {
			code = resp.Status.Error.ErrorCode
			if resp.Status.Error.Message != "" {
				msg = resp.Status.Error.Message
			}
		}
		return domain.StatementOutcome{}, &domain.Error{
			Kind:       domain.KindStatement,
			Op:         op,
			Message:    msg,
			RemoteCode: code,
		}
	case domain.StatementCanceled:
		return domain.StatementOutcome{}, domain.E(domain.KindStatementCanceled, op, fmt.Sprintf("statement %s was canceled", handle.StatementID), nil)
	default:
		return domain.StatementOutcome{}, domain.E(domain.KindStatement, op, fmt.Sprintf("statement %s is closed; its result is no longer available", handle.StatementID), nil)
	}
}

func callerTimeout(op, statementID string, err error) error {
	return domain.E(domain.KindTimeout, op, fmt.Sprintf("call deadline reached while waiting for statement %s", statementID), err)
}
