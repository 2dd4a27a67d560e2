package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrap_KeepsExistingKind(t *testing.T) {
	base := E(KindNotFound, "", "table main.default.t does not exist", nil)
	wrapped := Wrap(KindTransport, "unitycatalog.GetTableInfo", fmt.Errorf("fetch: %w", base))

	require.Equal(t, KindNotFound, wrapped.Kind)
	require.Equal(t, "unitycatalog.GetTableInfo", wrapped.Op)
	require.Equal(t, "", base.Op, "original error must not be mutated")
}

func TestWrap_ClassifiesPlainErrors(t *testing.T) {
	err := Wrap(KindDecode, "workspace.DownloadNotebook", errors.New("illegal base64 data"))
	require.Equal(t, KindDecode, err.Kind)
	require.Equal(t, "illegal base64 data", err.Message)
	require.Nil(t, Wrap(KindDecode, "op", nil))
}

func TestKindFrom(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		ok   bool
	}{
		{name: "nil", err: nil},
		{name: "domain", err: E(KindStatement, "", "boom", nil), kind: KindStatement, ok: true},
		{name: "unknown tool", err: fmt.Errorf("x: %w", ErrUnknownTool), kind: KindValidation, ok: true},
		{name: "deadline", err: context.DeadlineExceeded, kind: KindTimeout, ok: true},
		{name: "plain", err: errors.New("plain")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := KindFrom(tt.err)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.kind, kind)
		})
	}
}

func TestFailureEnvelope_DefaultsToInternal(t *testing.T) {
	env := FailureEnvelope(errors.New("nil pointer somewhere"))
	require.False(t, env.Success)
	require.Equal(t, KindInternal, env.ErrorKind())
	require.Equal(t, "nil pointer somewhere", env.Error.Message)

	env = FailureEnvelope(E(KindStatementCanceled, "statement.Execute", "statement was canceled", nil))
	require.Equal(t, KindStatementCanceled, env.ErrorKind())
	require.Equal(t, "statement was canceled", env.Error.Message)
}

func TestStatementState_CanAdvance(t *testing.T) {
	require.True(t, StatementPending.CanAdvance(StatementRunning))
	require.True(t, StatementPending.CanAdvance(StatementSucceeded))
	require.True(t, StatementRunning.CanAdvance(StatementRunning))
	require.True(t, StatementRunning.CanAdvance(StatementFailed))

	require.False(t, StatementRunning.CanAdvance(StatementPending))
	require.False(t, StatementSucceeded.CanAdvance(StatementRunning))
	require.False(t, StatementCanceled.CanAdvance(StatementSucceeded))
	require.False(t, StatementPending.CanAdvance(StatementState("WEIRD")))

	require.True(t, StatementClosed.Terminal())
	require.False(t, StatementRunning.Terminal())
}

func TestToolArgs_Int(t *testing.T) {
	args := ToolArgs{"limit": float64(20), "bad": 1.5, "name": "x"}

	v, err := args.Int("limit")
	require.NoError(t, err)
	require.Equal(t, int64(20), v)

	_, err = args.Int("bad")
	require.True(t, IsKind(err, KindValidation))

	for _, huge := range []float64{1e19, -1e19, 1e300} {
		_, err = ToolArgs{"n": huge}.Int("n")
		require.True(t, IsKind(err, KindValidation), "%g", huge)
	}

	opt, err := args.OptInt("missing")
	require.NoError(t, err)
	require.Nil(t, opt)
	require.Nil(t, args.OptBool("missing"))
}
