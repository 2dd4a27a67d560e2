package statement

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/remote"
)

// rowCollector accumulates result rows up to the row and byte ceilings.
type rowCollector struct {
	maxRows   int
	maxBytes  int64
	rows      [][]json.RawMessage
	bytes     int64
	truncated bool
	reason    domain.TruncationReason
}

func newRowCollector(maxRows int, maxBytes int64) *rowCollector {
	return &rowCollector{
		maxRows:  maxRows,
		maxBytes: maxBytes,
		rows:     make([][]json.RawMessage, 0),
	}
}

// add appends rows in order and reports false once a ceiling stopped it.
func (c *rowCollector) add(rows [][]json.RawMessage) bool {
	for _, row := range rows {
		if c.maxRows > 0 && len(c.rows) >= c.maxRows {
			c.cut(domain.TruncatedByRows)
			return false
		}
		size := rowSize(row)
		if c.maxBytes > 0 && c.bytes+size > c.maxBytes {
			c.cut(domain.TruncatedByBytes)
			return false
		}
		c.rows = append(c.rows, row)
		c.bytes += size
	}
	return true
}

// full reports whether the row ceiling has been reached.
func (c *rowCollector) full() bool {
	return c.maxRows > 0 && len(c.rows) >= c.maxRows
}

func (c *rowCollector) cut(reason domain.TruncationReason) {
	c.truncated = true
	if c.reason == "" {
		c.reason = reason
	}
}

func rowSize(row []json.RawMessage) int64 {
	var n int64
	for _, cell := range row {
		n += int64(len(cell))
	}
	return n
}

// collect drains the result chunks of a succeeded statement in chunk order.
func (e *Executor) collect(ctx context.Context, op, statementID string, resp *statementResponse) (*domain.StatementResult, error) {
	collector := newRowCollector(e.cfg.MaxRows, e.cfg.MaxBytes)

	chunk := resp.Result
	if chunk == nil && resp.Manifest != nil && resp.Manifest.TotalChunkCount > 0 {
		first, err := e.fetchChunk(ctx, op, statementID, 0)
		if err != nil {
			return nil, err
		}
		chunk = first
	}

	seen := make(map[int]struct{})
	for chunk != nil {
		seen[chunk.ChunkIndex] = struct{}{}
		if !collector.add(chunk.DataArray) {
			break
		}
		next := chunk.NextChunkIndex
		if next == nil {
			break
		}
		if collector.full() {
			collector.cut(domain.TruncatedByRows)
			break
		}
		if _, dup := seen[*next]; dup {
			return nil, domain.E(domain.KindTransport, op, "result chunk sequence repeated", nil)
		}
		fetched, err := e.fetchChunk(ctx, op, statementID, *next)
		if err != nil {
			return nil, err
		}
		chunk = fetched
	}

	result := &domain.StatementResult{
		Schema:   resp.Manifest.columns(),
		Rows:     collector.rows,
		RowCount: len(collector.rows),
	}
	if resp.Manifest != nil {
		result.TotalRowCount = resp.Manifest.TotalRowCount
		if resp.Manifest.Truncated {
			collector.cut(domain.TruncatedByRemote)
		}
	}
	result.Truncated = collector.truncated
	if collector.truncated {
		e.metrics.ObserveResultTruncated(collector.reason)
	}
	return result, nil
}

func (e *Executor) fetchChunk(ctx context.Context, op, statementID string, index int) (*chunkPayload, error) {
	var chunk chunkPayload
	err := remote.Retry(ctx, e.retry, func(ctx context.Context) error {
		chunk = chunkPayload{}
		return e.caller.Call(ctx, http.MethodGet, chunkPath(statementID, index), nil, nil, &chunk)
	})
	if err != nil {
		return nil, remote.Classify(op, "statement "+statementID+" result not found", err)
	}
	if chunk.DataArray == nil {
		chunk.DataArray = [][]json.RawMessage{}
	}
	return &chunk, nil
}
