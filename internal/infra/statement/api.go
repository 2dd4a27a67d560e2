package statement

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

const (
	statementsPath = "/api/2.0/sql/statements/"
	warehousesPath = "/api/2.0/sql/warehouses"

	dispositionInline = "INLINE"
	formatJSONArray   = "JSON_ARRAY"
	// The executor owns the wait, so submission returns immediately.
	submitWaitTimeout = "0s"
	onWaitContinue    = "CONTINUE"
)

func statementPath(id string) string {
	return statementsPath + url.PathEscape(id)
}

func chunkPath(id string, index int) string {
	return statementPath(id) + "/result/chunks/" + strconv.Itoa(index)
}

func cancelPath(id string) string {
	return statementPath(id) + "/cancel"
}

type submitRequest struct {
	Statement     string                      `json:"statement"`
	WarehouseID   string                      `json:"warehouse_id"`
	Catalog       string                      `json:"catalog,omitempty"`
	Schema        string                      `json:"schema,omitempty"`
	Parameters    []domain.StatementParameter `json:"parameters,omitempty"`
	Disposition   string                      `json:"disposition"`
	Format        string                      `json:"format"`
	WaitTimeout   string                      `json:"wait_timeout"`
	OnWaitTimeout string                      `json:"on_wait_timeout"`
	RowLimit      int64                       `json:"row_limit,omitempty"`
	ByteLimit     int64                       `json:"byte_limit,omitempty"`
}

type statementResponse struct {
	StatementID string           `json:"statement_id"`
	Status      statusPayload    `json:"status"`
	Manifest    *manifestPayload `json:"manifest,omitempty"`
	Result      *chunkPayload    `json:"result,omitempty"`
}

type statusPayload struct {
	State domain.StatementState `json:"state"`
	Error *statusError          `json:"error,omitempty"`
}

type statusError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type manifestPayload struct {
	Format          string        `json:"format"`
	Schema          schemaPayload `json:"schema"`
	TotalChunkCount int           `json:"total_chunk_count"`
	TotalRowCount   int64         `json:"total_row_count"`
	Truncated       bool          `json:"truncated"`
}

type schemaPayload struct {
	ColumnCount int             `json:"column_count"`
	Columns     []columnPayload `json:"columns"`
}

type columnPayload struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
	TypeText string `json:"type_text"`
	Position int    `json:"position"`
}

type chunkPayload struct {
	ChunkIndex     int                 `json:"chunk_index"`
	RowOffset      int64               `json:"row_offset"`
	RowCount       int64               `json:"row_count"`
	DataArray      [][]json.RawMessage `json:"data_array"`
	NextChunkIndex *int                `json:"next_chunk_index,omitempty"`
}

type warehousesResponse struct {
	Warehouses    []domain.Warehouse `json:"warehouses"`
	NextPageToken string             `json:"next_page_token"`
}

func (m *manifestPayload) columns() []domain.Column {
	if m == nil {
		return []domain.Column{}
	}
	cols := make([]domain.Column, 0, len(m.Schema.Columns))
	for _, c := range m.Schema.Columns {
		cols = append(cols, domain.Column{
			Name:     c.Name,
			TypeName: c.TypeName,
			TypeText: c.TypeText,
			Position: c.Position,
		})
	}
	return cols
}
