package toolset

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

func sqlTools(svc StatementService) []domain.ToolBinding {
	waitSeconds := optional("wait_seconds", domain.ParamInteger,
		"Seconds to wait for completion before returning a handle that sql_get_statement accepts.")
	waitSeconds.Minimum = domain.Bound(0)

	rowLimit := optional("row_limit", domain.ParamInteger, "Maximum number of rows the warehouse returns.")
	rowLimit.Minimum = domain.Bound(1)
	byteLimit := optional("byte_limit", domain.ParamInteger, "Maximum result size in bytes the warehouse returns.")
	byteLimit.Minimum = domain.Bound(1)

	return []domain.ToolBinding{
		binding(domain.ServiceSQL, "sql_execute_statement",
			"Execute a SQL statement on a warehouse and return its result, or a handle when it is still running.",
			[]domain.ToolParam{
				required("statement", domain.ParamString, "SQL text to execute."),
				required("warehouse_id", domain.ParamString, "ID of the SQL warehouse."),
				optional("catalog", domain.ParamString, "Default catalog for the statement."),
				optional("schema", domain.ParamString, "Default schema for the statement."),
				optional("parameters", domain.ParamArray, "Named parameters as objects with name, value and optional type."),
				waitSeconds,
				rowLimit,
				byteLimit,
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				params, err := statementParameters(args.Slice("parameters"))
				if err != nil {
					return nil, err
				}
				wait, err := optInt(args, "wait_seconds")
				if err != nil {
					return nil, err
				}
				rows, err := args.Int("row_limit")
				if err != nil {
					return nil, err
				}
				bytes, err := args.Int("byte_limit")
				if err != nil {
					return nil, err
				}
				return svc.Execute(ctx, domain.ExecuteRequest{
					Statement:   args.String("statement"),
					WarehouseID: args.String("warehouse_id"),
					Catalog:     args.String("catalog"),
					Schema:      args.String("schema"),
					Parameters:  params,
					WaitSeconds: wait,
					RowLimit:    rows,
					ByteLimit:   bytes,
				})
			},
		),
		binding(domain.ServiceSQL, "sql_get_statement",
			"Poll a running statement and return its result once it finishes.",
			[]domain.ToolParam{
				required("statement_id", domain.ParamString, "Statement ID from sql_execute_statement."),
				waitSeconds,
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				wait, err := optInt(args, "wait_seconds")
				if err != nil {
					return nil, err
				}
				return svc.Get(ctx, args.String("statement_id"), wait)
			},
		),
		binding(domain.ServiceSQL, "sql_cancel_statement",
			"Request cancellation of a running statement.",
			[]domain.ToolParam{
				required("statement_id", domain.ParamString, "Statement ID to cancel."),
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				id := args.String("statement_id")
				if err := svc.Cancel(ctx, id); err != nil {
					return nil, err
				}
				return map[string]any{"statement_id": id, "cancel_requested": true}, nil
			},
		),
		binding(domain.ServiceSQL, "sql_list_warehouses",
			"List the SQL warehouses available to the credential.",
			nil,
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				warehouses, err := svc.ListWarehouses(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"warehouses": warehouses}, nil
			},
		),
	}
}

func statementParameters(raw []any) ([]domain.StatementParameter, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make([]domain.StatementParameter, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, invalidArg(fmt.Sprintf("parameters[%d] must be an object", i))
		}
		name, _ := obj["name"].(string)
		if name == "" {
			return nil, invalidArg(fmt.Sprintf("parameters[%d].name must be a non-empty string", i))
		}
		param := domain.StatementParameter{Name: name}
		if typ, ok := obj["type"].(string); ok {
			param.Type = typ
		}
		switch v := obj["value"].(type) {
		case nil:
		case string:
			param.Value = &v
		case float64:
			s := strconv.FormatFloat(v, 'f', -1, 64)
			param.Value = &s
		case bool:
			s := strconv.FormatBool(v)
			param.Value = &s
		default:
			return nil, invalidArg(fmt.Sprintf("parameters[%d].value must be a scalar", i))
		}
		params = append(params, param)
	}
	return params, nil
}

func optInt(args domain.ToolArgs, name string) (*int, error) {
	v, err := args.OptInt(name)
	if err != nil || v == nil {
		return nil, err
	}
	n := int(*v)
	return &n, nil
}

func invalidArg(msg string) error {
	return domain.E(domain.KindValidation, "toolset", msg, domain.ErrInvalidArgument)
}
