package toolset

import (
	"context"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/unitycatalog"
)

func catalogTools(svc CatalogService) []domain.ToolBinding {
	includeBrowse := optional("include_browse", domain.ParamBoolean,
		"Include objects the principal can only browse.")
	includeBrowse.Default = false

	return []domain.ToolBinding{
		binding(domain.ServiceUC, "uc_list_catalogs",
			"List Unity Catalog catalogs.",
			[]domain.ToolParam{includeBrowse},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				catalogs, err := svc.ListCatalogs(ctx, unitycatalog.ListCatalogsRequest{IncludeBrowse: args.Bool("include_browse")})
				if err != nil {
					return nil, err
				}
				return map[string]any{"catalogs": catalogs}, nil
			},
		),
		binding(domain.ServiceUC, "uc_list_schemas",
			"List the schemas of a catalog.",
			[]domain.ToolParam{
				required("catalog_name", domain.ParamString, "Catalog to list."),
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				schemas, err := svc.ListSchemas(ctx, args.String("catalog_name"))
				if err != nil {
					return nil, err
				}
				return map[string]any{"schemas": schemas}, nil
			},
		),
		binding(domain.ServiceUC, "uc_list_tables",
			"List the tables of a schema in the order the catalog returns them.",
			[]domain.ToolParam{
				required("catalog_name", domain.ParamString, "Catalog of the schema."),
				required("schema_name", domain.ParamString, "Schema to list."),
				optional("omit_columns", domain.ParamBoolean, "Leave out column details."),
				optional("omit_properties", domain.ParamBoolean, "Leave out table properties."),
				optional("omit_username", domain.ParamBoolean, "Leave out owner and updater names."),
				includeBrowse,
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				tables, err := svc.ListTables(ctx, unitycatalog.ListTablesRequest{
					Catalog:        args.String("catalog_name"),
					Schema:         args.String("schema_name"),
					OmitColumns:    args.Bool("omit_columns"),
					OmitProperties: args.Bool("omit_properties"),
					OmitUsername:   args.Bool("omit_username"),
					IncludeBrowse:  args.Bool("include_browse"),
				})
				if err != nil {
					return nil, err
				}
				return map[string]any{"tables": tables}, nil
			},
		),
		binding(domain.ServiceUC, "uc_get_table_info",
			"Describe a table, including its columns and storage location.",
			[]domain.ToolParam{
				required("catalog_name", domain.ParamString, "Catalog of the table."),
				required("schema_name", domain.ParamString, "Schema of the table."),
				required("table_name", domain.ParamString, "Table name."),
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				return svc.GetTableInfo(ctx, args.String("catalog_name"), args.String("schema_name"), args.String("table_name"))
			},
		),
	}
}
