package toolset

import (
	"context"
	"encoding/json"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/unitycatalog"
)

// StatementService runs SQL statements.
type StatementService interface {
	Execute(ctx context.Context, req domain.ExecuteRequest) (domain.StatementOutcome, error)
	Get(ctx context.Context, statementID string, waitSeconds *int) (domain.StatementOutcome, error)
	Cancel(ctx context.Context, statementID string) error
	ListWarehouses(ctx context.Context) ([]domain.Warehouse, error)
}

// CatalogService browses Unity Catalog metadata.
type CatalogService interface {
	ListCatalogs(ctx context.Context, req unitycatalog.ListCatalogsRequest) ([]domain.CatalogEntry, error)
	ListSchemas(ctx context.Context, catalog string) ([]domain.SchemaEntry, error)
	ListTables(ctx context.Context, req unitycatalog.ListTablesRequest) ([]domain.TableDescriptor, error)
	GetTableInfo(ctx context.Context, catalog, schema, table string) (domain.TableDescriptor, error)
}

// WorkspaceService reads workspace objects.
type WorkspaceService interface {
	DownloadNotebook(ctx context.Context, path, format string) (domain.NotebookContent, error)
	ListContents(ctx context.Context, path string, modifiedAfter int64) ([]domain.DirectoryEntry, error)
	GetStatus(ctx context.Context, path string) (domain.ObjectStatus, error)
}

// JobsService reads job definitions and runs.
type JobsService interface {
	ListJobs(ctx context.Context, req domain.ListJobsRequest) (domain.JobsPage, error)
	GetJob(ctx context.Context, jobID int64) (json.RawMessage, error)
	ListRuns(ctx context.Context, req domain.ListRunsRequest) (domain.RunsPage, error)
}

// Services groups the handlers tools are bound to. A nil service disables
// its tools.
type Services struct {
	Statements StatementService
	Catalog    CatalogService
	Workspace  WorkspaceService
	Jobs       JobsService
}

// Bindings returns the tool bindings of every enabled service in a stable
// order: sql, uc, ws, jobs.
func Bindings(services Services, enabled domain.ServicesConfig) []domain.ToolBinding {
	var bindings []domain.ToolBinding
	if enabled.SQL && services.Statements != nil {
		bindings = append(bindings, sqlTools(services.Statements)...)
	}
	if enabled.UC && services.Catalog != nil {
		bindings = append(bindings, catalogTools(services.Catalog)...)
	}
	if enabled.WS && services.Workspace != nil {
		bindings = append(bindings, workspaceTools(services.Workspace)...)
	}
	if enabled.Jobs && services.Jobs != nil {
		bindings = append(bindings, jobsTools(services.Jobs)...)
	}
	return bindings
}

func binding(service, name, description string, params []domain.ToolParam, handler domain.ToolHandler) domain.ToolBinding {
	return domain.ToolBinding{
		Descriptor: domain.ToolDescriptor{
			Name:        name,
			Service:     service,
			Description: description,
			Params:      params,
		},
		Handler: handler,
	}
}

func required(name string, typ domain.ParamType, description string) domain.ToolParam {
	return domain.ToolParam{Name: name, Type: typ, Required: true, Description: description}
}

func optional(name string, typ domain.ParamType, description string) domain.ToolParam {
	return domain.ToolParam{Name: name, Type: typ, Description: description}
}
