package toolset

import (
	"context"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

func workspaceTools(svc WorkspaceService) []domain.ToolBinding {
	formats := make([]string, 0, len(domain.ExportFormats))
	for _, f := range domain.ExportFormats {
		formats = append(formats, string(f))
	}
	format := optional("format", domain.ParamString, "Export format.")
	format.Enum = formats
	format.Default = string(domain.ExportSource)

	modifiedAfter := optional("notebooks_modified_after", domain.ParamInteger,
		"Only list notebooks modified after this epoch time in milliseconds.")
	modifiedAfter.Minimum = domain.Bound(0)

	return []domain.ToolBinding{
		binding(domain.ServiceWS, "ws_download_notebook",
			"Export a notebook and return its decoded content.",
			[]domain.ToolParam{
				required("path", domain.ParamString, "Absolute workspace path of the notebook."),
				format,
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				return svc.DownloadNotebook(ctx, args.String("path"), args.String("format"))
			},
		),
		binding(domain.ServiceWS, "ws_list_contents",
			"List the direct children of a workspace directory.",
			[]domain.ToolParam{
				required("path", domain.ParamString, "Absolute workspace path of the directory."),
				modifiedAfter,
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				after, err := args.Int("notebooks_modified_after")
				if err != nil {
					return nil, err
				}
				entries, err := svc.ListContents(ctx, args.String("path"), after)
				if err != nil {
					return nil, err
				}
				return map[string]any{"objects": entries}, nil
			},
		),
		binding(domain.ServiceWS, "ws_get_status",
			"Describe a single workspace object.",
			[]domain.ToolParam{
				required("path", domain.ParamString, "Absolute workspace path."),
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				return svc.GetStatus(ctx, args.String("path"))
			},
		),
	}
}
