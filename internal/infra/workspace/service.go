package workspace

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/remote"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/telemetry"
)

const (
	exportPath    = "/api/2.0/workspace/export"
	listPath      = "/api/2.0/workspace/list"
	getStatusPath = "/api/2.0/workspace/get-status"
)

type exportResponse struct {
	Content  string `json:"content"`
	FileType string `json:"file_type"`
}

type listResponse struct {
	Objects []domain.DirectoryEntry `json:"objects"`
}

// Options configures a Service.
type Options struct {
	Retry  remote.RetryPolicy
	Logger *zap.Logger
}

// Service reads workspace objects. It never writes to the workspace.
type Service struct {
	caller remote.Caller
	retry  remote.RetryPolicy
	logger *zap.Logger
}

func NewService(caller remote.Caller, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		caller: caller,
		retry:  opts.Retry,
		logger: logger.Named("workspace"),
	}
}

// DownloadNotebook exports a notebook and decodes its transfer encoding.
// Text formats come back as UTF-8; DBC archives stay base64.
func (s *Service) DownloadNotebook(ctx context.Context, path, format string) (domain.NotebookContent, error) {
	const op = "workspace.DownloadNotebook"
	if err := requirePath(op, path); err != nil {
		return domain.NotebookContent{}, err
	}
	exportFormat := domain.NormalizeExportFormat(format)
	if !slices.Contains(domain.ExportFormats, exportFormat) {
		return domain.NotebookContent{}, domain.E(domain.KindValidation, op, fmt.Sprintf("unsupported export format %q", format), domain.ErrInvalidArgument)
	}

	query := url.Values{}
	query.Set("path", path)
	query.Set("format", string(exportFormat))
	var resp exportResponse
	if err := s.get(ctx, exportPath, query, &resp); err != nil {
		return domain.NotebookContent{}, remote.Classify(op, fmt.Sprintf("notebook %q not found", path), err)
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Content)
	if err != nil {
		return domain.NotebookContent{}, domain.E(domain.KindDecode, op, fmt.Sprintf("notebook %q content is not valid base64", path), err)
	}

	content := domain.NotebookContent{
		Path:      path,
		Format:    exportFormat,
		FileType:  resp.FileType,
		SizeBytes: len(raw),
	}
	if exportFormat.Binary() {
		content.Encoding = domain.EncodingBase64
		content.Content = base64.StdEncoding.EncodeToString(raw)
	} else {
		if !utf8.Valid(raw) {
			return domain.NotebookContent{}, domain.E(domain.KindDecode, op, fmt.Sprintf("notebook %q content is not valid UTF-8", path), nil)
		}
		content.Encoding = domain.EncodingUTF8
		content.Content = string(raw)
	}
	telemetry.LoggerWithRequest(ctx, s.logger).Debug("notebook exported",
		zap.String("path", path),
		zap.String("format", string(exportFormat)),
		zap.Int("size_bytes", content.SizeBytes),
	)
	return content, nil
}

// ListContents lists the direct children of a directory. It does not recurse.
func (s *Service) ListContents(ctx context.Context, path string, modifiedAfter int64) ([]domain.DirectoryEntry, error) {
	const op = "workspace.ListContents"
	if err := requirePath(op, path); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("path", path)
	if modifiedAfter > 0 {
		query.Set("notebooks_modified_after", strconv.FormatInt(modifiedAfter, 10))
	}
	var resp listResponse
	if err := s.get(ctx, listPath, query, &resp); err != nil {
		return nil, remote.Classify(op, fmt.Sprintf("directory %q not found", path), err)
	}
	if resp.Objects == nil {
		return []domain.DirectoryEntry{}, nil
	}
	return resp.Objects, nil
}

// GetStatus describes a single workspace object.
func (s *Service) GetStatus(ctx context.Context, path string) (domain.ObjectStatus, error) {
	const op = "workspace.GetStatus"
	if err := requirePath(op, path); err != nil {
		return domain.ObjectStatus{}, err
	}
	query := url.Values{}
	query.Set("path", path)
	var status domain.ObjectStatus
	if err := s.get(ctx, getStatusPath, query, &status); err != nil {
		return domain.ObjectStatus{}, remote.Classify(op, fmt.Sprintf("path %q not found", path), err)
	}
	return status, nil
}

func (s *Service) get(ctx context.Context, path string, query url.Values, out any) error {
	return remote.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.caller.Call(ctx, http.MethodGet, path, query, nil, out)
	})
}

func requirePath(op, path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.E(domain.KindValidation, op, "path must not be empty", domain.ErrInvalidArgument)
	}
	return nil
}
