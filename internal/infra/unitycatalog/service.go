package unitycatalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/remote"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/telemetry"
)

// Options configures a Service.
type Options struct {
	PageSize int
	Listing  remote.DrainOptions
	Retry    remote.RetryPolicy
	Logger   *zap.Logger
}

// ListCatalogsRequest filters the catalog listing.
type ListCatalogsRequest struct {
	IncludeBrowse bool
}

// ListTablesRequest selects the tables of one schema.
type ListTablesRequest struct {
	Catalog        string
	Schema         string
	OmitColumns    bool
	OmitProperties bool
	OmitUsername   bool
	IncludeBrowse  bool
}

// Service browses Unity Catalog metadata. Every listing is drained to
// completion before it is returned.
type Service struct {
	caller   remote.Caller
	pageSize int
	listing  remote.DrainOptions
	retry    remote.RetryPolicy
	logger   *zap.Logger
}

func NewService(caller remote.Caller, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		caller:   caller,
		pageSize: opts.PageSize,
		listing:  opts.Listing,
		retry:    opts.Retry,
		logger:   logger.Named("unitycatalog"),
	}
}

// ListCatalogs returns every catalog visible to the credential.
func (s *Service) ListCatalogs(ctx context.Context, req ListCatalogsRequest) ([]domain.CatalogEntry, error) {
	const op = "unitycatalog.ListCatalogs"
	catalogs, err := remote.Drain(ctx, op, s.listing, func(ctx context.Context, token string) (remote.Page[domain.CatalogEntry], error) {
		query := s.pageQuery(token)
		if req.IncludeBrowse {
			query.Set("include_browse", "true")
		}
		var resp catalogsResponse
		if err := s.get(ctx, catalogsPath, query, &resp); err != nil {
			return remote.Page[domain.CatalogEntry]{}, remote.Classify(op, "", err)
		}
		items := make([]domain.CatalogEntry, 0, len(resp.Catalogs))
		for _, c := range resp.Catalogs {
			items = append(items, c.entry())
		}
		return remote.Page[domain.CatalogEntry]{Items: items, NextToken: resp.NextPageToken}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logListing(ctx, op, len(catalogs))
	return catalogs, nil
}

// ListSchemas returns the schemas of a catalog.
func (s *Service) ListSchemas(ctx context.Context, catalog string) ([]domain.SchemaEntry, error) {
	const op = "unitycatalog.ListSchemas"
	if err := requireName(op, "catalog_name", catalog); err != nil {
		return nil, err
	}
	schemas, err := remote.Drain(ctx, op, s.listing, func(ctx context.Context, token string) (remote.Page[domain.SchemaEntry], error) {
		query := s.pageQuery(token)
		query.Set("catalog_name", catalog)
		var resp schemasResponse
		if err := s.get(ctx, schemasPath, query, &resp); err != nil {
			return remote.Page[domain.SchemaEntry]{}, remote.Classify(op, fmt.Sprintf("catalog %q not found", catalog), err)
		}
		return remote.Page[domain.SchemaEntry]{Items: resp.Schemas, NextToken: resp.NextPageToken}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logListing(ctx, op, len(schemas))
	return schemas, nil
}

// ListTables returns the tables of a schema in remote order.
func (s *Service) ListTables(ctx context.Context, req ListTablesRequest) ([]domain.TableDescriptor, error) {
	const op = "unitycatalog.ListTables"
	if err := requireName(op, "catalog_name", req.Catalog); err != nil {
		return nil, err
	}
	if err := requireName(op, "schema_name", req.Schema); err != nil {
		return nil, err
	}
	missing := fmt.Sprintf("schema %q not found", req.Catalog+"."+req.Schema)
	tables, err := remote.Drain(ctx, op, s.listing, func(ctx context.Context, token string) (remote.Page[domain.TableDescriptor], error) {
		query := s.pageQuery(token)
		query.Set("catalog_name", req.Catalog)
		query.Set("schema_name", req.Schema)
		setFlag(query, "omit_columns", req.OmitColumns)
		setFlag(query, "omit_properties", req.OmitProperties)
		setFlag(query, "omit_username", req.OmitUsername)
		setFlag(query, "include_browse", req.IncludeBrowse)
		var resp tablesResponse
		if err := s.get(ctx, tablesPath, query, &resp); err != nil {
			return remote.Page[domain.TableDescriptor]{}, remote.Classify(op, missing, err)
		}
		items := make([]domain.TableDescriptor, 0, len(resp.Tables))
		for _, t := range resp.Tables {
			items = append(items, t.descriptor())
		}
		return remote.Page[domain.TableDescriptor]{Items: items, NextToken: resp.NextPageToken}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logListing(ctx, op, len(tables))
	return tables, nil
}

// GetTableInfo describes one table by its three-part name.
func (s *Service) GetTableInfo(ctx context.Context, catalog, schema, table string) (domain.TableDescriptor, error) {
	const op = "unitycatalog.GetTableInfo"
	for _, part := range []struct{ field, value string }{
		{"catalog_name", catalog},
		{"schema_name", schema},
		{"table_name", table},
	} {
		if err := requireName(op, part.field, part.value); err != nil {
			return domain.TableDescriptor{}, err
		}
	}
	fullName := strings.Join([]string{catalog, schema, table}, ".")
	var resp tablePayload
	if err := s.get(ctx, tablePath(fullName), nil, &resp); err != nil {
		return domain.TableDescriptor{}, remote.Classify(op, fmt.Sprintf("table %q not found", fullName), err)
	}
	return resp.descriptor(), nil
}

func (s *Service) get(ctx context.Context, path string, query url.Values, out any) error {
	return remote.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.caller.Call(ctx, http.MethodGet, path, query, nil, out)
	})
}

func (s *Service) pageQuery(token string) url.Values {
	query := url.Values{}
	if s.pageSize > 0 {
		query.Set("max_results", strconv.Itoa(s.pageSize))
	}
	if token != "" {
		query.Set("page_token", token)
	}
	return query
}

func (s *Service) logListing(ctx context.Context, op string, count int) {
	telemetry.LoggerWithRequest(ctx, s.logger).Debug("listing drained", zap.String("op", op), zap.Int("count", count))
}

func setFlag(query url.Values, key string, value bool) {
	if value {
		query.Set(key, "true")
	}
}

func requireName(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.E(domain.KindValidation, op, field+" must not be empty", domain.ErrInvalidArgument)
	}
	return nil
}
