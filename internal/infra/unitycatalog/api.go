package unitycatalog

import (
	"net/url"
	"strings"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

const (
	catalogsPath = "/api/2.1/unity-catalog/catalogs"
	schemasPath  = "/api/2.1/unity-catalog/schemas"
	tablesPath   = "/api/2.1/unity-catalog/tables"
)

func tablePath(fullName string) string {
	return tablesPath + "/" + url.PathEscape(fullName)
}

type catalogPayload struct {
	Name        string `json:"name"`
	CatalogType string `json:"catalog_type"`
	Owner       string `json:"owner"`
	Comment     string `json:"comment"`
	StorageRoot string `json:"storage_root"`
}

type catalogsResponse struct {
	Catalogs      []catalogPayload `json:"catalogs"`
	NextPageToken string           `json:"next_page_token"`
}

type schemasResponse struct {
	Schemas       []domain.SchemaEntry `json:"schemas"`
	NextPageToken string               `json:"next_page_token"`
}

type columnPayload struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
	TypeText string `json:"type_text"`
	Position int    `json:"position"`
	Nullable bool   `json:"nullable"`
	Comment  string `json:"comment"`
}

type tablePayload struct {
	Name             string          `json:"name"`
	CatalogName      string          `json:"catalog_name"`
	SchemaName       string          `json:"schema_name"`
	FullName         string          `json:"full_name"`
	TableType        string          `json:"table_type"`
	DataSourceFormat string          `json:"data_source_format"`
	StorageLocation  string          `json:"storage_location"`
	Columns          []columnPayload `json:"columns"`
	Owner            string          `json:"owner"`
	Comment          string          `json:"comment"`
}

type tablesResponse struct {
	Tables        []tablePayload `json:"tables"`
	NextPageToken string         `json:"next_page_token"`
}

func (c catalogPayload) entry() domain.CatalogEntry {
	return domain.CatalogEntry{
		Name:        c.Name,
		Kind:        c.CatalogType,
		Owner:       c.Owner,
		Comment:     c.Comment,
		StorageRoot: c.StorageRoot,
	}
}

func (t tablePayload) descriptor() domain.TableDescriptor {
	desc := domain.TableDescriptor{
		Name:             t.Name,
		CatalogName:      t.CatalogName,
		SchemaName:       t.SchemaName,
		FullName:         t.FullName,
		Kind:             t.TableType,
		DataSourceFormat: t.DataSourceFormat,
		StorageLocation:  t.StorageLocation,
		Owner:            t.Owner,
		Comment:          t.Comment,
	}
	if desc.FullName == "" && t.Name != "" {
		desc.FullName = strings.Join([]string{t.CatalogName, t.SchemaName, t.Name}, ".")
	}
	if len(t.Columns) > 0 {
		desc.Columns = make([]domain.ColumnInfo, 0, len(t.Columns))
		for _, c := range t.Columns {
			desc.Columns = append(desc.Columns, domain.ColumnInfo(c))
		}
	}
	return desc
}
