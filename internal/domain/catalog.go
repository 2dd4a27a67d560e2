package domain

// CatalogEntry is a Unity Catalog catalog.
type CatalogEntry struct {
	Name        string `json:"name"`
	Kind        string `json:"kind,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Comment     string `json:"comment,omitempty"`
	StorageRoot string `json:"storage_root,omitempty"`
}

// SchemaEntry is a schema inside a catalog.
type SchemaEntry struct {
	Name        string `json:"name"`
	CatalogName string `json:"catalog_name"`
	FullName    string `json:"full_name,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// ColumnInfo is a table column as reported by the catalog.
type ColumnInfo struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name,omitempty"`
	TypeText string `json:"type_text,omitempty"`
	Position int    `json:"position"`
	Nullable bool   `json:"nullable"`
	Comment  string `json:"comment,omitempty"`
}

// TableDescriptor is a read-only projection of table metadata.
type TableDescriptor struct {
	Name             string       `json:"name"`
	CatalogName      string       `json:"catalog_name"`
	SchemaName       string       `json:"schema_name"`
	FullName         string       `json:"full_name,omitempty"`
	Kind             string       `json:"kind,omitempty"`
	DataSourceFormat string       `json:"data_source_format,omitempty"`
	StorageLocation  string       `json:"storage_location,omitempty"`
	Columns          []ColumnInfo `json:"columns,omitempty"`
	Owner            string       `json:"owner,omitempty"`
	Comment          string       `json:"comment,omitempty"`
}
