package domain

import "strings"

// ObjectType is the kind of a workspace object.
type ObjectType string

const (
	ObjectNotebook  ObjectType = "NOTEBOOK"
	ObjectDirectory ObjectType = "DIRECTORY"
	ObjectFile      ObjectType = "FILE"
	ObjectLibrary   ObjectType = "LIBRARY"
	ObjectRepo      ObjectType = "REPO"
	ObjectDashboard ObjectType = "DASHBOARD"
)

// DirectoryEntry is one object in a workspace listing.
type DirectoryEntry struct {
	Path       string     `json:"path"`
	ObjectType ObjectType `json:"object_type"`
	Language   string     `json:"language,omitempty"`
	ObjectID   int64      `json:"object_id,omitempty"`
	ModifiedAt int64      `json:"modified_at,omitempty"`
	Size       int64      `json:"size,omitempty"`
}

// ObjectStatus is the status of a single workspace object.
type ObjectStatus = DirectoryEntry

// ExportFormat is a workspace export format.
type ExportFormat string

const (
	ExportSource    ExportFormat = "SOURCE"
	ExportHTML      ExportFormat = "HTML"
	ExportJupyter   ExportFormat = "JUPYTER"
	ExportDBC       ExportFormat = "DBC"
	ExportRMarkdown ExportFormat = "R_MARKDOWN"
	ExportAuto      ExportFormat = "AUTO"
)

// ExportFormats lists the accepted export formats.
var ExportFormats = []ExportFormat{ExportSource, ExportHTML, ExportJupyter, ExportDBC, ExportRMarkdown, ExportAuto}

// NormalizeExportFormat upper-cases f and falls back to SOURCE when empty.
func NormalizeExportFormat(f string) ExportFormat {
	f = strings.ToUpper(strings.TrimSpace(f))
	if f == "" {
		return ExportSource
	}
	return ExportFormat(f)
}

// Binary reports whether the exported payload is not text.
func (f ExportFormat) Binary() bool {
	return f == ExportDBC
}

// Content encodings reported with exported notebooks.
const (
	EncodingUTF8   = "utf-8"
	EncodingBase64 = "base64"
)

// NotebookContent is a decoded notebook export.
type NotebookContent struct {
	Path      string       `json:"path"`
	Format    ExportFormat `json:"format"`
	FileType  string       `json:"file_type,omitempty"`
	Encoding  string       `json:"encoding"`
	Content   string       `json:"content"`
	SizeBytes int          `json:"size_bytes"`
}
