package workspace

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/remote"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := remote.NewClient(remote.Options{BaseURL: server.URL, Token: "t"})
	require.NoError(t, err)
	return NewService(client, Options{Retry: remote.RetryPolicy{MaxRetries: 1, Base: time.Millisecond, Max: time.Millisecond}})
}

func exportHandler(t *testing.T, content, fileType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, exportPath, r.URL.Path)
		if r.URL.Query().Get("path") == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error_code":"RESOURCE_DOES_NOT_EXIST","message":"Path (/missing) doesn't exist."}`))
			return
		}
		_, _ = w.Write([]byte(`{"content":"` + content + `","file_type":"` + fileType + `"}`))
	}
}

func TestDownloadNotebook_DecodesSourceByteIdentical(t *testing.T) {
	source := "# Databricks notebook source\nprint(\"héllo\")\n\n# COMMAND ----------\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(source))
	svc := newTestService(t, exportHandler(t, encoded, "py"))

	notebook, err := svc.DownloadNotebook(context.Background(), "/Users/me/nb", "")
	require.NoError(t, err)
	require.Equal(t, source, notebook.Content)
	require.Equal(t, domain.ExportSource, notebook.Format)
	require.Equal(t, domain.EncodingUTF8, notebook.Encoding)
	require.Equal(t, "py", notebook.FileType)
	require.Equal(t, len(source), notebook.SizeBytes)
}

func TestDownloadNotebook_InvalidBase64IsDecodeError(t *testing.T) {
	svc := newTestService(t, exportHandler(t, "not*base64", "py"))

	_, err := svc.DownloadNotebook(context.Background(), "/Users/me/nb", "SOURCE")
	require.True(t, domain.IsKind(err, domain.KindDecode), "got %v", err)
}

func TestDownloadNotebook_NonUTF8TextIsDecodeError(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x00})
	svc := newTestService(t, exportHandler(t, encoded, "py"))

	_, err := svc.DownloadNotebook(context.Background(), "/Users/me/nb", "source")
	require.True(t, domain.IsKind(err, domain.KindDecode))
}

func TestDownloadNotebook_DBCStaysBase64(t *testing.T) {
	archive := []byte{0x50, 0x4b, 0x03, 0x04, 0xff}
	encoded := base64.StdEncoding.EncodeToString(archive)
	svc := newTestService(t, exportHandler(t, encoded, "dbc"))

	notebook, err := svc.DownloadNotebook(context.Background(), "/Users/me/nb", "DBC")
	require.NoError(t, err)
	require.Equal(t, domain.EncodingBase64, notebook.Encoding)
	decoded, err := base64.StdEncoding.DecodeString(notebook.Content)
	require.NoError(t, err)
	require.Equal(t, archive, decoded)
}

func TestDownloadNotebook_ValidatesFormatAndNotFound(t *testing.T) {
	svc := newTestService(t, exportHandler(t, "", "py"))

	_, err := svc.DownloadNotebook(context.Background(), "/Users/me/nb", "PDF")
	require.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = svc.DownloadNotebook(context.Background(), "/missing", "")
	require.True(t, domain.IsKind(err, domain.KindNotFound))
	require.Contains(t, domain.Message(err), "/missing")
}

func TestListContents_OneLevel(t *testing.T) {
	var calls int
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, listPath, r.URL.Path)
		require.Equal(t, "/Shared", r.URL.Query().Get("path"))
		require.Equal(t, "1700000000000", r.URL.Query().Get("notebooks_modified_after"))
		_, _ = w.Write([]byte(`{"objects":[
			{"path":"/Shared/etl","object_type":"DIRECTORY","object_id":1},
			{"path":"/Shared/report","object_type":"NOTEBOOK","language":"PYTHON","object_id":2}
		]}`))
	})

	entries, err := svc.ListContents(context.Background(), "/Shared", 1700000000000)
	require.NoError(t, err)
	require.Equal(t, []domain.DirectoryEntry{
		{Path: "/Shared/etl", ObjectType: domain.ObjectDirectory, ObjectID: 1},
		{Path: "/Shared/report", ObjectType: domain.ObjectNotebook, Language: "PYTHON", ObjectID: 2},
	}, entries)
	require.Equal(t, 1, calls, "listing must not descend into subdirectories")
}

func TestListContents_EmptyDirectory(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	entries, err := svc.ListContents(context.Background(), "/Empty", 0)
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestGetStatus(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, getStatusPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"path":"/Shared/report","object_type":"NOTEBOOK","language":"SQL","object_id":7,"modified_at":1700000000000}`))
	})

	status, err := svc.GetStatus(context.Background(), "/Shared/report")
	require.NoError(t, err)
	require.Equal(t, domain.ObjectStatus{
		Path:       "/Shared/report",
		ObjectType: domain.ObjectNotebook,
		Language:   "SQL",
		ObjectID:   7,
		ModifiedAt: 1700000000000,
	}, status)

	_, err = svc.GetStatus(context.Background(), " ")
	require.True(t, domain.IsKind(err, domain.KindValidation))
}
