package toolset

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/jobs"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/registry"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/remote"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/statement"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/unitycatalog"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/workspace"
)

const notebookSource = "-- Databricks notebook source\nSELECT 1;\n"

type fakeWorkspace struct {
	requests atomic.Int32
}

func (f *fakeWorkspace) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	notFound := func(code, msg string) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error_code":"` + code + `","message":"` + msg + `"}`))
	}
	switch {
	case r.URL.Path == "/api/2.0/sql/statements/" && r.Method == http.MethodPost:
		_, _ = w.Write([]byte(`{"statement_id":"s1","status":{"state":"SUCCEEDED"},
			"manifest":{"schema":{"columns":[{"name":"1","type_name":"INT","position":0}]},"total_chunk_count":1,"total_row_count":1},
			"result":{"chunk_index":0,"data_array":[[1]]}}`))
	case r.URL.Path == "/api/2.1/unity-catalog/tables":
		if r.URL.Query().Get("catalog_name") != "main" {
			notFound("CATALOG_DOES_NOT_EXIST", "Catalog does not exist.")
			return
		}
		_, _ = w.Write([]byte(`{"tables":[{"name":"orders","catalog_name":"main","schema_name":"sales"}]}`))
	case strings.HasPrefix(r.URL.Path, "/api/2.1/unity-catalog/tables/"):
		notFound("TABLE_DOES_NOT_EXIST", "Table does not exist.")
	case r.URL.Path == "/api/2.1/unity-catalog/catalogs":
		_, _ = w.Write([]byte(`{"catalogs":[{"name":"main"}]}`))
	case r.URL.Path == "/api/2.1/unity-catalog/schemas":
		notFound("CATALOG_DOES_NOT_EXIST", "Catalog does not exist.")
	case r.URL.Path == "/api/2.0/workspace/export":
		if r.URL.Query().Get("path") != "/Workspace/x" {
			notFound("RESOURCE_DOES_NOT_EXIST", "Path does not exist.")
			return
		}
		content := base64.StdEncoding.EncodeToString([]byte(notebookSource))
		_, _ = w.Write([]byte(`{"content":"` + content + `","file_type":"sql"}`))
	case r.URL.Path == "/api/2.0/workspace/list", r.URL.Path == "/api/2.0/workspace/get-status":
		notFound("RESOURCE_DOES_NOT_EXIST", "Path does not exist.")
	case r.URL.Path == "/api/2.1/jobs/get":
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"RESOURCE_DOES_NOT_EXIST","message":"Job does not exist."}`))
	case r.URL.Path == "/api/2.1/jobs/runs/list":
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"RESOURCE_DOES_NOT_EXIST","message":"Job does not exist."}`))
	case strings.HasPrefix(r.URL.Path, "/api/2.0/sql/statements/"):
		notFound("RESOURCE_DOES_NOT_EXIST", "Statement does not exist.")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestServices(t *testing.T, fake http.Handler) Services {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := remote.NewClient(remote.Options{BaseURL: server.URL, Token: "t"})
	require.NoError(t, err)
	retry := remote.RetryPolicy{MaxRetries: 1, Base: time.Millisecond, Max: time.Millisecond}
	return Services{
		Statements: statement.NewExecutor(client, statement.Options{
			Config: domain.StatementConfig{PollInterval: time.Millisecond, MaxWait: 5 * time.Second, DefaultWait: time.Second},
			Retry:  retry,
		}),
		Catalog:   unitycatalog.NewService(client, unitycatalog.Options{Retry: retry}),
		Workspace: workspace.NewService(client, workspace.Options{Retry: retry}),
		Jobs:      jobs.NewService(client, jobs.Options{Retry: retry}),
	}
}

func allServices() domain.ServicesConfig {
	return domain.DefaultConfig().Services
}

func newTestRegistry(t *testing.T, services Services, enabled domain.ServicesConfig) *registry.Registry {
	t.Helper()
	r, err := registry.New(Bindings(services, enabled), registry.Options{CallTimeout: 10 * time.Second})
	require.NoError(t, err)
	return r
}

func TestBindings_NamesArePrefixedAndUnique(t *testing.T) {
	r := newTestRegistry(t, newTestServices(t, &fakeWorkspace{}), allServices())

	tools := r.ListTools()
	require.Len(t, tools, 14)
	seen := make(map[string]struct{})
	for _, tool := range tools {
		assert.True(t, strings.HasPrefix(tool.Name, tool.Service+"_"), tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
		_, dup := seen[tool.Name]
		assert.False(t, dup, tool.Name)
		seen[tool.Name] = struct{}{}
	}
}

func TestBindings_HonorsDisabledServices(t *testing.T) {
	enabled := allServices()
	enabled.SQL = false
	enabled.Jobs = false
	r := newTestRegistry(t, newTestServices(t, &fakeWorkspace{}), enabled)

	for _, tool := range r.ListTools() {
		assert.NotEqual(t, domain.ServiceSQL, tool.Service)
		assert.NotEqual(t, domain.ServiceJobs, tool.Service)
	}
	assert.Len(t, r.ListTools(), 7)
}

func TestDispatch_SemanticallyWrongArgumentsAreNotFound(t *testing.T) {
	r := newTestRegistry(t, newTestServices(t, &fakeWorkspace{}), allServices())

	cases := map[string]string{
		"uc_list_tables":       `{"catalog_name":"unknown","schema_name":"s"}`,
		"uc_list_schemas":      `{"catalog_name":"unknown"}`,
		"uc_get_table_info":    `{"catalog_name":"main","schema_name":"s","table_name":"nope"}`,
		"ws_download_notebook": `{"path":"/Workspace/missing"}`,
		"ws_list_contents":     `{"path":"/Workspace/missing"}`,
		"ws_get_status":        `{"path":"/Workspace/missing"}`,
		"sql_get_statement":    `{"statement_id":"missing"}`,
		"jobs_get_job":         `{"job_id":999}`,
		"jobs_list_runs":       `{"job_id":999}`,
	}
	for tool, args := range cases {
		t.Run(tool, func(t *testing.T) {
			env := r.Dispatch(context.Background(), tool, json.RawMessage(args))
			require.False(t, env.Success)
			assert.Equal(t, domain.KindNotFound, env.ErrorKind(), env.Error.Message)
		})
	}
}

func TestDispatch_MissingArgumentNeverReachesRemote(t *testing.T) {
	fake := &fakeWorkspace{}
	r := newTestRegistry(t, newTestServices(t, fake), allServices())

	env := r.Dispatch(context.Background(), "sql_execute_statement", json.RawMessage(`{"statement":"SELECT 1"}`))
	require.False(t, env.Success)
	assert.Equal(t, domain.KindValidation, env.ErrorKind())
	assert.Zero(t, fake.requests.Load())
}

func TestDispatch_ExecuteSelectOne(t *testing.T) {
	r := newTestRegistry(t, newTestServices(t, &fakeWorkspace{}), allServices())

	env := r.Dispatch(context.Background(), "sql_execute_statement", json.RawMessage(`{"statement":"SELECT 1","warehouse_id":"w1"}`))
	require.True(t, env.Success, "%+v", env.Error)

	raw, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	var got struct {
		Done   bool `json:"done"`
		Result struct {
			Schema []struct {
				Name     string `json:"name"`
				TypeName string `json:"type_name"`
			} `json:"schema"`
			Rows      json.RawMessage `json:"rows"`
			Truncated bool            `json:"truncated"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.True(t, got.Done)
	require.Len(t, got.Result.Schema, 1)
	assert.Equal(t, "1", got.Result.Schema[0].Name)
	assert.Equal(t, "INT", got.Result.Schema[0].TypeName)
	assert.JSONEq(t, `[[1]]`, string(got.Result.Rows))
	assert.False(t, got.Result.Truncated)
}

func TestDispatch_DownloadNotebookDecodesSource(t *testing.T) {
	r := newTestRegistry(t, newTestServices(t, &fakeWorkspace{}), allServices())

	env := r.Dispatch(context.Background(), "ws_download_notebook", json.RawMessage(`{"path":"/Workspace/x"}`))
	require.True(t, env.Success, "%+v", env.Error)
	notebook, ok := env.Payload.(domain.NotebookContent)
	require.True(t, ok)
	assert.Equal(t, notebookSource, notebook.Content)
	assert.Equal(t, domain.ExportSource, notebook.Format)
}

func TestDispatch_ListsWrapCollections(t *testing.T) {
	r := newTestRegistry(t, newTestServices(t, &fakeWorkspace{}), allServices())

	env := r.Dispatch(context.Background(), "uc_list_tables", json.RawMessage(`{"catalog_name":"main","schema_name":"sales"}`))
	require.True(t, env.Success, "%+v", env.Error)
	raw, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tables":[{"name":"orders","catalog_name":"main","schema_name":"sales","full_name":"main.sales.orders"}]}`, string(raw))
}

func TestStatementParameters(t *testing.T) {
	params, err := statementParameters([]any{
		map[string]any{"name": "id", "value": float64(42), "type": "INT"},
		map[string]any{"name": "label", "value": "x"},
		map[string]any{"name": "missing"},
	})
	require.NoError(t, err)
	require.Len(t, params, 3)
	assert.Equal(t, "42", *params[0].Value)
	assert.Equal(t, "INT", params[0].Type)
	assert.Equal(t, "x", *params[1].Value)
	assert.Nil(t, params[2].Value)

	_, err = statementParameters([]any{"id"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = statementParameters([]any{map[string]any{"value": "x"}})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}
