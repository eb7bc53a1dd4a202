package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/speakeasy-api/jaxrsflow/internal/config"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func exitCode(err error) int {
	var cErr *codedError
	if errors.As(err, &cErr) {
		return cErr.code
	}
	return -1
}

// rows splits table output into whitespace separated fields per line.
func rows(out string) [][]string {
	var rs [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		rs = append(rs, strings.Fields(line))
	}
	return rs
}

func TestAnalyzeTable(t *testing.T) {
	out, _, err := execute(t, "analyze", "--no-color", "testdata/tasks.yaml")
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"METHOD", "PATH", "STATUS", "ENTITY", "CONTENT-TYPE", "HEADERS"},
		{"GET", "/api/tasks", "200", "List<Task>"},
		{"POST", "/api/tasks", "201", "Location"},
		{"GET", "/api/tasks/{id}", "200", "Task"},
		{"GET", "/api/tasks/{id}", "404"},
		{"DELETE", "/api/tasks/{id}/comments", "204"},
	}, rows(out))
}

func TestAnalyzeYAML(t *testing.T) {
	out, _, err := execute(t, "analyze", "--format", "yaml", "--concurrency", "1", "testdata")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "basePath: /api\npaths:\n"), "keys keep their order")
	assert.Less(t, strings.Index(out, "GET:"), strings.Index(out, "POST:"))

	type response struct {
		Entity  string   `yaml:"entity"`
		Headers []string `yaml:"headers"`
	}
	type method struct {
		Method    string           `yaml:"method"`
		Consumes  []string         `yaml:"consumes"`
		Body      string           `yaml:"requestBody"`
		Responses map[int]response `yaml:"responses"`
	}
	var doc struct {
		BasePath string                       `yaml:"basePath"`
		Paths    map[string]map[string]method `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "/api", doc.BasePath)
	post := doc.Paths["/tasks"]["POST"]
	assert.Equal(t, "com/example/tasks/TaskResource.create(Lcom/example/tasks/Task;)Ljavax/ws/rs/core/Response;", post.Method)
	assert.Equal(t, []string{"application/json"}, post.Consumes)
	assert.Equal(t, "Task", post.Body)
	assert.Equal(t, []string{"Location"}, post.Responses[201].Headers)

	get := doc.Paths["/tasks/{id}"]["GET"]
	assert.Equal(t, "Task", get.Responses[200].Entity)
	assert.Contains(t, get.Responses, 404)

	assert.Equal(t, "String", doc.Paths["/audit"]["GET"].Responses[200].Entity, "directory input includes audit.yaml")
}

func TestAnalyzeOpenAPI(t *testing.T) {
	out, _, err := execute(t, "analyze", "--config", "testdata/config/jaxrsflow.yaml", "--format", "openapi", "testdata/tasks.yaml")
	require.NoError(t, err)

	var doc struct {
		OpenAPI string `yaml:"openapi"`
		Info    struct {
			Title   string `yaml:"title"`
			Version string `yaml:"version"`
		} `yaml:"info"`
		Servers []struct {
			URL string `yaml:"url"`
		} `yaml:"servers"`
		Paths map[string]map[string]struct {
			OperationID string         `yaml:"operationId"`
			Responses   map[string]any `yaml:"responses"`
		} `yaml:"paths"`
		Components struct {
			Schemas map[string]any `yaml:"schemas"`
		} `yaml:"components"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Equal(t, "Tasks", doc.Info.Title)
	assert.Equal(t, "2.0", doc.Info.Version)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "/api", doc.Servers[0].URL)
	assert.Equal(t, "get", doc.Paths["/tasks/{id}"]["get"].OperationID)
	assert.Contains(t, doc.Paths["/tasks/{id}"]["get"].Responses, "404")
	assert.Contains(t, doc.Components.Schemas, "Task")
}

func TestAnalyzeStrict(t *testing.T) {
	_, _, err := execute(t, "analyze", "testdata/audit.yaml", "--no-color")
	require.NoError(t, err, "warnings alone do not fail")

	out, stderr, err := execute(t, "analyze", "--strict", "--no-color", "testdata/audit.yaml")
	require.Error(t, err)
	assert.Equal(t, exitWarnings, exitCode(err))
	assert.Empty(t, err.Error())
	assert.Contains(t, out, "/audit", "output is written before failing")
	assert.Contains(t, stderr, "Analysis produced 1 warning(s) (strict mode).")
	assert.Contains(t, stderr, "Method com/example/audit/AuditLog.latest()Ljava/lang/String; has no body")
	assert.Contains(t, stderr, "Location: GET /audit")
}

func TestAnalyzeInputErrors(t *testing.T) {
	_, _, err := execute(t, "analyze", "testdata/missing.yaml")
	assert.Equal(t, exitError, exitCode(err))

	_, _, err = execute(t, "analyze", "--format", "xml", "testdata/tasks.yaml")
	assert.Equal(t, exitError, exitCode(err))
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, _, err = execute(t, "analyze", "testdata/config/jaxrsflow.yaml")
	assert.Equal(t, exitError, exitCode(err), "a config file is not a fixture")

	_, _, err = execute(t, "analyze")
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	out, _, err := execute(t, "dump", "testdata/tasks.yaml", "com/example/tasks/TaskStore", "find", "--columns", "index,instruction")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "com/example/tasks/TaskStore.find(J)Lcom/example/tasks/Task; (12 instructions)", lines[0])
	assert.Equal(t, []string{"#", "INSTRUCTION"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"0", "load", "1", "J"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"7", "throw"}, strings.Fields(lines[9]))

	_, _, err = execute(t, "dump", "testdata/tasks.yaml", "com/example/tasks/TaskStore", "save")
	assert.Equal(t, exitError, exitCode(err))
	assert.Contains(t, err.Error(), "TaskStore.save not found")

	_, _, err = execute(t, "dump", "testdata/tasks.yaml", "com/example/tasks/TaskStore", "find", "--columns", "opcode")
	assert.Equal(t, exitError, exitCode(err))
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "jaxrsflow version dev\n"))
}
