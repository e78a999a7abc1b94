//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentx-labs/agentdir/internal/directory"
	"github.com/agentx-labs/agentdir/internal/mcpserver"
	"github.com/agentx-labs/agentdir/internal/registry"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir      string // AGENTDIR_HOME: config.yaml, agent store, services.yaml
	DBPath       string // SQLite agent store
	RegistryPath string // services.yaml
}

// setupTestEnv creates an isolated home directory and points AGENTDIR_HOME
// at it. The env var is restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("AGENTDIR_HOME", home)

	return &testEnv{
		HomeDir:      home,
		DBPath:       filepath.Join(home, "agents.db"),
		RegistryPath: filepath.Join(home, "services.yaml"),
	}
}

// setupRegistry writes a services.yaml with two services and loads it.
func setupRegistry(t *testing.T, env *testEnv) *registry.Registry {
	t.Helper()

	writeFile(t, env.RegistryPath, `version: 1.0.0
services:
  weather:
    baseUrl: http://localhost:8001
    tools:
      - name: forecast
        method: GET
        endpoint: /forecast
        description: Daily forecast for a city
        inputSchema:
          type: object
          properties:
            city: {type: string}
          required: [city]
      - name: alerts
        method: GET
        endpoint: /alerts
        description: Active weather alerts
  calendar:
    baseUrl: http://localhost:8002/api
    tools:
      - name: create_event
        method: POST
        endpoint: /events
        description: Create a calendar event
`)

	reg, err := registry.LoadFile(env.RegistryPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return reg
}

// openSQLStore opens the SQLite store and closes it at test end.
func openSQLStore(t *testing.T, env *testEnv) directory.Store {
	t.Helper()
	store, err := directory.Open(context.Background(), directory.Options{
		Driver: directory.DriverSQLite,
		Path:   env.DBPath,
	}, nil)
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// connect starts an in-process MCP client against srv and runs the
// initialize handshake.
func connect(t *testing.T, srv *mcpserver.Server) *client.Client {
	t.Helper()
	ctx := context.Background()

	c, err := client.NewInProcessClient(srv.MCP())
	if err != nil {
		t.Fatalf("NewInProcessClient: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	if err := c.Start(ctx); err != nil {
		t.Fatalf("starting client: %v", err)
	}
	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "integration-test", Version: "0.0.0"},
			Capabilities:    mcp.ClientCapabilities{},
		},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return c
}

// callTool invokes a tool and returns its text content and error flag.
func callTool(t *testing.T, c *client.Client, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("CallTool(%s): content is %T, not text", name, res.Content[0])
	}
	return text.Text, res.IsError
}

// decodeResult unmarshals a tool's JSON text into v.
func decodeResult(t *testing.T, text string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("decoding tool result: %v\n%s", err, text)
	}
}

func agentArgs(name string, functions ...string) map[string]any {
	fns := make([]any, len(functions))
	for i, f := range functions {
		fns[i] = f
	}
	return map[string]any{
		"agent_name":           name,
		"description":          "The " + name + " agent",
		"service_provider":     "ANTHROPIC",
		"model_name":           "claude-sonnet",
		"system_prompt":        "You are the " + name + " agent.",
		"do_stream":            true,
		"assigned_functions":   fns,
		"assigned_mcp_servers": []any{"filesystem"},
		"custom_settings":      map[string]any{"protocol": "mcp", "working_directory": "/srv/" + name},
	}
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertContains fails if s does not contain substr.
func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%q does not contain %q", s, substr)
	}
}
