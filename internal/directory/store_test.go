package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/agentx-labs/agentdir/internal/agentconfig"
	"go.uber.org/zap"
)

func sampleConfig(name string) agentconfig.AgentConfig {
	return agentconfig.AgentConfig{
		AgentName:          name,
		Description:        name + " agent",
		ServiceProvider:    agentconfig.ProviderOpenAI,
		ModelName:          "gpt-4o-mini",
		SystemPrompt:       "You are " + name + ".",
		DoStream:           true,
		AssignedFunctions:  []string{"weather_forecast"},
		AssignedAgents:     []string{},
		AssignedMCPServers: []string{"filesystem"},
		CustomSettings:     map[string]any{"protocol": "http", "timeout": 30.0},
	}
}

// storeFactories returns a constructor per driver; each call yields a fresh,
// empty store.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		DriverMemory: func(t *testing.T) Store {
			return NewMemoryStore(zap.NewNop())
		},
		DriverFile: func(t *testing.T) Store {
			s, err := OpenFileStore(filepath.Join(t.TempDir(), "agents.yaml"), zap.NewNop())
			if err != nil {
				t.Fatalf("OpenFileStore: %v", err)
			}
			return s
		},
		DriverSQLite: func(t *testing.T) Store {
			s, err := OpenSQLStore(context.Background(), filepath.Join(t.TempDir(), "agents.db"), zap.NewNop())
			if err != nil {
				t.Fatalf("OpenSQLStore: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	for driver, newStore := range storeFactories(t) {
		t.Run(driver, func(t *testing.T) {
			s := newStore(t)
			cfg := sampleConfig("alpha")

			created, err := s.Create(ctx, "alpha", cfg)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !reflect.DeepEqual(*created, cfg) {
				t.Errorf("Create returned %#v, want %#v", *created, cfg)
			}

			got, err := s.Get(ctx, "alpha")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !reflect.DeepEqual(*got, cfg) {
				t.Errorf("Get returned %#v, want %#v", *got, cfg)
			}
		})
	}
}

func TestStore_DuplicateKey(t *testing.T) {
	ctx := context.Background()
	for driver, newStore := range storeFactories(t) {
		t.Run(driver, func(t *testing.T) {
			s := newStore(t)
			if _, err := s.Create(ctx, "alpha", sampleConfig("alpha")); err != nil {
				t.Fatalf("Create: %v", err)
			}
			_, err := s.Create(ctx, "alpha", sampleConfig("other"))
			var dup *DuplicateKeyError
			if !errors.As(err, &dup) {
				t.Fatalf("expected *DuplicateKeyError, got %v", err)
			}
			if dup.Key != "alpha" {
				t.Errorf("Key = %q, want alpha", dup.Key)
			}

			got, err := s.Get(ctx, "alpha")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.AgentName != "alpha" {
				t.Errorf("duplicate create overwrote record: %q", got.AgentName)
			}
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	for driver, newStore := range storeFactories(t) {
		t.Run(driver, func(t *testing.T) {
			s := newStore(t)
			var nf *NotFoundError

			if _, err := s.Get(ctx, "ghost"); !errors.As(err, &nf) {
				t.Errorf("Get: expected *NotFoundError, got %v", err)
			}
			desc := "x"
			if _, err := s.Update(ctx, "ghost", agentconfig.AgentConfigUpdate{Description: &desc}); !errors.As(err, &nf) {
				t.Errorf("Update: expected *NotFoundError, got %v", err)
			}
			if err := s.Delete(ctx, "ghost"); !errors.As(err, &nf) {
				t.Errorf("Delete: expected *NotFoundError, got %v", err)
			}
		})
	}
}

func TestStore_UpdateMerges(t *testing.T) {
	ctx := context.Background()
	for driver, newStore := range storeFactories(t) {
		t.Run(driver, func(t *testing.T) {
			s := newStore(t)
			if _, err := s.Create(ctx, "alpha", sampleConfig("alpha")); err != nil {
				t.Fatalf("Create: %v", err)
			}

			u, err := agentconfig.ValidateUpdate(map[string]any{
				"model_name":      "gpt-4.1",
				"custom_settings": map[string]any{"protocol": "sse"},
			})
			if err != nil {
				t.Fatalf("ValidateUpdate: %v", err)
			}
			updated, err := s.Update(ctx, "alpha", *u)
			if err != nil {
				t.Fatalf("Update: %v", err)
			}

			want := sampleConfig("alpha")
			want.ModelName = "gpt-4.1"
			want.CustomSettings = map[string]any{"protocol": "sse"}
			if !reflect.DeepEqual(*updated, want) {
				t.Errorf("Update returned %#v, want %#v", *updated, want)
			}

			got, err := s.Get(ctx, "alpha")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !reflect.DeepEqual(*got, want) {
				t.Errorf("Get after update = %#v, want %#v", *got, want)
			}
		})
	}
}

func TestStore_NoOpUpdate(t *testing.T) {
	ctx := context.Background()
	for driver, newStore := range storeFactories(t) {
		t.Run(driver, func(t *testing.T) {
			s := newStore(t)
			cfg := sampleConfig("alpha")
			if _, err := s.Create(ctx, "alpha", cfg); err != nil {
				t.Fatalf("Create: %v", err)
			}
			got, err := s.Update(ctx, "alpha", agentconfig.AgentConfigUpdate{})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if !reflect.DeepEqual(*got, cfg) {
				t.Errorf("no-op update changed the record: %#v", *got)
			}
		})
	}
}

func TestStore_RejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	for driver, newStore := range storeFactories(t) {
		t.Run(driver, func(t *testing.T) {
			s := newStore(t)
			var ve *agentconfig.ValidationError

			bad := sampleConfig("alpha")
			bad.SystemPrompt = ""
			if _, err := s.Create(ctx, "alpha", bad); !errors.As(err, &ve) {
				t.Fatalf("Create invalid: expected *ValidationError, got %v", err)
			}
			if _, err := s.Create(ctx, "", sampleConfig("x")); !errors.As(err, &ve) {
				t.Fatalf("Create empty key: expected *ValidationError, got %v", err)
			}

			if _, err := s.Create(ctx, "alpha", sampleConfig("alpha")); err != nil {
				t.Fatalf("Create: %v", err)
			}
			empty := ""
			if _, err := s.Update(ctx, "alpha", agentconfig.AgentConfigUpdate{AgentName: &empty}); !errors.As(err, &ve) {
				t.Fatalf("Update to empty name: expected *ValidationError, got %v", err)
			}
			got, err := s.Get(ctx, "alpha")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.AgentName != "alpha" {
				t.Errorf("rejected update was applied: %q", got.AgentName)
			}
		})
	}
}

func TestStore_GetAllInsertionOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	for driver, newStore := range storeFactories(t) {
		t.Run(driver, func(t *testing.T) {
			s := newStore(t)
			for _, k := range []string{"charlie", "alpha", "bravo"} {
				if _, err := s.Create(ctx, k, sampleConfig(k)); err != nil {
					t.Fatalf("Create %s: %v", k, err)
				}
			}
			if err := s.Delete(ctx, "alpha"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Create(ctx, "alpha", sampleConfig("alpha")); err != nil {
				t.Fatalf("re-Create: %v", err)
			}

			entries, err := s.GetAll(ctx)
			if err != nil {
				t.Fatalf("GetAll: %v", err)
			}
			var keys []string
			for _, e := range entries {
				keys = append(keys, e.Key)
			}
			want := []string{"charlie", "bravo", "alpha"}
			if !reflect.DeepEqual(keys, want) {
				t.Errorf("GetAll order = %v, want %v", keys, want)
			}
		})
	}
}

func TestStore_ReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	for driver, newStore := range storeFactories(t) {
		t.Run(driver, func(t *testing.T) {
			s := newStore(t)
			if _, err := s.Create(ctx, "alpha", sampleConfig("alpha")); err != nil {
				t.Fatalf("Create: %v", err)
			}
			got, _ := s.Get(ctx, "alpha")
			got.AssignedFunctions[0] = "mutated"
			got.CustomSettings["protocol"] = "mutated"

			again, _ := s.Get(ctx, "alpha")
			if again.AssignedFunctions[0] != "weather_forecast" || again.CustomSettings["protocol"] != "http" {
				t.Errorf("store state changed through a returned record: %#v", again)
			}
		})
	}
}

func TestStore_CustomSettingsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	for _, driver := range []string{DriverMemory, DriverFile, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			opts := Options{Driver: driver, Path: DefaultPath(t.TempDir(), driver)}
			s, err := Open(ctx, opts, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}

			empty := sampleConfig("empty")
			empty.CustomSettings = map[string]any{}
			absent := sampleConfig("absent")
			absent.CustomSettings = nil
			if _, err := s.Create(ctx, "empty", empty); err != nil {
				t.Fatalf("Create empty: %v", err)
			}
			created, err := s.Create(ctx, "absent", absent)
			if err != nil {
				t.Fatalf("Create absent: %v", err)
			}
			if created.CustomSettings == nil {
				t.Error("Create returned nil custom_settings, want empty map")
			}

			if driver != DriverMemory {
				if err := s.Close(); err != nil {
					t.Fatalf("Close: %v", err)
				}
				if s, err = Open(ctx, opts, nil); err != nil {
					t.Fatalf("reopen: %v", err)
				}
			}
			defer s.Close()

			for _, key := range []string{"empty", "absent"} {
				got, err := s.Get(ctx, key)
				if err != nil {
					t.Fatalf("Get(%s): %v", key, err)
				}
				if got.CustomSettings == nil || len(got.CustomSettings) != 0 {
					t.Errorf("Get(%s).CustomSettings = %#v, want empty map", key, got.CustomSettings)
				}
			}
		})
	}
}

func TestFileStore_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "agents.yaml")

	s, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	for _, k := range []string{"b", "a"} {
		if _, err := s.Create(ctx, k, sampleConfig(k)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	reopened, err := OpenFileStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	entries, err := reopened.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != "b" || entries[1].Key != "a" {
		t.Fatalf("entries after reopen = %+v", entries)
	}
	if !reflect.DeepEqual(entries[0].Config, sampleConfig("b")) {
		t.Errorf("config after reopen = %#v", entries[0].Config)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestFileStore_RejectsInvalidFile(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing do_stream", "agents:\n  - key: a\n    config:\n      agent_name: a\n      description: d\n      service_provider: GROQ\n      model_name: m\n      system_prompt: p\n"},
		{"duplicate keys", "agents:\n  - key: a\n    config: {agent_name: a, description: d, service_provider: GROQ, model_name: m, system_prompt: p, do_stream: true}\n  - key: a\n    config: {agent_name: a, description: d, service_provider: GROQ, model_name: m, system_prompt: p, do_stream: true}\n"},
		{"empty key", "agents:\n  - key: \"\"\n    config: {agent_name: a, description: d, service_provider: GROQ, model_name: m, system_prompt: p, do_stream: true}\n"},
		{"not yaml", "agents: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "agents.yaml")
			if err := os.WriteFile(path, []byte(tt.doc), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := OpenFileStore(path, nil); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestSQLStore_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "agents.db")

	s, err := OpenSQLStore(ctx, path, nil)
	if err != nil {
		t.Fatalf("OpenSQLStore: %v", err)
	}
	if _, err := s.Create(ctx, "alpha", sampleConfig("alpha")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenSQLStore(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(ctx, "alpha")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(*got, sampleConfig("alpha")) {
		t.Errorf("Get after reopen = %#v", *got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"memory", Options{Driver: DriverMemory}, false},
		{"file", Options{Driver: DriverFile, Path: DefaultPath(dir, DriverFile)}, false},
		{"default driver is file", Options{Path: filepath.Join(dir, "default.yaml")}, false},
		{"sqlite", Options{Driver: DriverSQLite, Path: DefaultPath(dir, DriverSQLite)}, false},
		{"file without path", Options{Driver: DriverFile}, true},
		{"sqlite without path", Options{Driver: DriverSQLite}, true},
		{"unknown", Options{Driver: "postgres", Path: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.opts, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			s.Close()
		})
	}
}
