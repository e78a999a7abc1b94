package directory

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/agentx-labs/agentdir/internal/agentconfig"
	"go.uber.org/zap"
)

// Store driver names.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Entry pairs a record key with its configuration.
type Entry struct {
	Key    string                  `json:"key" yaml:"key"`
	Config agentconfig.AgentConfig `json:"config" yaml:"config"`
}

// Store is the agent directory. GetAll returns records in insertion order.
type Store interface {
	Get(ctx context.Context, key string) (*agentconfig.AgentConfig, error)
	GetAll(ctx context.Context) ([]Entry, error)
	Create(ctx context.Context, key string, cfg agentconfig.AgentConfig) (*agentconfig.AgentConfig, error)
	Update(ctx context.Context, key string, update agentconfig.AgentConfigUpdate) (*agentconfig.AgentConfig, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a store.
type Options struct {
	Driver string // memory, file or sqlite
	Path   string // file or database path; ignored for memory
}

// Open returns the store named by opts.Driver.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(logger), nil
	case DriverFile, "":
		if opts.Path == "" {
			return nil, fmt.Errorf("file store requires a path")
		}
		return OpenFileStore(opts.Path, logger)
	case DriverSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite store requires a path")
		}
		return OpenSQLStore(ctx, opts.Path, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q (valid: %s, %s, %s)", opts.Driver, DriverMemory, DriverFile, DriverSQLite)
	}
}

// DefaultPath returns the default store path under dir for a driver.
func DefaultPath(dir, driver string) string {
	if driver == DriverSQLite {
		return filepath.Join(dir, "agents.db")
	}
	return filepath.Join(dir, "agents.yaml")
}

// checkKey rejects empty record keys.
func checkKey(key string) error {
	if key == "" {
		return agentconfig.NewValidationError("key", agentconfig.RuleRequired, "key is required")
	}
	return nil
}

// revalidate checks a config built in code rather than by Validate, so a
// store never persists a record with a missing or invalid field.
func revalidate(cfg agentconfig.AgentConfig) error {
	_, err := agentconfig.Validate(cfg.Raw())
	return err
}
