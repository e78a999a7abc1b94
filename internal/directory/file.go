package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/agentx-labs/agentdir/internal/agentconfig"
	"github.com/agentx-labs/agentdir/internal/platform"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"
)

// fileDoc is the on-disk layout of agents.yaml.
type fileDoc struct {
	Agents []Entry `yaml:"agents"`
}

// rawFileDoc is read before validation so hand-edited files get the same
// checks as any other input.
type rawFileDoc struct {
	Agents []struct {
		Key    string    `yaml:"key"`
		Config yaml.Node `yaml:"config"`
	} `yaml:"agents"`
}

// FileStore keeps records in a YAML file. The whole file is rewritten
// atomically after every mutation.
type FileStore struct {
	path   string
	mu     sync.RWMutex
	recs   *records
	logger *zap.Logger
}

// OpenFileStore loads path, creating an empty store if it does not exist.
// Every record in the file is validated on load.
func OpenFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{path: path, recs: newRecords(), logger: logger}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading agents file %s: %w", path, err)
	}

	var doc rawFileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing agents file %s: %w", path, err)
	}
	for i, a := range doc.Agents {
		if err := checkKey(a.Key); err != nil {
			return nil, fmt.Errorf("%s: agents[%d]: %w", path, i, err)
		}
		var v any
		if err := a.Config.Decode(&v); err != nil {
			return nil, fmt.Errorf("%s: agent %q: %w", path, a.Key, err)
		}
		raw, ok := agentconfig.NormalizeYAML(v).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: agent %q: config is not a mapping", path, a.Key)
		}
		cfg, err := agentconfig.Validate(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: agent %q: %w", path, a.Key, err)
		}
		if _, err := s.recs.create(a.Key, *cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	logger.Debug("agents file loaded", zap.String("path", path), zap.Int("agents", len(s.recs.keys)))
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(ctx context.Context, key string) (*agentconfig.AgentConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recs.get(key)
}

func (s *FileStore) GetAll(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recs.all(), nil
}

func (s *FileStore) Create(ctx context.Context, key string, cfg agentconfig.AgentConfig) (*agentconfig.AgentConfig, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	var out *agentconfig.AgentConfig
	err := s.mutate(func(r *records) error {
		var err error
		out, err = r.create(key, cfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("agent created", zap.String("key", key), zap.String("path", s.path))
	return out, nil
}

func (s *FileStore) Update(ctx context.Context, key string, u agentconfig.AgentConfigUpdate) (*agentconfig.AgentConfig, error) {
	var out *agentconfig.AgentConfig
	err := s.mutate(func(r *records) error {
		var err error
		out, err = r.update(key, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("agent updated", zap.String("key", key), zap.Strings("fields", u.SetFields()))
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := s.mutate(func(r *records) error {
		return r.delete(key)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("agent deleted", zap.String("key", key), zap.String("path", s.path))
	return nil
}

func (s *FileStore) Close() error { return nil }

// mutate applies fn to a copy of the records and swaps it in only after the
// file has been written, so a failed write leaves memory and disk in step.
func (s *FileStore) mutate(fn func(*records) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.recs.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.recs = next
	return nil
}

// save writes recs through a temp file that is renamed into place.
func (s *FileStore) save(recs *records) error {
	data, err := yaml.Marshal(fileDoc{Agents: recs.all()})
	if err != nil {
		return fmt.Errorf("marshaling agents: %w", err)
	}
	if err := platform.WriteFileAtomic(s.path, data, platform.FilePermSecure); err != nil {
		return fmt.Errorf("saving agents file: %w", err)
	}
	return nil
}
