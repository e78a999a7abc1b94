package directory

import (
	"context"
	"slices"
	"sync"

	"github.com/agentx-labs/agentdir/internal/agentconfig"
	"go.uber.org/zap"
)

// records is an insertion-ordered key → config table. It is not safe for
// concurrent use; callers hold their own lock.
type records struct {
	keys    []string
	configs map[string]agentconfig.AgentConfig
}

func newRecords() *records {
	return &records{configs: make(map[string]agentconfig.AgentConfig)}
}

func (r *records) get(key string) (*agentconfig.AgentConfig, error) {
	cfg, ok := r.configs[key]
	if !ok {
		return nil, &NotFoundError{Key: key}
	}
	out := cfg.Clone()
	return &out, nil
}

func (r *records) all() []Entry {
	entries := make([]Entry, 0, len(r.keys))
	for _, k := range r.keys {
		entries = append(entries, Entry{Key: k, Config: r.configs[k].Clone()})
	}
	return entries
}

func (r *records) create(key string, cfg agentconfig.AgentConfig) (*agentconfig.AgentConfig, error) {
	if _, ok := r.configs[key]; ok {
		return nil, &DuplicateKeyError{Key: key}
	}
	if err := revalidate(cfg); err != nil {
		return nil, err
	}
	r.keys = append(r.keys, key)
	r.configs[key] = cfg.Clone()
	out := cfg.Clone()
	return &out, nil
}

func (r *records) update(key string, u agentconfig.AgentConfigUpdate) (*agentconfig.AgentConfig, error) {
	existing, ok := r.configs[key]
	if !ok {
		return nil, &NotFoundError{Key: key}
	}
	merged := agentconfig.Merge(existing, u)
	if err := revalidate(merged); err != nil {
		return nil, err
	}
	r.configs[key] = merged
	out := merged.Clone()
	return &out, nil
}

func (r *records) delete(key string) error {
	if _, ok := r.configs[key]; !ok {
		return &NotFoundError{Key: key}
	}
	delete(r.configs, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
	return nil
}

func (r *records) clone() *records {
	c := newRecords()
	c.keys = slices.Clone(r.keys)
	for k, v := range r.configs {
		c.configs[k] = v.Clone()
	}
	return c
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	recs   *records
	logger *zap.Logger
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{recs: newRecords(), logger: logger}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*agentconfig.AgentConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recs.get(key)
}

func (s *MemoryStore) GetAll(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recs.all(), nil
}

func (s *MemoryStore) Create(ctx context.Context, key string, cfg agentconfig.AgentConfig) (*agentconfig.AgentConfig, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.recs.create(key, cfg)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("agent created", zap.String("key", key))
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, key string, u agentconfig.AgentConfigUpdate) (*agentconfig.AgentConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.recs.update(key, u)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("agent updated", zap.String("key", key), zap.Strings("fields", u.SetFields()))
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.recs.delete(key); err != nil {
		return err
	}
	s.logger.Debug("agent deleted", zap.String("key", key))
	return nil
}

func (s *MemoryStore) Close() error { return nil }
