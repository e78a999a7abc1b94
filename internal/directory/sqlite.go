package directory

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/agentdir/internal/agentconfig"
	"github.com/agentx-labs/agentdir/internal/platform"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLStore keeps records in a SQLite database. Insertion order is the
// autoincrement sequence column.
type SQLStore struct {
	conn   *sql.DB
	logger *zap.Logger
}

// OpenSQLStore opens (or creates) the database at path and applies the
// schema.
func OpenSQLStore(ctx context.Context, path string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Expand leading ~ to the home directory.
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[2:])
	}
	if err := os.MkdirAll(filepath.Dir(path), platform.DirPermSecure); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// A single connection serializes writers and keeps pragmas in effect.
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	if err := platform.Chmod(path, platform.FilePermSecure); err != nil {
		conn.Close()
		return nil, fmt.Errorf("securing database %s: %w", path, err)
	}

	logger.Debug("sqlite store opened", zap.String("path", path))
	return &SQLStore{conn: conn, logger: logger}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (*agentconfig.AgentConfig, error) {
	var data string
	err := s.conn.QueryRowContext(ctx, `SELECT config FROM agents WHERE agent_key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("querying agent %q: %w", key, err)
	}
	return unmarshalConfig(key, data)
}

func (s *SQLStore) GetAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT agent_key, config FROM agents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying agents: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scanning agent row: %w", err)
		}
		cfg, err := unmarshalConfig(key, data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: key, Config: *cfg})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating agents: %w", err)
	}
	return entries, nil
}

func (s *SQLStore) Create(ctx context.Context, key string, cfg agentconfig.AgentConfig) (*agentconfig.AgentConfig, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()
	if err := revalidate(cfg); err != nil {
		return nil, err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling agent %q: %w", key, err)
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		exists, err := keyExists(ctx, tx, key)
		if err != nil {
			return err
		}
		if exists {
			return &DuplicateKeyError{Key: key}
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO agents (agent_key, config) VALUES (?, ?)`, key, string(data))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("agent created", zap.String("key", key))
	return &cfg, nil
}

func (s *SQLStore) Update(ctx context.Context, key string, u agentconfig.AgentConfigUpdate) (*agentconfig.AgentConfig, error) {
	var merged agentconfig.AgentConfig
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var data string
		err := tx.QueryRowContext(ctx, `SELECT config FROM agents WHERE agent_key = ?`, key).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Key: key}
		}
		if err != nil {
			return fmt.Errorf("querying agent %q: %w", key, err)
		}
		existing, err := unmarshalConfig(key, data)
		if err != nil {
			return err
		}

		merged = agentconfig.Merge(*existing, u)
		if err := revalidate(merged); err != nil {
			return err
		}
		out, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("marshaling agent %q: %w", key, err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE agents SET config = ?, updated_at = CURRENT_TIMESTAMP WHERE agent_key = ?`, string(out), key)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("agent updated", zap.String("key", key), zap.Strings("fields", u.SetFields()))
	return &merged, nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM agents WHERE agent_key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting agent %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting agent %q: %w", key, err)
	}
	if n == 0 {
		return &NotFoundError{Key: key}
	}
	s.logger.Debug("agent deleted", zap.String("key", key))
	return nil
}

func (s *SQLStore) Close() error {
	return s.conn.Close()
}

// inTx runs fn in a transaction, committing only if fn succeeds. Errors from
// fn are returned unwrapped so callers can match them.
func (s *SQLStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func keyExists(ctx context.Context, tx *sql.Tx, key string) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM agents WHERE agent_key = ?`, key).Scan(&n); err != nil {
		return false, fmt.Errorf("checking agent %q: %w", key, err)
	}
	return n > 0, nil
}

func unmarshalConfig(key, data string) (*agentconfig.AgentConfig, error) {
	var cfg agentconfig.AgentConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, fmt.Errorf("decoding stored agent %q: %w", key, err)
	}
	out := cfg.Clone()
	return &out, nil
}
