// Package sqlite stores board keys in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	_ "modernc.org/sqlite"

	"github.com/aretw0/boxpad/pkg/core"
)

// DefaultFile is the database file name inside a board directory.
const DefaultFile = "boxpad.db"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL
)`

// Config holds the configuration for the SQLite gateway.
type Config struct {
	// Path is the database file. A directory gets DefaultFile appended.
	Path     string
	ReadOnly bool
	Logger   *slog.Logger
}

// Gateway implements core.Gateway on SQLite.
type Gateway struct {
	Path   string
	config Config

	mu     sync.Mutex
	db     *sql.DB
	writes int
}

// NewGateway creates a gateway. The database opens in Initialize.
func NewGateway(config Config) *Gateway {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	path := config.Path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFile)
	}
	return &Gateway{Path: path, config: config}
}

// Initialize opens the database and creates the table.
func (g *Gateway) Initialize(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(g.Path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", g.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps writers serialized inside the process.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	g.db = db
	g.config.Logger.Debug("sqlite gateway ready", "path", g.Path)
	return nil
}

func (g *Gateway) handle() (*sql.DB, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil, errors.New("sqlite gateway is not initialized")
	}
	return g.db, nil
}

// Load returns the value stored under key.
func (g *Gateway) Load(ctx context.Context, key string) ([]byte, error) {
	db, err := g.handle()
	if err != nil {
		return nil, err
	}

	var value []byte
	err = db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

// Save upserts key. A change reason in ctx is stored alongside the value.
func (g *Gateway) Save(ctx context.Context, key string, data []byte) error {
	if g.config.ReadOnly {
		return core.ErrReadOnly
	}
	db, err := g.handle()
	if err != nil {
		return err
	}

	reason, _ := ctx.Value(core.ChangeReasonKey).(string)
	_, err = db.ExecContext(ctx, `
		INSERT INTO kv (key, value, reason, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, reason = excluded.reason, updated_at = excluded.updated_at`,
		key, data, reason, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	g.mu.Lock()
	g.writes++
	g.mu.Unlock()
	return nil
}

// Reason returns the change reason recorded with the last save of key.
func (g *Gateway) Reason(ctx context.Context, key string) (string, error) {
	db, err := g.handle()
	if err != nil {
		return "", err
	}
	var reason string
	err = db.QueryRowContext(ctx, `SELECT reason FROM kv WHERE key = ?`, key).Scan(&reason)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return reason, err
}

// Close releases the database.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}

// GatewayState exposes internal state for observability.
type GatewayState struct {
	Path     string `json:"path"`
	Open     bool   `json:"open"`
	ReadOnly bool   `json:"read_only"`
	Writes   int    `json:"writes"`
}

// State implements introspection.Introspectable.
func (g *Gateway) State() any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GatewayState{Path: g.Path, Open: g.db != nil, ReadOnly: g.config.ReadOnly, Writes: g.writes}
}

// ComponentType implements introspection.Component.
func (g *Gateway) ComponentType() string {
	return "sqlite-gateway"
}

var _ core.Gateway = (*Gateway)(nil)
var _ core.Closer = (*Gateway)(nil)
var _ introspection.Introspectable = (*Gateway)(nil)
var _ introspection.Component = (*Gateway)(nil)
