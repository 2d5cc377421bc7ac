// Package fs stores board keys as files in a directory, optionally versioned
// with git.
//
// Each key lives in its own file, <dir>/<key>.<ext>, written atomically. The
// on-disk format (JSON or YAML) is chosen per gateway; reads fall back to any
// supported extension so a board can be switched between formats.
package fs

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/git"
)

// Gateway implements core.Gateway on the filesystem.
type Gateway struct {
	Path        string
	git         *git.Client
	config      Config
	serializer  Serializer
	serializers map[string]Serializer

	mu            sync.RWMutex
	written       map[string][sha256.Size]byte
	watcherActive bool
	lastCommit    *time.Time
	commits       int
}

// Config holds the configuration for the filesystem gateway.
type Config struct {
	Path      string
	AutoInit  bool
	Gitless   bool
	MustExist bool
	ReadOnly  bool
	Format    Format
	Logger    *slog.Logger
	SystemDir string // e.g. ".boxpad"
	// ErrorHandler receives watcher failures. Nil means log only.
	ErrorHandler func(error)
}

// NewGateway creates a filesystem gateway. Call Initialize before use.
func NewGateway(config Config) (*Gateway, error) {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.SystemDir == "" {
		config.SystemDir = ".boxpad"
	}
	ser, err := SerializerFor(config.Format)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		Path:        config.Path,
		git:         git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config:      config,
		serializer:  ser,
		serializers: DefaultSerializers(),
		written:     make(map[string][sha256.Size]byte),
	}, nil
}

// Initialize prepares the directory and, unless gitless, the repository.
func (g *Gateway) Initialize(ctx context.Context) error {
	if g.config.MustExist {
		info, err := os.Stat(g.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("board path does not exist: %s", g.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("board path is not a directory: %s", g.Path)
		}
	} else {
		if err := os.MkdirAll(g.Path, 0755); err != nil {
			return fmt.Errorf("failed to create board directory: %w", err)
		}
	}

	if g.config.Gitless || g.config.ReadOnly {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !g.git.IsRepo() {
		if !g.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", g.Path)
		}
		if err := g.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := g.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		if err := g.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := g.git.Commit(fmt.Sprintf("chore: configure %s ignore", g.config.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the system directory and the lock file out of git.
func (g *Gateway) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(g.Path, ".gitignore")
	wanted := []string{g.config.SystemDir + "/", g.git.LockName(), TempFilePrefix + "*"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range wanted {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads key. The configured format is tried first, then the others.
func (g *Gateway) Load(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	for _, ser := range g.lookupOrder() {
		path := filepath.Join(g.Path, key+ser.Ext())
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		payload, err := ser.Decode(data)
		if err != nil {
			// Returned raw; typed stores treat it as malformed.
			g.config.Logger.Warn("unreadable board file", "path", path, "error", err)
			return data, nil
		}
		return payload, nil
	}
	return nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
}

func (g *Gateway) lookupOrder() []Serializer {
	order := []Serializer{g.serializer}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		if ext != g.serializer.Ext() {
			order = append(order, g.serializers[ext])
		}
	}
	return order
}

// Save writes key atomically and, when versioning, commits it. The commit
// message comes from core.ChangeReasonKey when the context carries one.
func (g *Gateway) Save(ctx context.Context, key string, payload []byte) error {
	if g.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := validKey(key); err != nil {
		return err
	}

	data, err := g.serializer.Encode(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	filename := key + g.serializer.Ext()
	fullPath := filepath.Join(g.Path, filename)

	g.mu.Lock()
	g.written[key] = sha256.Sum256(data)
	g.mu.Unlock()

	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if g.config.Gitless {
		return nil
	}
	return g.commit(ctx, key, filename)
}

func (g *Gateway) commit(ctx context.Context, key, filename string) error {
	lockCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	unlock, err := g.git.Lock(lockCtx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := g.git.Add(filename); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}
	if !g.git.HasStaged() {
		return nil
	}

	msg := "update " + key
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	if err := g.git.Commit(msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}

	now := time.Now()
	g.mu.Lock()
	g.lastCommit = &now
	g.commits++
	g.mu.Unlock()
	return nil
}

// Git returns the client used for versioning, or nil when gitless.
func (g *Gateway) Git() *git.Client {
	if g.config.Gitless {
		return nil
	}
	return g.git
}

// keyFor maps a file path inside the board directory to its key. ok is false
// for files the gateway does not own.
func (g *Gateway) keyFor(path string) (string, bool) {
	if filepath.Dir(path) != filepath.Clean(g.Path) || isTempFile(path) {
		return "", false
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if _, ok := g.serializers[ext]; !ok {
		return "", false
	}
	return strings.TrimSuffix(base, ext), true
}

// ownWrite reports whether the file at path holds exactly what this gateway
// last wrote for key.
func (g *Gateway) ownWrite(key, path string) bool {
	g.mu.RLock()
	sum, ok := g.written[key]
	g.mu.RUnlock()
	if !ok {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return sha256.Sum256(data) == sum
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

var _ core.Gateway = (*Gateway)(nil)
var _ core.Watchable = (*Gateway)(nil)
