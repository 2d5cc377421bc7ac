package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/boxpad/pkg/adapters/fs"
	"github.com/aretw0/boxpad/pkg/adapters/memory"
	"github.com/aretw0/boxpad/pkg/adapters/sqlite"
	"github.com/aretw0/boxpad/pkg/core"
)

// Init prepares the storage for a board and returns its gateway.
// The uri is adapter-specific: a directory for "fs", a directory or database
// file for "sqlite", ignored for "memory".
func Init(ctx context.Context, uri string, opts ...Option) (core.Gateway, error) {
	o := collect(opts)
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return initGateway(ctx, uri, o)
}

func initGateway(ctx context.Context, uri string, o *options) (core.Gateway, error) {
	if o.gateway != nil {
		return o.gateway, nil
	}

	var (
		gw  core.Gateway
		err error
	)
	switch o.adapter {
	case AdapterFS:
		gw, err = initFS(uri, o)
	case AdapterSQLite:
		gw, err = initSQLite(uri, o)
	case AdapterMemory:
		gw = memory.New()
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := gw.Initialize(ctx); err != nil {
		return nil, err
	}
	return gw, nil
}

// resolvePath applies the dev sandbox rules to a board path.
func resolvePath(path string, o *options) (string, bool) {
	bypass := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypass)
	resolved := ResolveBoardPath(path, useTemp)

	if IsDevRun() {
		switch {
		case o.readOnly:
			o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolved)
		case bypass:
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		default:
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolved)
		}
	}
	if useTemp && resolved != path {
		o.logger.Warn("board redirected to sandbox", "original_path", path, "resolved_path", resolved)
	}
	return resolved, useTemp
}

func initFS(path string, o *options) (core.Gateway, error) {
	resolved, sandboxed := resolvePath(path, o)

	var gitless bool
	if o.gitless != nil {
		gitless = *o.gitless
	} else {
		gitless = detectGitless(resolved, o)
	}

	gw, err := fs.NewGateway(fs.Config{
		Path:         resolved,
		AutoInit:     o.autoInit,
		Gitless:      gitless,
		MustExist:    o.mustExist || (!o.autoInit && !sandboxed),
		ReadOnly:     o.readOnly,
		Format:       fs.Format(o.format),
		Logger:       o.logger,
		SystemDir:    o.systemDir,
		ErrorHandler: o.errorHandler,
	})
	if err != nil {
		return nil, err
	}
	if o.autoInit && !o.readOnly {
		if err := os.MkdirAll(filepath.Join(resolved, o.systemDir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", o.systemDir, err)
		}
	}
	return gw, nil
}

// detectGitless decides versioning when it was not configured. An existing
// .git means versioned. Without one, auto-init versions a fresh directory but
// keeps an existing unversioned board (one that already has a system dir)
// unversioned. Opening a plain folder never starts versioning.
func detectGitless(path string, o *options) bool {
	if hasFile(path, ".git") {
		return false
	}
	gitless := !o.autoInit || hasFile(path, o.systemDir)
	if gitless {
		o.logger.Debug("auto-detected gitless mode", "reason", ".git missing")
	}
	return gitless
}

func initSQLite(uri string, o *options) (core.Gateway, error) {
	path, _ := resolvePath(uri, o)
	if filepath.Ext(path) == "" {
		path = filepath.Join(path, sqlite.DefaultFile)
	}
	if o.mustExist {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("board database does not exist: %s", path)
		}
	}
	return sqlite.NewGateway(sqlite.Config{
		Path:     path,
		ReadOnly: o.readOnly,
		Logger:   o.logger,
	}), nil
}
