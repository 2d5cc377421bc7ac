package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/boxpad/internal/platform"
	"github.com/aretw0/boxpad/pkg/adapters/fs"
	"github.com/aretw0/boxpad/pkg/adapters/memory"
	"github.com/aretw0/boxpad/pkg/adapters/sqlite"
	"github.com/aretw0/boxpad/pkg/git"
)

func requireGit(t *testing.T) {
	t.Helper()
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
}

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("AutoInit=true Creates Directory and Git Repo", func(t *testing.T) {
		requireGit(t)
		boardPath := filepath.Join(t.TempDir(), "board")

		gw, err := platform.Init(ctx, boardPath, platform.WithAutoInit(true), platform.WithForceTemp(true))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		fsGw, ok := gw.(*fs.Gateway)
		if !ok {
			t.Fatalf("Expected fs gateway, got %T", gw)
		}
		if fsGw.Path != boardPath {
			t.Errorf("Expected path %s, got %s", boardPath, fsGw.Path)
		}
		if _, err := os.Stat(filepath.Join(boardPath, ".git")); os.IsNotExist(err) {
			t.Errorf(".git directory not found")
		}
		if _, err := os.Stat(filepath.Join(boardPath, ".boxpad")); os.IsNotExist(err) {
			t.Errorf(".boxpad directory not found")
		}
	})

	t.Run("MustExist Fails if Directory Missing", func(t *testing.T) {
		boardPath := filepath.Join(t.TempDir(), "missing")
		_, err := platform.Init(ctx, boardPath, platform.WithMustExist(true), platform.WithForceTemp(true))
		if err == nil {
			t.Error("Expected failure for missing directory")
		}
	})

	t.Run("Versioning=false Does Not Initialize Git", func(t *testing.T) {
		boardPath := filepath.Join(t.TempDir(), "gitless")
		_, err := platform.Init(ctx, boardPath, platform.WithAutoInit(true), platform.WithVersioning(false), platform.WithForceTemp(true))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(boardPath, ".git")); !os.IsNotExist(err) {
			t.Errorf(".git directory should not exist in gitless mode")
		}
	})

	t.Run("Existing Gitless Board Stays Gitless", func(t *testing.T) {
		boardPath := t.TempDir()
		if err := os.Mkdir(filepath.Join(boardPath, ".boxpad"), 0755); err != nil {
			t.Fatal(err)
		}
		_, err := platform.Init(ctx, boardPath, platform.WithAutoInit(true), platform.WithForceTemp(true))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(boardPath, ".git")); !os.IsNotExist(err) {
			t.Errorf("git should not be started on an existing gitless board")
		}
	})

	t.Run("SQLite", func(t *testing.T) {
		dir := t.TempDir()
		gw, err := platform.Init(ctx, dir, platform.WithAdapter(platform.AdapterSQLite), platform.WithForceTemp(true))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		sq, ok := gw.(*sqlite.Gateway)
		if !ok {
			t.Fatalf("Expected sqlite gateway, got %T", gw)
		}
		defer sq.Close()
		if sq.Path != filepath.Join(dir, sqlite.DefaultFile) {
			t.Errorf("unexpected database path %s", sq.Path)
		}
	})

	t.Run("Memory and Injected Gateways", func(t *testing.T) {
		gw, err := platform.Init(ctx, "", platform.WithAdapter(platform.AdapterMemory))
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := gw.(*memory.Gateway); !ok {
			t.Errorf("Expected memory gateway, got %T", gw)
		}

		injected := memory.New()
		gw, err = platform.Init(ctx, "ignored", platform.WithGateway(injected), platform.WithAdapter("nope"))
		if err != nil {
			t.Fatal(err)
		}
		if gw != injected {
			t.Errorf("injected gateway was not used")
		}
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		if _, err := platform.Init(ctx, t.TempDir(), platform.WithAdapter("s3")); err == nil {
			t.Error("Expected unknown adapter to fail")
		}
	})
}
