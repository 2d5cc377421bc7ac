package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// DevDir is the namespace used under os.TempDir() for sandboxed boards.
const DevDir = "boxpad-dev"

// IsDevRun reports whether the process was started by `go run` or `go test`.
// Both build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveBoardPath returns where the board really lives. With forceTemp the
// path is re-rooted under the dev sandbox, unless it already is inside the
// system temp directory (t.TempDir()).
func ResolveBoardPath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	clean := filepath.Clean(userPath)
	if rel, err := filepath.Rel(os.TempDir(), clean); err == nil && filepath.IsAbs(clean) && !strings.HasPrefix(rel, "..") {
		return clean
	}

	name := filepath.Base(clean)
	if userPath == "" || name == "." || name == string(os.PathSeparator) {
		name = "default"
	}
	return filepath.Join(os.TempDir(), DevDir, name)
}
