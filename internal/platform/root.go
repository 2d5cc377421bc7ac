package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrRootNotFound is returned by FindRoot when no board marker exists above the start directory.
var ErrRootNotFound = errors.New("board root not found")

// rootMarkers identify a board directory.
var rootMarkers = []string{".boxpad", ConfigFile, "boxpad.db", ".git"}

// FindRoot walks up from startDir to the first directory holding a board
// marker and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, m := range rootMarkers {
			if hasFile(dir, m) {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
