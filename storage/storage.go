// Package storage implements the content-addressed filesystem layout
// for received instances: <root>/<studyUID>/<seriesUID>/<sopInstanceUID>.dcm,
// written atomically (temp file + rename), adapted from the DICOM
// writer's own atomic-write helper.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dcmkit/pacs/dicom"
)

// Manager is the sole mutator of the filesystem tree rooted at Root.
type Manager struct {
	Root string
}

// New creates a Manager rooted at root. The directory is created on
// first write if it doesn't exist.
func New(root string) *Manager {
	return &Manager{Root: root}
}

// PathFor computes the canonical on-disk path for an instance without
// requiring it to exist, used by callers that need to know where a
// file will land before writing it.
func (m *Manager) PathFor(studyUID, seriesUID, sopInstanceUID string) string {
	return filepath.Join(m.Root, studyUID, seriesUID, sopInstanceUID+".dcm")
}

// Store writes ds atomically under its own study/series/instance
// path and returns the absolute path written. Missing directories are
// created on demand; permission failures are wrapped as ErrPathPermission.
func (m *Manager) Store(ds *dicom.DataSet, studyUID, seriesUID, sopInstanceUID string, opts dicom.WriteOptions) (string, error) {
	path := m.PathFor(studyUID, seriesUID, sopInstanceUID)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create directory %s: %v", ErrPathPermission, dir, err)
	}

	opts.CreateDirs = false
	opts.Overwrite = true
	opts.Atomic = true

	if err := dicom.WriteFileWithOptions(path, ds, opts); err != nil {
		if strings.Contains(err.Error(), "validation failed after write") {
			return "", fmt.Errorf("%w: %s: %v", ErrChecksum, path, err)
		}
		return "", classifyWriteError(path, err)
	}

	return path, nil
}

// Open streams the bytes of a previously stored instance directly,
// without re-parsing, for C-GET/C-MOVE sub-operations that just need
// to forward the file.
func (m *Manager) Open(studyUID, seriesUID, sopInstanceUID string) (io.ReadCloser, error) {
	path := m.PathFor(studyUID, seriesUID, sopInstanceUID)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open stored instance: %w", err)
	}
	return f, nil
}

func classifyWriteError(path string, err error) error {
	if os.IsPermission(err) {
		return fmt.Errorf("%w: %s: %v", ErrPathPermission, path, err)
	}
	var pathErr *os.PathError
	if pe, ok := unwrapPathError(err); ok {
		pathErr = pe
		if pathErr.Err.Error() == "no space left on device" {
			return fmt.Errorf("%w: %s: %v", ErrDiskFull, path, err)
		}
	}
	return fmt.Errorf("storage write failed: %w", err)
}

func unwrapPathError(err error) (*os.PathError, bool) {
	type pathErrorer interface {
		Unwrap() error
	}
	for {
		if pe, ok := err.(*os.PathError); ok {
			return pe, true
		}
		u, ok := err.(pathErrorer)
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
		if err == nil {
			return nil, false
		}
	}
}
