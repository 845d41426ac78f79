package render

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FS wraps the handful of filesystem operations the pipeline needs.
// Content writes are atomic full-file replaces; alias (symlink) operations
// swallow races, because duplicate creation/removal is a normal outcome of
// at-least-once task delivery, while a failed content write is a
// correctness gap and must propagate so the queue retries.
type FS struct {
	log *zap.Logger
}

func NewFS(log *zap.Logger) *FS { return &FS{log: log} }

// WriteFile writes data to path atomically: parents are created, the bytes
// go to a temp file in the same directory, and a rename replaces the
// target. Readers never observe a truncated artifact.
func (f *FS) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// DeleteFile removes path, treating absence as success.
func (f *FS) DeleteFile(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// EnsureDir creates path if needed; pre-existence is not an error.
func (f *FS) EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// RemoveAll deletes a directory tree; absence is not an error.
func (f *FS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// BindAlias creates a symlink linkPath -> target. Failure (typically the
// alias already exists after a task retry) is logged and swallowed.
func (f *FS) BindAlias(target, linkPath string) {
	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		f.log.Warn("alias dir create failed", zap.String("link", linkPath), zap.Error(err))
		return
	}
	if err := os.Symlink(target, linkPath); err != nil {
		f.log.Info("could not create alias", zap.String("link", linkPath), zap.Error(err))
		return
	}
	f.log.Info("created alias", zap.String("link", linkPath), zap.String("target", target))
}

// UnbindAlias removes the symlink at linkPath. Failure is logged and
// swallowed; a missing alias after a retried removal is benign.
func (f *FS) UnbindAlias(linkPath string) {
	if err := os.Remove(linkPath); err != nil {
		f.log.Info("could not remove alias", zap.String("link", linkPath), zap.Error(err))
		return
	}
	f.log.Info("removed alias", zap.String("link", linkPath))
}
