package stations

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/Vovarama1992/go-utils/logger"
)

func logEntry(l *logger.ZapLogger, level, msg string, fields map[string]any, err error) {
	if l == nil {
		return
	}
	l.Log(logger.LogEntry{
		Level:   level,
		Message: msg,
		Fields:  fields,
		Error:   err,
	})
}

// tempPath returns <dir>/<postID>.jpg, creating dir if needed.
func tempPath(dir, postID string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, postID+".jpg"), nil
}

// Release removes a scoped temp file. A file that is already gone is not an error.
func Release(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
