package pipeline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
)

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// unchanged reports whether path already holds exactly data.
func unchanged(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read existing schema").
			WithContext("path", path).
			Build()
	}
	return bytes.Equal(existing, data), nil
}

// writeAtomic writes data next to path and renames it into place, so a
// reader never sees a partially written schema.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("path", dir).
			Build()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create temporary schema file").
			WithContext("path", dir).
			Build()
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write temporary schema file").
			WithContext("path", tmpPath).
			Build()
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "sync temporary schema file").
			WithContext("path", tmpPath).
			Build()
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "close temporary schema file").
			WithContext("path", tmpPath).
			Build()
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "set schema file mode").
			WithContext("path", tmpPath).
			Build()
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "replace schema file").
			WithContext("path", path).
			Build()
	}
	return nil
}
