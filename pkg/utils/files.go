package utils

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pkg/errors"

	"sicc/pkg/asm"
	"sicc/pkg/compiler"
	"sicc/pkg/session"
	"sicc/pkg/source"
)

// SICLExt marks SICL sources; every other file is assembly.
const SICLExt = ".sicl"

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	parentDir = filepath.Dir(fullPath)
	return fullPath, parentDir, nil
}

// ReadSource loads path from fs. The file is named by path as given so that
// diagnostics match what the user typed.
func ReadSource(fs afero.Fs, path string) (*source.File, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read input file %q", path)
	}
	return source.NewFile(path, string(b)), nil
}

// DefaultOutputPath replaces the extension of inPath with ext.
func DefaultOutputPath(inPath, ext string) string {
	if old := filepath.Ext(inPath); old != "" {
		inPath = strings.TrimSuffix(inPath, old)
	}
	return inPath + "." + ext
}

// FrontEndFor picks the front end by file extension.
func FrontEndFor(path string) session.FrontEnd {
	if strings.EqualFold(filepath.Ext(path), SICLExt) {
		return compiler.New()
	}
	return asm.NewAssembler()
}

// EnsureDir creates the parent directory of path on fs.
func EnsureDir(fs afero.Fs, path string) error {
	dir := filepath.Dir(path)
	if ok, err := afero.DirExists(fs, dir); err != nil || ok {
		return err
	}
	return errors.Wrapf(fs.MkdirAll(dir, 0o755), "failed to create %q", dir)
}
