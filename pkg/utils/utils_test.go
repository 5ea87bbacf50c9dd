package utils

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sicc/pkg/asm"
	"sicc/pkg/compiler"
)

func TestGetPathInfo(t *testing.T) {
	full, dir, err := GetPathInfo("a/../b/prog.s")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(full))
	assert.Equal(t, "prog.s", filepath.Base(full))
	assert.Equal(t, "b", filepath.Base(dir))
}

func TestReadSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "src/p.s", []byte("HLT\nNOP\n"), 0o644))

	f, err := ReadSource(fs, "src/p.s")
	require.NoError(t, err)
	assert.Equal(t, "src/p.s", f.Name)
	line, ok := f.Line(2)
	require.True(t, ok)
	assert.Equal(t, "NOP", line)

	_, err = ReadSource(fs, "missing.s")
	assert.ErrorContains(t, err, `failed to read input file "missing.s"`)
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "dir/prog.bin", DefaultOutputPath("dir/prog.s", "bin"))
	assert.Equal(t, "prog.obj", DefaultOutputPath("prog.sicl", "obj"))
	assert.Equal(t, "prog.bin", DefaultOutputPath("prog", "bin"))
}

func TestFrontEndFor(t *testing.T) {
	assert.IsType(t, &compiler.Compiler{}, FrontEndFor("x.sicl"))
	assert.IsType(t, &compiler.Compiler{}, FrontEndFor("X.SICL"))
	assert.IsType(t, &asm.Assembler{}, FrontEndFor("x.s"))
	assert.IsType(t, &asm.Assembler{}, FrontEndFor("x"))
}

func TestEnsureDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, EnsureDir(fs, "out/deep/prog.bin"))
	ok, err := afero.DirExists(fs, "out/deep")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, EnsureDir(fs, "out/deep/other.bin"))
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	log, al, err := SetupLogger("warn", &buf)
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown")
	require.NoError(t, log.Sync())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	al.SetLevel(zap.DebugLevel)
	log.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")

	_, _, err = SetupLogger("chatty", &buf)
	assert.EqualError(t, err, `invalid log level "chatty"`)
}
