package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, DirectoryExists(dir))
	assert.False(t, DirectoryExists(file))
	assert.False(t, DirectoryExists(filepath.Join(dir, "missing")))
}

func TestLoadEnv_MissingFileIsNotAnError(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadEnv_SetsUnsetVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SIDEPANEL_TEST_ENV_VALUE=from-file\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("SIDEPANEL_TEST_ENV_VALUE") })

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-file", os.Getenv("SIDEPANEL_TEST_ENV_VALUE"))
}

func TestReadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MODEL_PROVIDER=anthropic\n# comment\nOPENAI_MODEL_NAME=gpt-4o\n"), 0o644))

	values, err := ReadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"MODEL_PROVIDER": "anthropic", "OPENAI_MODEL_NAME": "gpt-4o"}, values)
}
