package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicIfNeeded(t *testing.T) {
	assert.NotPanics(t, func() { PanicIfNeeded(nil) })

	err := errors.New("boom")
	assert.PanicsWithValue(t, err, func() { PanicIfNeeded(err) })
}

func TestLoadConfig_ReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("INSIGHTS_TEST_FROM_FILE=file\nINSIGHTS_TEST_PRESET=file\n"), 0o600))

	t.Setenv("INSIGHTS_TEST_PRESET", "env")
	t.Cleanup(func() { _ = os.Unsetenv("INSIGHTS_TEST_FROM_FILE") })

	LoadConfig(dir)

	assert.Equal(t, "file", os.Getenv("INSIGHTS_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("INSIGHTS_TEST_PRESET"))
	assert.Equal(t, "file", viper.GetString("insights_test_from_file"))
}

func TestLoadConfig_MissingFile(t *testing.T) {
	assert.NotPanics(t, func() { LoadConfig(t.TempDir()) })
}
