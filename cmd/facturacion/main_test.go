package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunReturnsConfigError(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRunReturnsStoreError(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "missing", "dir", "facturacion.db"))
	t.Setenv("LOG_LEVEL", "error")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open sqlite store")
}
