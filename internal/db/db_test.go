package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	gormDB, err := Open("sqlite", "file::memory:")
	require.Error(t, err)
	assert.Nil(t, gormDB)
	assert.Contains(t, err.Error(), `unsupported database driver "sqlite"`)
}

func TestNewConfig_TranslatesErrors(t *testing.T) {
	cfg := NewConfig()
	assert.True(t, cfg.TranslateError)
	assert.NotNil(t, cfg.Logger)
}
